package visa

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrDeviceNotFound is returned when discovery exhausts every resource
// pattern without a matching instrument.
var ErrDeviceNotFound = errors.New("device not found")

const (
	// ProbeTimeout bounds the *IDN? probe of a candidate resource.
	ProbeTimeout = 1 * time.Second
	// OperationTimeout bounds every read and write of an acquisition
	// session, including multi-megabyte block transfers.
	OperationTimeout = 10 * time.Second
)

// discoveryPatterns are tried in order; the wildcard comes first so an
// instrument on an exotic transport is still found.
var discoveryPatterns = []string{"?*::INSTR", "USB?*INSTR", "TCPIP?*INSTR"}

// FindInstrument probes every enumerable resource with *IDN? and returns a
// session to the first instrument whose identification contains vendor.
// Probe failures on individual resources are skipped. The winning resource
// is reopened with the operational timeout. With several matching
// instruments attached the pick is whichever enumerates first.
func FindInstrument(rm ResourceManager, vendor string) (Session, error) {
	for _, pattern := range discoveryPatterns {
		logrus.Debugf("trying pattern %q", pattern)
		resources, err := rm.FindResources(pattern)
		if err != nil {
			logrus.Debugf("pattern %q: %v", pattern, err)
			continue
		}
		for _, resource := range resources {
			idn, err := probe(rm, resource)
			if err != nil {
				logrus.Debugf("probe %s: %v", resource, err)
				continue
			}
			logrus.Infof("%s identifies as %q", resource, idn)
			if !strings.Contains(idn, vendor) {
				continue
			}
			return rm.Open(resource, OperationTimeout)
		}
	}
	return nil, fmt.Errorf("%w: no %s instrument answered *IDN?", ErrDeviceNotFound, vendor)
}

// probe opens a resource with the short timeout and asks it to identify.
func probe(rm ResourceManager, resource string) (string, error) {
	sess, err := rm.Open(resource, ProbeTimeout)
	if err != nil {
		return "", err
	}
	defer sess.Close()
	if err := sess.Command("*IDN?"); err != nil {
		return "", err
	}
	return sess.ReadLine()
}

// OpenTCP bypasses discovery and opens a network instrument directly with
// the operational timeout.
func OpenTCP(rm ResourceManager, host string) (Session, error) {
	return rm.Open(TCPResource(host), OperationTimeout)
}
