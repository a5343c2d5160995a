package visa

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial.v1"
)

// ResourceManager enumerates instrument resources and opens sessions to
// them by resource string.
type ResourceManager interface {
	// FindResources returns the resource strings matching a VISA-style
	// pattern such as "?*::INSTR" or "USB?*INSTR".
	FindResources(pattern string) ([]string, error)
	// Open opens a session to the given resource. The timeout bounds the
	// open and every read and write on the returned session.
	Open(resource string, timeout time.Duration) (Session, error)
}

// SystemManager is the default ResourceManager. It enumerates local serial
// ports as ASRL resources and opens TCPIP resources by dialing the raw
// SCPI socket. Network instruments cannot be discovered, only opened
// explicitly; see TCPResource.
type SystemManager struct{}

// NewSystemManager returns a manager backed by the host's serial ports and
// network stack.
func NewSystemManager() *SystemManager {
	return &SystemManager{}
}

// FindResources lists serial ports as ASRL<port>::INSTR resources. The
// wildcard pattern returns every port; the USB pattern only ports whose
// device name suggests a USB bridge. TCPIP patterns return nothing since
// the network cannot be enumerated.
func (m *SystemManager) FindResources(pattern string) ([]string, error) {
	if strings.HasPrefix(pattern, "TCPIP") {
		return nil, nil
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: list serial ports: %v", ErrTransport, err)
	}
	usbOnly := strings.HasPrefix(pattern, "USB")
	var resources []string
	for _, port := range ports {
		if usbOnly && !strings.Contains(strings.ToLower(port), "usb") {
			continue
		}
		resources = append(resources, "ASRL"+port+"::INSTR")
	}
	logrus.Debugf("pattern %q matched %d resources", pattern, len(resources))
	return resources, nil
}

// Open opens a TCPIP or ASRL resource string.
func (m *SystemManager) Open(resource string, timeout time.Duration) (Session, error) {
	switch {
	case strings.HasPrefix(resource, "TCPIP::") && strings.HasSuffix(resource, "::INSTR"):
		host := strings.TrimSuffix(strings.TrimPrefix(resource, "TCPIP::"), "::INSTR")
		return openTCP(host, timeout)
	case strings.HasPrefix(resource, "ASRL") && strings.HasSuffix(resource, "::INSTR"):
		port := strings.TrimSuffix(strings.TrimPrefix(resource, "ASRL"), "::INSTR")
		return openSerial(port, timeout)
	}
	return nil, fmt.Errorf("%w: unsupported resource %q", ErrTransport, resource)
}

// TCPResource builds the resource string for a network instrument.
func TCPResource(host string) string {
	return fmt.Sprintf("TCPIP::%s::INSTR", host)
}
