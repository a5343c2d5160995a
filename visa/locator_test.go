package visa

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// fakeProbeSession answers *IDN? with a fixed line.
type fakeProbeSession struct {
	idn     string
	timeout time.Duration
	closed  bool
}

func (f *fakeProbeSession) Command(cmd string) error {
	if cmd != "*IDN?" {
		return fmt.Errorf("unexpected command %q", cmd)
	}
	return nil
}

func (f *fakeProbeSession) ReadLine() (string, error) { return f.idn, nil }

func (f *fakeProbeSession) ReadExact(n int) ([]byte, error) { return nil, io.EOF }

func (f *fakeProbeSession) Reader() io.Reader { return nil }

func (f *fakeProbeSession) Close() error { f.closed = true; return nil }

// fakeManager serves a fixed resource list and per-resource IDN lines.
type fakeManager struct {
	resources map[string][]string
	idn       map[string]string
	broken    map[string]bool
	opened    []*fakeProbeSession
}

func (m *fakeManager) FindResources(pattern string) ([]string, error) {
	return m.resources[pattern], nil
}

func (m *fakeManager) Open(resource string, timeout time.Duration) (Session, error) {
	if m.broken[resource] {
		return nil, fmt.Errorf("%w: open %s refused", ErrTransport, resource)
	}
	sess := &fakeProbeSession{idn: m.idn[resource], timeout: timeout}
	m.opened = append(m.opened, sess)
	return sess, nil
}

func TestFindInstrument(t *testing.T) {
	rm := &fakeManager{
		resources: map[string][]string{"?*::INSTR": {"R1", "R2"}},
		idn: map[string]string{
			"R1": "FOO,Model1,123,1.0",
			"R2": "Batronix,Merlin,456,1.0",
		},
	}

	sess, err := FindInstrument(rm, "Batronix")
	assert.NoError(t, err, "should not be any error")

	// probe on R1, probe on R2, then the operational reopen of R2
	assert.Len(t, rm.opened, 3, "two probes and one reopen are expected")
	assert.True(t, rm.opened[0].closed, "the R1 probe session should be closed")
	assert.True(t, rm.opened[1].closed, "the R2 probe session should be closed")
	assert.Equal(t, ProbeTimeout, rm.opened[0].timeout, "probes should use the short timeout")
	assert.Equal(t, OperationTimeout, rm.opened[2].timeout, "the returned session should use the operational timeout")
	assert.Same(t, rm.opened[2], sess.(*fakeProbeSession), "the reopened R2 session should be returned")
}

func TestFindInstrumentSkipsBrokenResources(t *testing.T) {
	rm := &fakeManager{
		resources: map[string][]string{
			"?*::INSTR":  {"R1"},
			"USB?*INSTR": {"R2"},
		},
		idn:    map[string]string{"R2": "Batronix,Merlin,456,1.0"},
		broken: map[string]bool{"R1": true},
	}

	_, err := FindInstrument(rm, "Batronix")
	assert.NoError(t, err, "a broken candidate should not abort discovery")
}

func TestFindInstrumentNotFound(t *testing.T) {
	rm := &fakeManager{
		resources: map[string][]string{"?*::INSTR": {"R1"}},
		idn:       map[string]string{"R1": "FOO,Model1,123,1.0"},
	}

	_, err := FindInstrument(rm, "Batronix")
	assert.ErrorIs(t, err, ErrDeviceNotFound, "exhausted patterns should report device not found")
}

func init() {
	logrus.SetOutput(os.Stdout)
}
