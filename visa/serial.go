package visa

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial.v1"
)

const serialBaudRate = 115200

type serialChunk struct {
	data []byte
	err  error
}

// serialSession adapts a serial port to the Session contract. The port API
// has no read deadline, so a pump goroutine moves bytes onto a channel and
// the session side selects against the timeout.
type serialSession struct {
	port    serial.Port
	timeout time.Duration
	chunks  chan serialChunk
	pending []byte
}

func openSerial(name string, timeout time.Duration) (Session, error) {
	mode := &serial.Mode{BaudRate: serialBaudRate}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrTransport, name, err)
	}
	port.ResetInputBuffer()

	s := &serialSession{
		port:    port,
		timeout: timeout,
		chunks:  make(chan serialChunk, 8),
	}
	go s.pump()
	return s, nil
}

func (s *serialSession) pump() {
	defer close(s.chunks)
	for {
		buf := make([]byte, 4096)
		n, err := s.port.Read(buf)
		if n > 0 {
			s.chunks <- serialChunk{data: buf[:n]}
		}
		if err != nil {
			s.chunks <- serialChunk{err: err}
			return
		}
	}
}

// fill blocks until pending holds at least one byte or the deadline passes.
func (s *serialSession) fill(deadline time.Time) error {
	if len(s.pending) > 0 {
		return nil
	}
	wait := time.Until(deadline)
	if wait <= 0 {
		return fmt.Errorf("%w: serial read timeout", ErrTransport)
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case chunk, ok := <-s.chunks:
		if !ok {
			return fmt.Errorf("%w: serial session closed", ErrTransport)
		}
		if chunk.err != nil {
			return fmt.Errorf("%w: serial read: %v", ErrTransport, chunk.err)
		}
		s.pending = append(s.pending, chunk.data...)
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: serial read timeout", ErrTransport)
	}
}

func (s *serialSession) Command(cmd string) error {
	logrus.Debugf("-> %s", cmd)
	if _, err := s.port.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrTransport, cmd, err)
	}
	return nil
}

func (s *serialSession) ReadLine() (string, error) {
	deadline := time.Now().Add(s.timeout)
	var line []byte
	for {
		if err := s.fill(deadline); err != nil {
			return "", err
		}
		b := s.pending[0]
		s.pending = s.pending[1:]
		if b == '\n' {
			return strings.TrimRight(string(line), "\r"), nil
		}
		line = append(line, b)
	}
}

func (s *serialSession) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.Reader(), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *serialSession) Reader() io.Reader {
	return &serialSessionReader{s}
}

func (s *serialSession) Close() error {
	// closing the port unblocks the pump goroutine
	return s.port.Close()
}

type serialSessionReader struct {
	s *serialSession
}

func (r *serialSessionReader) Read(p []byte) (int, error) {
	if err := r.s.fill(time.Now().Add(r.s.timeout)); err != nil {
		return 0, err
	}
	n := copy(p, r.s.pending)
	r.s.pending = r.s.pending[n:]
	return n, nil
}
