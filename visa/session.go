package visa

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrTransport wraps every failure of the underlying byte transport:
// dial errors, write errors, read timeouts and closed sessions.
var ErrTransport = errors.New("transport error")

// Session is an open request/response channel to one instrument. Commands
// are newline terminated ASCII; responses are either one ASCII line or a
// binary block consumed through Reader. A Session is not safe for
// concurrent use, callers must serialise.
type Session interface {
	// Command writes cmd followed by a newline terminator.
	Command(cmd string) error
	// ReadLine reads one newline-terminated response line, without the
	// terminator.
	ReadLine() (string, error)
	// ReadExact blocks until exactly n bytes are received.
	ReadExact(n int) ([]byte, error)
	// Reader exposes the buffered response stream for block transfers.
	// Every Read is bounded by the session timeout.
	Reader() io.Reader
	Close() error
}

// scpiPort is the conventional TCP port for the raw SCPI socket.
const scpiPort = "5025"

type tcpSession struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// openTCP dials the raw SCPI socket of the given host. The timeout bounds
// the dial and every subsequent read and write on the session.
func openTCP(host string, timeout time.Duration) (Session, error) {
	addr := net.JoinHostPort(host, scpiPort)
	logrus.Debugf("dialing %s", addr)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, addr, err)
	}
	return &tcpSession{
		conn:    conn,
		r:       bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

func (s *tcpSession) Command(cmd string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	logrus.Debugf("-> %s", cmd)
	if _, err := s.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrTransport, cmd, err)
	}
	return nil
}

func (s *tcpSession) ReadLine() (string, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read line: %v", ErrTransport, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *tcpSession) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.Reader(), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *tcpSession) Reader() io.Reader {
	return &tcpSessionReader{s}
}

func (s *tcpSession) Close() error {
	return s.conn.Close()
}

// tcpSessionReader applies a rolling read deadline so that a multi-megabyte
// block transfer is bounded per chunk rather than in total.
type tcpSessionReader struct {
	s *tcpSession
}

func (r *tcpSessionReader) Read(p []byte) (int, error) {
	if err := r.s.conn.SetReadDeadline(time.Now().Add(r.s.timeout)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	n, err := r.s.r.Read(p)
	if err != nil {
		return n, fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	return n, nil
}
