package waveform

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ReadBlockHeader consumes the IEEE-488.2 definite-length block prefix
// "#N<digits>" and returns the announced body size. A '#0' prefix announces
// an indefinite-length block, which the instrument never sends and the
// reader does not support.
func ReadBlockHeader(r io.Reader) (int, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, fmt.Errorf("read block header: %w", err)
	}
	if hdr[0] != '#' {
		return 0, fmt.Errorf("%w: block starts with 0x%02X, want '#'", ErrFraming, hdr[0])
	}
	if hdr[1] < '0' || hdr[1] > '9' {
		return 0, fmt.Errorf("%w: size digit count byte 0x%02X is not a digit", ErrFraming, hdr[1])
	}
	ndigits := int(hdr[1] - '0')
	if ndigits == 0 {
		return 0, fmt.Errorf("%w: indefinite-length block not supported", ErrFraming)
	}
	digits := make([]byte, ndigits)
	if _, err := io.ReadFull(r, digits); err != nil {
		return 0, fmt.Errorf("read block size: %w", err)
	}
	size, err := strconv.Atoi(string(digits))
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: block size %q is not a decimal integer", ErrFraming, digits)
	}
	logrus.Debugf("block announces %d body bytes", size)
	return size, nil
}

// ReadBlockBody reads exactly size body bytes regardless of transport
// chunking.
func ReadBlockBody(r io.Reader, size int) ([]byte, error) {
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read block body: %w", err)
	}
	return body, nil
}

// ConsumeTerminator discards the single message terminator byte that
// follows the block body.
func ConsumeTerminator(r io.Reader) error {
	var term [1]byte
	if _, err := io.ReadFull(r, term[:]); err != nil {
		return fmt.Errorf("read block terminator: %w", err)
	}
	return nil
}

// ReadBlock reads one complete definite-length block including its trailing
// terminator and returns the body untouched.
func ReadBlock(r io.Reader) ([]byte, error) {
	size, err := ReadBlockHeader(r)
	if err != nil {
		return nil, err
	}
	body, err := ReadBlockBody(r, size)
	if err != nil {
		return nil, err
	}
	if err := ConsumeTerminator(r); err != nil {
		return nil, err
	}
	return body, nil
}
