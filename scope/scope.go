package scope

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	pb "gopkg.in/cheggaaa/pb.v2"

	"github.com/Batronix/magnova-go/visa"
	"github.com/Batronix/magnova-go/waveform"
)

// ErrInvalidArgument covers caller mistakes rejected before any byte is
// written to the instrument.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidChannel is returned for channels outside 1..4.
var ErrInvalidChannel = fmt.Errorf("%w: channel must be in 1..4", ErrInvalidArgument)

// memoryDepth is the capture memory requested before every acquisition.
const memoryDepth = 1000000

// fftSettle is how long the instrument is given to fill the FFT after RUN.
const fftSettle = 500 * time.Millisecond

// Scope drives one instrument over an exclusively-owned session. It issues
// strictly ordered request/response commands, so a Scope must not be used
// from more than one goroutine.
type Scope struct {
	sess visa.Session
	// Progress draws a byte progress bar on stderr during block
	// transfers.
	Progress bool
}

// New wraps an open session. The session stays owned by the caller and is
// not closed by the Scope.
func New(sess visa.Session) *Scope {
	return &Scope{sess: sess}
}

// Identify queries *IDN? and returns the raw identification line.
func (s *Scope) Identify() (string, error) {
	if err := s.sess.Command("*IDN?"); err != nil {
		return "", err
	}
	return s.sess.ReadLine()
}

// AcquireWaveform captures one waveform from the given analog channel. The
// length selector is passed verbatim to the data command ("ALL", "DISPlay"
// or a sample count); typ selects the payload encoding. The other three
// channels are disabled so the full memory depth goes to the target.
func (s *Scope) AcquireWaveform(channel int, length string, typ waveform.TransferType) (waveform.Metadata, waveform.Series, error) {
	if channel < 1 || channel > 4 {
		return waveform.Metadata{}, waveform.Series{}, ErrInvalidChannel
	}

	logrus.Debugf("configuring channels")
	if err := s.sess.Command(fmt.Sprintf("CHAN%d:STATe 1", channel)); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	for k := 1; k <= 4; k++ {
		if k == channel {
			continue
		}
		if err := s.sess.Command(fmt.Sprintf("CHAN%d:STATe 0", k)); err != nil {
			return waveform.Metadata{}, waveform.Series{}, err
		}
	}

	logrus.Debugf("starting acquisition")
	if err := s.sess.Command("RUN"); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	if err := s.sess.Command(fmt.Sprintf("ACQuire:MDEPth %d", memoryDepth)); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	if err := s.sess.Command("ACQuire:MDEPth?"); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	depth, err := s.sess.ReadLine()
	if err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	logrus.Infof("memory depth: %s", depth)

	if err := s.sess.Command(fmt.Sprintf("CHAN%d:DATa:TYPE %s", channel, typ)); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}

	// blocks at the instrument until one acquisition has completed
	if err := s.sess.Command("SEQuence:WAIT? 1"); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	if _, err := s.sess.ReadLine(); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}

	if err := s.sess.Command(fmt.Sprintf("CHAN%d:DATa:PACK? %s, %s", channel, length, typ)); err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}
	body, err := s.readBlock()
	if err != nil {
		return waveform.Metadata{}, waveform.Series{}, err
	}

	return waveform.Decode(body, typ)
}

// AcquireFFT captures the instrument-computed FFT of the given channel.
func (s *Scope) AcquireFFT(channel int) (waveform.FFTMetadata, waveform.Spectrum, error) {
	if channel < 1 || channel > 4 {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, ErrInvalidChannel
	}

	if err := s.sess.Command("FFT1:STATe 1"); err != nil {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, err
	}
	if err := s.sess.Command(fmt.Sprintf("FFT1:SOURce CHANnel%d", channel)); err != nil {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, err
	}
	if err := s.sess.Command("RUN"); err != nil {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, err
	}
	time.Sleep(fftSettle)

	if err := s.sess.Command("FFT1:DATA:PACKed?"); err != nil {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, err
	}
	body, err := s.readBlock()
	if err != nil {
		return waveform.FFTMetadata{}, waveform.Spectrum{}, err
	}

	return waveform.ParseFFT(body)
}

// readBlock consumes one definite-length block from the session, with an
// optional progress bar over the body bytes.
func (s *Scope) readBlock() ([]byte, error) {
	start := time.Now()
	r := s.sess.Reader()
	size, err := waveform.ReadBlockHeader(r)
	if err != nil {
		return nil, err
	}

	var body io.Reader = r
	if s.Progress {
		bar := pb.New64(int64(size)).Start()
		defer bar.Finish()
		body = bar.NewProxyReader(r)
	}
	data, err := waveform.ReadBlockBody(body, size)
	if err != nil {
		return nil, err
	}
	if err := waveform.ConsumeTerminator(r); err != nil {
		return nil, err
	}
	logrus.Infof("data capture time: %.3f seconds", time.Since(start).Seconds())
	return data, nil
}
