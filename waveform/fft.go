package waveform

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// fftMetadataLength is the packed FFT header: BinFrequency, StopFrequency
// and BinCount.
const fftMetadataLength = 12

// FFTMetadata is the fixed-layout little-endian record at the start of an
// FFT1:DATA:PACKed? block body.
type FFTMetadata struct {
	BinFrequency  float32
	StopFrequency float32
	BinCount      uint32
}

// Spectrum holds one decoded FFT capture as two parallel sequences.
type Spectrum struct {
	Frequency []float32
	Magnitude []float32
}

// ParseFFT splits a packed FFT block body into metadata and a spectrum.
// The bins are little-endian floats in dB; the frequency axis spans 0 to
// StopFrequency inclusive over the produced bin count.
func ParseFFT(body []byte) (FFTMetadata, Spectrum, error) {
	var md FFTMetadata
	if len(body) < fftMetadataLength {
		return md, Spectrum{}, fmt.Errorf("%w: body holds %d bytes, FFT metadata needs %d", ErrFraming, len(body), fftMetadataLength)
	}
	md.BinFrequency = f32le(body[0:4])
	md.StopFrequency = f32le(body[4:8])
	md.BinCount = binary.LittleEndian.Uint32(body[8:12])
	logrus.Debugf("FFT metadata: %+v", md)

	payload := body[fftMetadataLength:]
	n := len(payload) / 4
	sp := Spectrum{
		Frequency: make([]float32, n),
		Magnitude: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		sp.Magnitude[i] = f32le(payload[i*4:])
		if n > 1 {
			sp.Frequency[i] = md.StopFrequency * float32(i) / float32(n-1)
		}
	}
	return md, sp, nil
}
