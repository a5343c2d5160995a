package waveform

import (
	"errors"
	"strings"
)

// ErrFraming covers every malformed wire artifact: a block header that does
// not start with '#', an indefinite-length block, unparsable size digits, or
// a body too short for its metadata.
var ErrFraming = errors.New("framing error")

// TransferType selects the sample encoding of a block transfer. TypeRaw
// carries 16-bit unsigned codes with a 32-byte metadata header; every other
// token (ALL, MAX, ...) carries precalibrated 32-bit floats with a 16-byte
// header. The token is passed verbatim to the instrument.
type TransferType string

// TypeRaw requests uncalibrated 16-bit codes.
const TypeRaw TransferType = "RAW"

// Metadata header lengths for the two transfer encodings.
const (
	RawMetadataLength   = 32
	FloatMetadataLength = 16
)

// Raw reports whether the transfer carries 16-bit codes.
func (t TransferType) Raw() bool {
	return strings.EqualFold(string(t), string(TypeRaw))
}

// SampleWidth is the wire size of one sample in bytes.
func (t TransferType) SampleWidth() int {
	if t.Raw() {
		return 2
	}
	return 4
}

// MetadataLength is the size of the metadata header preceding the samples.
func (t TransferType) MetadataLength() int {
	if t.Raw() {
		return RawMetadataLength
	}
	return FloatMetadataLength
}

// Metadata is the fixed-layout little-endian record at the start of a
// waveform block body. For float transfers only TimeDelta, StartTime,
// EndTime and SampleCount are on the wire; the remaining fields stay zero.
type Metadata struct {
	TimeDelta     float32
	StartTime     float32
	EndTime       float32
	SampleStart   uint32
	SampleLength  uint32
	VerticalStart float32
	VerticalStep  float32
	SampleCount   uint32
}

// Series holds one decoded acquisition as two parallel sequences with
// Time[i] = StartTime + i*TimeDelta.
type Series struct {
	Time    []float32
	Voltage []float32
}
