package waveform

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendU16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

// rawBody builds a RAW block body: 32-byte metadata plus 16-bit codes.
func rawBody(md Metadata, codes []uint16) []byte {
	b := appendF32(nil, md.TimeDelta)
	b = appendF32(b, md.StartTime)
	b = appendF32(b, md.EndTime)
	b = appendU32(b, md.SampleStart)
	b = appendU32(b, md.SampleLength)
	b = appendF32(b, md.VerticalStart)
	b = appendF32(b, md.VerticalStep)
	b = appendU32(b, md.SampleCount)
	for _, c := range codes {
		b = appendU16(b, c)
	}
	return b
}

// floatBody builds a float block body: 16-byte metadata plus f32 samples.
func floatBody(md Metadata, samples []float32) []byte {
	b := appendF32(nil, md.TimeDelta)
	b = appendF32(b, md.StartTime)
	b = appendF32(b, md.EndTime)
	b = appendU32(b, md.SampleCount)
	for _, s := range samples {
		b = appendF32(b, s)
	}
	return b
}

func TestDecodeRaw(t *testing.T) {
	body := rawBody(Metadata{
		TimeDelta:    1.0,
		StartTime:    0.0,
		EndTime:      2.0,
		SampleLength: 3,
		VerticalStep: 10.0,
		SampleCount:  3,
	}, []uint16{0, 32768, 65535})

	md, series, err := Decode(body, TypeRaw)
	assert.NoError(t, err, "should not be any error")
	assert.Equal(t, uint32(3), md.SampleCount, "sample count should be decoded")
	assert.Equal(t, []float32{0, 1, 2}, series.Time, "time axis should step by TimeDelta")
	assert.Equal(t, []float32{0.0, 5.0}, series.Voltage[:2], "codes should map onto the span")
	assert.InDelta(t, 9.9998, series.Voltage[2], 1e-3, "full-scale code should land just below the span")
}

func TestDecodeFloat(t *testing.T) {
	body := floatBody(Metadata{
		TimeDelta:   0.5,
		StartTime:   10.0,
		EndTime:     11.0,
		SampleCount: 3,
	}, []float32{1.0, 2.0, 3.0})

	md, series, err := Decode(body, TransferType("ALL"))
	assert.NoError(t, err, "should not be any error")
	assert.Equal(t, uint32(3), md.SampleCount, "sample count should be decoded")
	assert.Zero(t, md.VerticalStep, "RAW-only fields should default to zero")
	assert.Equal(t, []float32{10.0, 10.5, 11.0}, series.Time, "time axis should step by TimeDelta")
	assert.Equal(t, []float32{1.0, 2.0, 3.0}, series.Voltage, "floats should pass through unscaled")
}

func TestDecodeCalibration(t *testing.T) {
	body := rawBody(Metadata{
		TimeDelta:     1e-6,
		VerticalStart: -1.0,
		VerticalStep:  2.0,
		SampleCount:   3,
	}, []uint16{0, 32768, 65535})

	_, series, err := Decode(body, TypeRaw)
	assert.NoError(t, err, "should not be any error")
	assert.Equal(t, float32(-1.0), series.Voltage[0], "code 0 should sit at the vertical origin")
	assert.Equal(t, float32(0.0), series.Voltage[1], "midscale code should sit in the middle of the span")
	assert.InDelta(t, 1.0-2.0/65536, series.Voltage[2], 1e-6, "top code stops one step short of the span")
}

func TestDecodeIdempotent(t *testing.T) {
	body := rawBody(Metadata{TimeDelta: 1, VerticalStep: 10, SampleCount: 3}, []uint16{7, 8, 9})
	_, first, err1 := Decode(body, TypeRaw)
	_, second, err2 := Decode(body, TypeRaw)
	assert.NoError(t, err1, "error1 should be empty")
	assert.NoError(t, err2, "error2 should be empty")
	assert.Equal(t, first, second, "decoding the same body twice should be equal")
}

func TestDecodeTrailingBytesIgnored(t *testing.T) {
	body := rawBody(Metadata{TimeDelta: 1, SampleCount: 2}, []uint16{1, 2})
	body = append(body, 0xFF) // partial sample
	_, series, err := Decode(body, TypeRaw)
	assert.NoError(t, err, "should not be any error")
	assert.Len(t, series.Voltage, 2, "the partial trailing sample should be dropped")
}

func TestDecodePayloadAuthoritative(t *testing.T) {
	// the instrument reports the full count even when the length
	// selector truncated the payload
	body := floatBody(Metadata{TimeDelta: 1, SampleCount: 1000}, []float32{1, 2})
	_, series, err := Decode(body, TransferType("MAX"))
	assert.NoError(t, err, "should not be any error")
	assert.Len(t, series.Voltage, 2, "the payload length should win over SampleCount")
	assert.Len(t, series.Time, 2, "time and voltage should stay parallel")
}

func TestDecodeShortBody(t *testing.T) {
	_, _, err := Decode(make([]byte, 31), TypeRaw)
	assert.ErrorIs(t, err, ErrFraming, "31 bytes cannot hold RAW metadata")

	_, _, err = Decode(make([]byte, 15), TransferType("ALL"))
	assert.ErrorIs(t, err, ErrFraming, "15 bytes cannot hold float metadata")
}

func TestTransferType(t *testing.T) {
	assert.True(t, TransferType("raw").Raw(), "the RAW check should be case-insensitive")
	assert.False(t, TransferType("ALL").Raw(), "ALL is a float transfer")
	assert.Equal(t, 2, TypeRaw.SampleWidth(), "RAW samples are 16-bit")
	assert.Equal(t, 4, TransferType("MAX").SampleWidth(), "float samples are 32-bit")
	assert.Equal(t, RawMetadataLength, TypeRaw.MetadataLength(), "RAW carries eight fields")
	assert.Equal(t, FloatMetadataLength, TransferType("ALL").MetadataLength(), "float carries four fields")
}
