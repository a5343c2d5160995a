package waveform

import "encoding/binary"

// DecodeSamples converts the payload bytes into calibrated voltages. RAW
// payloads hold little-endian 16-bit codes mapped affinely onto the
// instrument's full-scale span:
//
//	voltage = VerticalStart + code*VerticalStep/65536
//
// Float payloads hold little-endian IEEE-754 voltages taken as-is. Trailing
// bytes short of a full sample are ignored. The payload is authoritative
// over md.SampleCount: a truncating length selector shortens the payload
// without updating the reported count.
func DecodeSamples(payload []byte, md Metadata, typ TransferType) []float32 {
	width := typ.SampleWidth()
	n := len(payload) / width
	voltage := make([]float32, n)
	if typ.Raw() {
		for i := 0; i < n; i++ {
			code := binary.LittleEndian.Uint16(payload[i*width:])
			voltage[i] = md.VerticalStart + float32(code)*md.VerticalStep/65536
		}
	} else {
		for i := 0; i < n; i++ {
			voltage[i] = f32le(payload[i*width:])
		}
	}
	return voltage
}

// TimeAxis builds the sample-time sequence StartTime + i*TimeDelta for n
// samples.
func TimeAxis(md Metadata, n int) []float32 {
	t := make([]float32, n)
	for i := range t {
		t[i] = md.StartTime + float32(i)*md.TimeDelta
	}
	return t
}

// Decode splits a block body into metadata and a calibrated series.
func Decode(body []byte, typ TransferType) (Metadata, Series, error) {
	md, err := ParseMetadata(body, typ)
	if err != nil {
		return md, Series{}, err
	}
	voltage := DecodeSamples(Payload(body, typ), md, typ)
	return md, Series{
		Time:    TimeAxis(md, len(voltage)),
		Voltage: voltage,
	}, nil
}
