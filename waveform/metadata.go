package waveform

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

func f32le(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// ParseMetadata decodes the fixed-layout header at the start of a block
// body. The RAW layout carries eight fields in 32 bytes, the float layout
// four fields in 16; fields absent from the float layout stay zero.
func ParseMetadata(body []byte, typ TransferType) (Metadata, error) {
	var md Metadata
	need := typ.MetadataLength()
	if len(body) < need {
		return md, fmt.Errorf("%w: body holds %d bytes, metadata needs %d", ErrFraming, len(body), need)
	}

	md.TimeDelta = f32le(body[0:4])
	md.StartTime = f32le(body[4:8])
	md.EndTime = f32le(body[8:12])
	if typ.Raw() {
		md.SampleStart = binary.LittleEndian.Uint32(body[12:16])
		md.SampleLength = binary.LittleEndian.Uint32(body[16:20])
		md.VerticalStart = f32le(body[20:24])
		md.VerticalStep = f32le(body[24:28])
		md.SampleCount = binary.LittleEndian.Uint32(body[28:32])
	} else {
		md.SampleCount = binary.LittleEndian.Uint32(body[12:16])
	}

	logrus.Debugf("metadata: %+v", md)
	return md, nil
}

// Payload returns the sample bytes following the metadata header. Call
// only after ParseMetadata succeeded for the same body and type.
func Payload(body []byte, typ TransferType) []byte {
	return body[typ.MetadataLength():]
}
