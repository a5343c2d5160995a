package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Batronix/magnova-go/waveform"
)

func decodePNG(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	assert.NoError(t, err, "output should be a valid PNG")
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func TestEncodeWaveform(t *testing.T) {
	series := waveform.Series{
		Time:    []float32{0, 1e-6, 2e-6, 3e-6},
		Voltage: []float32{-1.0, 0.5, 1.0, -0.5},
	}

	var buf bytes.Buffer
	err := EncodeWaveform(&buf, series)
	assert.NoError(t, err, "should not be any error")

	w, h := decodePNG(t, buf.Bytes())
	assert.Equal(t, 1200, w, "width should be 1200px")
	assert.Equal(t, 600, h, "height should be 600px")
}

func TestEncodeWaveformEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeWaveform(&buf, waveform.Series{})
	assert.NoError(t, err, "an empty series should still render the default axes")

	w, h := decodePNG(t, buf.Bytes())
	assert.Equal(t, 1200, w, "width should be 1200px")
	assert.Equal(t, 600, h, "height should be 600px")
}

func TestEncodeWaveformFlatTrace(t *testing.T) {
	series := waveform.Series{
		Time:    []float32{0, 1, 2},
		Voltage: []float32{2.5, 2.5, 2.5},
	}
	var buf bytes.Buffer
	err := EncodeWaveform(&buf, series)
	assert.NoError(t, err, "a DC trace should not collapse the Y range")
}

func TestEncodeSpectrum(t *testing.T) {
	sp := waveform.Spectrum{
		Frequency: []float32{0, 50, 100},
		Magnitude: []float32{-60, -3, -40},
	}
	var buf bytes.Buffer
	err := EncodeSpectrum(&buf, sp)
	assert.NoError(t, err, "should not be any error")

	w, h := decodePNG(t, buf.Bytes())
	assert.Equal(t, 1200, w, "width should be 1200px")
	assert.Equal(t, 600, h, "height should be 600px")
}

func TestWaveformFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waveform.png")
	series := waveform.Series{
		Time:    []float32{0, 1},
		Voltage: []float32{0, 1},
	}

	err := Waveform(path, series)
	assert.NoError(t, err, "should not be any error")

	data, err := os.ReadFile(path)
	assert.NoError(t, err, "the file should exist")
	decodePNG(t, data)
}

func TestWaveformFileBadPath(t *testing.T) {
	err := Waveform(filepath.Join(t.TempDir(), "missing", "waveform.png"), waveform.Series{})
	assert.ErrorIs(t, err, ErrRender, "an unwritable path should be a render error")
}
