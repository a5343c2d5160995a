// Package render draws decoded acquisitions to PNG line plots.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Batronix/magnova-go/waveform"
)

// ErrRender wraps every failure of the plot backend or the output file.
var ErrRender = errors.New("render error")

// Output raster size in pixels.
const (
	widthPx  = 1200
	heightPx = 600
)

var lineBlue = color.RGBA{B: 255, A: 255}

// EncodeWaveform writes a 1200x600 PNG line plot of the series to w. An
// empty series draws no line and falls back to [0,1] on both axes.
func EncodeWaveform(w io.Writer, series waveform.Series) error {
	p := plot.New()
	p.Title.Text = "Oscilloscope Waveform"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Voltage (V)"
	p.BackgroundColor = color.White

	if err := addLine(p, series.Time, series.Voltage); err != nil {
		return err
	}
	return encode(w, p)
}

// EncodeSpectrum writes a 1200x600 PNG line plot of an FFT capture to w.
func EncodeSpectrum(w io.Writer, sp waveform.Spectrum) error {
	p := plot.New()
	p.Title.Text = "Channel FFT"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Amplitude (dB)"
	p.BackgroundColor = color.White

	if err := addLine(p, sp.Frequency, sp.Magnitude); err != nil {
		return err
	}
	return encode(w, p)
}

// Waveform renders the series to a PNG file at path.
func Waveform(path string, series waveform.Series) error {
	return toFile(path, func(w io.Writer) error { return EncodeWaveform(w, series) })
}

// Spectrum renders the FFT capture to a PNG file at path.
func Spectrum(path string, sp waveform.Spectrum) error {
	return toFile(path, func(w io.Writer) error { return EncodeSpectrum(w, sp) })
}

// addLine adds the series as a single blue line and pins the axis ranges:
// X spans the first to the last sample, Y the value span padded by 10%.
// Without data both axes default to [0,1].
func addLine(p *plot.Plot, xs, ys []float32) error {
	if len(xs) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return nil
	}

	pts := make(plotter.XYs, len(xs))
	minY, maxY := float64(ys[0]), float64(ys[0])
	for i := range xs {
		pts[i].X = float64(xs[i])
		pts[i].Y = float64(ys[i])
		if pts[i].Y < minY {
			minY = pts[i].Y
		}
		if pts[i].Y > maxY {
			maxY = pts[i].Y
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	line.Color = lineBlue
	p.Add(line)

	pad := 0.1 * (maxY - minY)
	if pad == 0 {
		// flat trace, keep a visible band around it
		pad = 0.5
	}
	p.X.Min, p.X.Max = float64(xs[0]), float64(xs[len(xs)-1])
	p.Y.Min, p.Y.Max = minY-pad, maxY+pad
	return nil
}

// encode rasterises the plot at 72 DPI so one vg point maps to one pixel.
func encode(w io.Writer, p *plot.Plot) error {
	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthPx), vg.Length(heightPx)),
		vgimg.UseDPI(72),
	)
	p.Draw(draw.New(canvas))
	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

func toFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		return err
	}
	logrus.Infof("plot saved as %s", path)
	return nil
}
