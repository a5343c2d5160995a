package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/Batronix/magnova-go/config"
	"github.com/Batronix/magnova-go/render"
	"github.com/Batronix/magnova-go/scope"
	"github.com/Batronix/magnova-go/visa"
	"github.com/Batronix/magnova-go/waveform"
)

var (
	debug    = kingpin.Flag("debug", "Enable debug mode.").Bool()
	host     = kingpin.Flag("host", "Instrument hostname or IP. Skips discovery.").Short('H').OverrideDefaultFromEnvar("SCOPE_HOST").String()
	channel  = kingpin.Flag("channel", "Analog channel to capture (1-4).").Short('c').Int()
	length   = kingpin.Flag("length", "Length selector passed verbatim to the data command (ALL, DISPlay, a count).").Short('l').String()
	ttype    = kingpin.Flag("type", "Transfer type: RAW for 16-bit codes, any other token for floats.").Short('t').String()
	output   = kingpin.Flag("output", "Output PNG file.").Short('o').String()
	fft      = kingpin.Flag("fft", "Capture the instrument FFT instead of the waveform.").Bool()
	cfgPath  = kingpin.Flag("config", "Optional YAML defaults file.").String()
	progress = kingpin.Flag("progress", "Show a transfer progress bar.").Bool()
	version  = "0.0.1"
)

// exitCode maps the error taxonomy onto distinct shell exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, visa.ErrDeviceNotFound):
		return 2
	case errors.Is(err, visa.ErrTransport):
		return 3
	case errors.Is(err, waveform.ErrFraming):
		return 4
	case errors.Is(err, scope.ErrInvalidArgument):
		return 5
	case errors.Is(err, render.ErrRender):
		return 6
	}
	return 1
}

// loadConfig merges the optional defaults file under the explicit flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *channel != 0 {
		cfg.Channel = *channel
	}
	if *length != "" {
		cfg.Length = *length
	}
	if *ttype != "" {
		cfg.Type = *ttype
	}
	if *output != "" {
		cfg.Output = *output
	}
	return cfg, nil
}

func connect(cfg *config.Config) (visa.Session, error) {
	rm := visa.NewSystemManager()
	if cfg.Host != "" {
		logrus.Infof("connecting to %s", cfg.Host)
		return visa.OpenTCP(rm, cfg.Host)
	}
	logrus.Info("searching for VISA devices")
	return visa.FindInstrument(rm, cfg.Vendor)
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess, err := connect(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	sc := scope.New(sess)
	sc.Progress = *progress

	idn, err := sc.Identify()
	if err != nil {
		return err
	}
	logrus.Infof("connected to: %s", idn)

	if *fft {
		md, sp, err := sc.AcquireFFT(cfg.Channel)
		if err != nil {
			return err
		}
		logrus.Infof("FFT: BinFrequency=%g StopFrequency=%g BinCount=%d", md.BinFrequency, md.StopFrequency, md.BinCount)
		return render.Spectrum(cfg.Output, sp)
	}

	md, series, err := sc.AcquireWaveform(cfg.Channel, cfg.Length, waveform.TransferType(cfg.Type))
	if err != nil {
		return err
	}
	logrus.Infof("metadata: TimeDelta=%g StartTime=%g EndTime=%g SampleCount=%d", md.TimeDelta, md.StartTime, md.EndTime, md.SampleCount)
	logrus.Infof("decoded %d samples", len(series.Voltage))
	return render.Waveform(cfg.Output, series)
}

func main() {
	kingpin.Version(version)
	kingpin.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := run(); err != nil {
		logrus.Error(err)
		os.Exit(exitCode(err))
	}
}
