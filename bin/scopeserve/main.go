// scopeserve exposes one oscilloscope over HTTP: waveform captures as JSON
// or PNG, plus prometheus metrics. The instrument session is strictly
// request/response, so handlers serialise on a mutex.
package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/Batronix/magnova-go/render"
	"github.com/Batronix/magnova-go/scope"
	"github.com/Batronix/magnova-go/visa"
	"github.com/Batronix/magnova-go/waveform"
)

var (
	debug   = kingpin.Flag("debug", "Enable debug mode.").Bool()
	host    = kingpin.Flag("host", "Instrument hostname or IP. Skips discovery.").Short('H').OverrideDefaultFromEnvar("SCOPE_HOST").String()
	vendor  = kingpin.Flag("vendor", "Vendor substring matched during discovery.").Default("Batronix").String()
	listen  = kingpin.Flag("listen", "HTTP listen address.").Default(":8080").String()
	version = "0.0.1"
)

// waveformResponse mirrors the field names of the instrument's own REST
// surface so existing clients can point at either.
type waveformResponse struct {
	TimeDelta   float32   `json:"TimeDelta"`
	StartTime   float32   `json:"StartTime"`
	EndTime     float32   `json:"EndTime"`
	SampleCount int       `json:"SampleCount"`
	Samples     []float32 `json:"Samples"`
}

type server struct {
	mu sync.Mutex
	sc *scope.Scope
}

// acquire runs one guarded acquisition with float samples so the JSON
// carries calibrated voltages directly.
func (s *server) acquire(channel int, length string, typ waveform.TransferType) (waveform.Metadata, waveform.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	md, series, err := s.sc.AcquireWaveform(channel, length, typ)
	if err != nil {
		acquisitionErrors.Inc()
		return md, series, err
	}
	acquisitionsTotal.Inc()
	acquisitionSeconds.Set(time.Since(start).Seconds())
	return md, series, nil
}

func captureParams(c *gin.Context) (int, string, waveform.TransferType, bool) {
	channel, err := strconv.Atoi(c.DefaultQuery("channel", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be an integer"})
		return 0, "", "", false
	}
	length := c.DefaultQuery("length", "ALL")
	typ := waveform.TransferType(c.DefaultQuery("type", "ALL"))
	return channel, length, typ, true
}

func status(err error) int {
	if errors.Is(err, scope.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (s *server) handleIDN(c *gin.Context) {
	s.mu.Lock()
	idn, err := s.sc.Identify()
	s.mu.Unlock()
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"idn": idn})
}

func (s *server) handleWaveform(c *gin.Context) {
	channel, length, typ, ok := captureParams(c)
	if !ok {
		return
	}
	md, series, err := s.acquire(channel, length, typ)
	if err != nil {
		logrus.Errorf("acquire: %v", err)
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, waveformResponse{
		TimeDelta:   md.TimeDelta,
		StartTime:   md.StartTime,
		EndTime:     md.EndTime,
		SampleCount: len(series.Voltage),
		Samples:     series.Voltage,
	})
}

func (s *server) handleWaveformPNG(c *gin.Context) {
	channel, length, typ, ok := captureParams(c)
	if !ok {
		return
	}
	_, series, err := s.acquire(channel, length, typ)
	if err != nil {
		logrus.Errorf("acquire: %v", err)
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := render.EncodeWaveform(&buf, series); err != nil {
		logrus.Errorf("render: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func connect() (visa.Session, error) {
	rm := visa.NewSystemManager()
	if *host != "" {
		return visa.OpenTCP(rm, *host)
	}
	return visa.FindInstrument(rm, *vendor)
}

func main() {
	kingpin.Version(version)
	kingpin.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sess, err := connect()
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
	defer sess.Close()

	srv := &server{sc: scope.New(sess)}

	idn, err := srv.sc.Identify()
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
	logrus.Infof("serving %s on %s", idn, *listen)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/idn", srv.handleIDN)
	r.GET("/api/waveform", srv.handleWaveform)
	r.GET("/api/waveform.png", srv.handleWaveformPNG)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := r.Run(*listen); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
