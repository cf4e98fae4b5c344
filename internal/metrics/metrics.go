// Package metrics exposes Prometheus counters for the monitoring loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var factory = promauto.With(registry)

// Cycle and detection counters.
var (
	CyclesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_cycles_total",
		Help: "Monitoring cycles started",
	})

	PetsFoundTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_pets_found_total",
		Help: "Cycles that ended with a pet captured",
	})

	DetectionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_detections_total",
		Help: "Frames with a pet detection above threshold",
	})

	FramesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_frames_total",
		Help: "Frames grabbed and evaluated",
	})
)

// Error counters by failure class.
var (
	ServoErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_servo_errors_total",
		Help: "Failed servo commands (I2C/PWM)",
	})

	DetectionErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_detection_errors_total",
		Help: "Frame grabs or inference calls that failed",
	})

	CaptureErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_capture_errors_total",
		Help: "Still image pipeline failures",
	})

	UploadErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "petwatch_upload_errors_total",
		Help: "Notification/upload failures",
	})
)

// MonitorState reports the orchestrator state as a numeric gauge
// (0 idle, 1 scanning, 2 tracking, 3 capturing).
var MonitorState = factory.NewGauge(prometheus.GaugeOpts{
	Name: "petwatch_monitor_state",
	Help: "Current monitor state (0=idle 1=scanning 2=tracking 3=capturing)",
})

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
