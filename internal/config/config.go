// Package config loads runtime configuration from the environment, with
// an optional .env file for development setups.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/pkg/camera"
	"github.com/petwatch/go-petwatch/pkg/capture"
	"github.com/petwatch/go-petwatch/pkg/detect"
	"github.com/petwatch/go-petwatch/pkg/notify"
	"github.com/petwatch/go-petwatch/pkg/servo"
	"github.com/petwatch/go-petwatch/pkg/tracking"
)

// ErrInvalid is returned for configuration values that cannot be parsed
// or combined.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full runtime configuration.
type Config struct {
	// Logging
	LogLevel string
	LogFile  string

	// Slack. Both empty disables notifications.
	SlackToken   string
	SlackChannel string

	// Detection
	ModelPath     string
	MinConfidence float64

	// Camera
	CameraIndex int
	FrameWidth  int
	FrameHeight int

	// Servo hardware
	I2CBus      string
	PanChannel  int
	TiltChannel int

	// Control
	KpPan            float64
	KpTilt           float64
	Deadband         int
	SmoothingAlpha   float64
	PanDirection     float64
	TiltDirection    float64
	ScanStepsPan     int
	ScanStepsTilt    int
	TrackingDuration time.Duration
	LostTimeout      time.Duration

	// Capture
	SaveDir       string
	CaptureCount  int
	ImageLongEdge int
	JPEGQuality   int

	// Scheduling and web
	ScheduleInterval time.Duration
	WebPort          string
}

// Load reads the environment, after loading a .env file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env file")
	}

	cfg := &Config{
		LogLevel:     envStr("LOG_LEVEL", "info"),
		LogFile:      envStr("LOG_FILE", "petwatch.log"),
		SlackToken:   os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel: os.Getenv("SLACK_CHANNEL"),
		ModelPath:    envStr("YOLO_MODEL_PATH", "models/yolov8n.onnx"),
		I2CBus:       os.Getenv("I2C_BUS"),
		SaveDir:      envStr("IMAGE_SAVE_DIR", "captures"),
		WebPort:      envStr("WEB_PORT", "8080"),
	}

	var err error
	parse := func(dst *int, key string, def int) {
		if err == nil {
			*dst, err = envInt(key, def)
		}
	}
	parseF := func(dst *float64, key string, def float64) {
		if err == nil {
			*dst, err = envFloat(key, def)
		}
	}

	parseF(&cfg.MinConfidence, "MIN_CONFIDENCE", 0.5)
	parse(&cfg.CameraIndex, "CAMERA_INDEX", 0)
	parse(&cfg.FrameWidth, "FRAME_WIDTH", 640)
	parse(&cfg.FrameHeight, "FRAME_HEIGHT", 480)
	parse(&cfg.PanChannel, "PAN_CHANNEL", 0)
	parse(&cfg.TiltChannel, "TILT_CHANNEL", 1)
	parseF(&cfg.KpPan, "KP_PAN", 0.02)
	parseF(&cfg.KpTilt, "KP_TILT", 0.02)
	parse(&cfg.Deadband, "DEADBAND", 10)
	parseF(&cfg.SmoothingAlpha, "SMOOTHING_ALPHA", 0)
	parseF(&cfg.PanDirection, "PAN_DIRECTION", 1)
	parseF(&cfg.TiltDirection, "TILT_DIRECTION", 1)
	parse(&cfg.ScanStepsPan, "SCAN_STEPS_PAN", 9)
	parse(&cfg.ScanStepsTilt, "SCAN_STEPS_TILT", 5)
	parse(&cfg.CaptureCount, "CAPTURE_COUNT", 3)
	parse(&cfg.ImageLongEdge, "IMAGE_LONG_EDGE", 800)
	parse(&cfg.JPEGQuality, "JPEG_QUALITY", 70)
	if err != nil {
		return nil, err
	}

	trackSecs, err := envFloat("TRACKING_DURATION", 8)
	if err != nil {
		return nil, err
	}
	lostSecs, err := envFloat("LOST_TIMEOUT", 2)
	if err != nil {
		return nil, err
	}
	scheduleMins, err := envFloat("SCHEDULE_INTERVAL", 10)
	if err != nil {
		return nil, err
	}
	cfg.TrackingDuration = time.Duration(trackSecs * float64(time.Second))
	cfg.LostTimeout = time.Duration(lostSecs * float64(time.Second))
	cfg.ScheduleInterval = time.Duration(scheduleMins * float64(time.Minute))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Per-package configs run their
// own validation on top of this.
func (c *Config) Validate() error {
	if (c.SlackToken == "") != (c.SlackChannel == "") {
		return fmt.Errorf("%w: SLACK_BOT_TOKEN and SLACK_CHANNEL must be set together", ErrInvalid)
	}
	if c.ScheduleInterval <= 0 {
		return fmt.Errorf("%w: SCHEDULE_INTERVAL must be positive", ErrInvalid)
	}
	if c.PanChannel == c.TiltChannel {
		return fmt.Errorf("%w: PAN_CHANNEL and TILT_CHANNEL must differ", ErrInvalid)
	}
	return nil
}

// NotificationsEnabled reports whether Slack delivery is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.SlackToken != ""
}

// Tracking maps the environment onto the control configuration.
func (c *Config) Tracking() tracking.Config {
	tc := tracking.DefaultConfig()
	tc.Gains.KpPan = c.KpPan
	tc.Gains.KpTilt = c.KpTilt
	tc.Gains.DeadbandPx = c.Deadband
	tc.Gains.SmoothingAlpha = c.SmoothingAlpha
	tc.Gains.PanDirection = c.PanDirection
	tc.Gains.TiltDirection = c.TiltDirection
	tc.Frame = camera.Geometry{Width: c.FrameWidth, Height: c.FrameHeight}
	tc.ScanPanSteps = c.ScanStepsPan
	tc.ScanTiltSteps = c.ScanStepsTilt
	tc.TrackingDuration = c.TrackingDuration
	tc.LostTimeout = c.LostTimeout
	tc.CaptureCount = c.CaptureCount
	return tc
}

// Camera maps the environment onto the camera configuration.
func (c *Config) Camera() camera.Config {
	return camera.Config{
		Index:  c.CameraIndex,
		Width:  c.FrameWidth,
		Height: c.FrameHeight,
	}
}

// Servo maps the environment onto the actuator configuration.
func (c *Config) Servo() servo.Config {
	return servo.Config{
		PanChannel:  c.PanChannel,
		TiltChannel: c.TiltChannel,
	}
}

// Detect maps the environment onto the detector configuration.
func (c *Config) Detect() detect.YOLOConfig {
	dc := detect.DefaultYOLOConfig()
	dc.ModelPath = c.ModelPath
	dc.ConfidenceThresh = float32(c.MinConfidence)
	return dc
}

// Capture maps the environment onto the still pipeline configuration.
func (c *Config) Capture() capture.Config {
	return capture.Config{
		Dir:      c.SaveDir,
		LongEdge: c.ImageLongEdge,
		Quality:  c.JPEGQuality,
	}
}

// Notify maps the environment onto the Slack configuration.
func (c *Config) Notify() notify.Config {
	return notify.Config{
		Token:   c.SlackToken,
		Channel: c.SlackChannel,
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
	}
	return f, nil
}
