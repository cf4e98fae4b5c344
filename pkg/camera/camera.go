// Package camera provides JPEG frame capture from a local V4L2 device.
package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCapture is returned when a frame cannot be read from the device.
var ErrCapture = errors.New("camera: frame capture failed")

// Geometry is the immutable frame size for a session. The frame center is
// the reference point for all tracking error math.
type Geometry struct {
	Width  int
	Height int
}

// Center returns the frame center in pixel coordinates.
func (g Geometry) Center() (x, y float64) {
	return float64(g.Width) / 2, float64(g.Height) / 2
}

// Config selects and sizes the capture device.
type Config struct {
	Index  int // V4L2 device index
	Width  int
	Height int
}

// DefaultConfig matches the reference hardware: /dev/video0 at 640x480.
func DefaultConfig() Config {
	return Config{Index: 0, Width: 640, Height: 480}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera: invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.Index < 0 {
		return fmt.Errorf("camera: invalid device index %d", c.Index)
	}
	return nil
}

// Source yields one JPEG frame per call. Implementations are synchronous;
// the control loop owns the source exclusively during a cycle.
type Source interface {
	CaptureJPEG() ([]byte, error)
	Geometry() Geometry
	Close() error
}

// Webcam captures frames from a local camera through gocv.
type Webcam struct {
	cfg Config

	mu    sync.Mutex
	cap   *gocv.VideoCapture
	frame gocv.Mat
}

// OpenWebcam opens the device and applies the requested frame size.
func OpenWebcam(cfg Config) (*Webcam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cap, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrCapture, cfg.Index, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	return &Webcam{
		cfg:   cfg,
		cap:   cap,
		frame: gocv.NewMat(),
	}, nil
}

// CaptureJPEG grabs one frame and encodes it as JPEG.
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil, fmt.Errorf("%w: device closed", ErrCapture)
	}
	if ok := w.cap.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, fmt.Errorf("%w: read from device %d", ErrCapture, w.cfg.Index)
	}

	buf, err := gocv.IMEncode(".jpg", w.frame)
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg encode: %v", ErrCapture, err)
	}
	defer buf.Close()

	// Copy out: the buffer memory is owned by OpenCV.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Geometry returns the configured frame size.
func (w *Webcam) Geometry() Geometry {
	return Geometry{Width: w.cfg.Width, Height: w.cfg.Height}
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil
	}
	w.frame.Close()
	err := w.cap.Close()
	w.cap = nil
	return err
}
