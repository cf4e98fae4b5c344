// Package capture persists detection frames as resized JPEG stills.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/pkg/tracking"
)

// ErrPipeline is returned when the image pipeline cannot produce any
// output for a capture request.
var ErrPipeline = errors.New("capture: pipeline failed")

// Config holds the still-image output parameters.
type Config struct {
	// Dir is the directory stills are written to. Created if missing.
	Dir string

	// LongEdge bounds the longer image dimension in pixels. Frames already
	// within the bound are stored at native resolution.
	LongEdge int

	// Quality is the JPEG quality, 1-100.
	Quality int
}

// DefaultConfig returns the recommended output parameters.
func DefaultConfig() Config {
	return Config{
		Dir:      "captures",
		LongEdge: 800,
		Quality:  70,
	}
}

// Pipeline decodes raw frames, downscales them to the configured long
// edge, and writes them as timestamped JPEG files.
type Pipeline struct {
	cfg Config
}

// NewPipeline validates the configuration and ensures the output
// directory exists.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: empty output directory", ErrPipeline)
	}
	if cfg.LongEdge < 1 {
		return nil, fmt.Errorf("%w: long edge %d", ErrPipeline, cfg.LongEdge)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return nil, fmt.Errorf("%w: jpeg quality %d", ErrPipeline, cfg.Quality)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrPipeline, cfg.Dir, err)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Save writes each frame as a still and returns the paths written. A
// frame that fails to decode or encode is logged and skipped; Save errors
// only when no frame could be stored at all.
func (p *Pipeline) Save(ctx context.Context, frames [][]byte, meta tracking.CaptureMeta) ([]string, error) {
	stamp := meta.Taken.Format("20060102_150405")

	var paths []string
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		name := fmt.Sprintf("pet_%s_%d.jpg", stamp, i+1)
		path := filepath.Join(p.cfg.Dir, name)
		if err := p.writeStill(path, frame); err != nil {
			log.Warn("still write failed", "path", path, "err", err)
			continue
		}
		log.Debug("still written", "path", path, "class", meta.Class)
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no frame could be stored", ErrPipeline)
	}
	return paths, nil
}

func (p *Pipeline) writeStill(path string, frame []byte) error {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return errors.New("decoded empty image")
	}

	w, h := fitLongEdge(mat.Cols(), mat.Rows(), p.cfg.LongEdge)
	out := mat
	if w != mat.Cols() || h != mat.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		out = resized
	}

	params := []int{gocv.IMWriteJpegQuality, p.cfg.Quality}
	if ok := gocv.IMWriteWithParams(path, out, params); !ok {
		return fmt.Errorf("encode %s", path)
	}
	return nil
}

// fitLongEdge scales (w, h) down so the longer edge is at most long,
// preserving aspect ratio. Images already within the bound are unchanged.
func fitLongEdge(w, h, long int) (int, int) {
	edge := w
	if h > edge {
		edge = h
	}
	if edge <= long {
		return w, h
	}
	scale := float64(long) / float64(edge)
	sw := int(float64(w)*scale + 0.5)
	sh := int(float64(h)*scale + 0.5)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}
