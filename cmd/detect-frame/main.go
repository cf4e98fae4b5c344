// detect-frame runs the pet detector over a single image file and prints
// what it finds. Handy for validating a model export before deploying.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/petwatch/go-petwatch/pkg/detect"
)

func main() {
	model := flag.String("model", "models/yolov8n.onnx", "Path to the YOLOv8 ONNX model")
	conf := flag.Float64("confidence", 0.5, "Minimum confidence")
	petsOnly := flag.Bool("pets-only", false, "Only report cats and dogs")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: detect-frame [flags] <image.jpg>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read image: %v\n", err)
		os.Exit(1)
	}

	cfg := detect.DefaultYOLOConfig()
	cfg.ModelPath = *model
	cfg.ConfidenceThresh = float32(*conf)

	detector, err := detect.NewYOLO(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load model: %v\n", err)
		os.Exit(1)
	}
	defer detector.Close()

	objects, err := detector.Detect(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		os.Exit(1)
	}

	count := 0
	for _, o := range objects {
		if *petsOnly && !detect.IsPet(o.ClassID) {
			continue
		}
		cx, cy := o.Center()
		fmt.Printf("%-12s conf=%.2f center=(%.2f, %.2f) size=%.2fx%.2f\n",
			o.ClassName, o.Confidence, cx, cy, o.W, o.H)
		count++
	}
	if count == 0 {
		fmt.Println("no detections")
	}
}
