// Package detect provides pet detection using YOLOv8 object detection.
package detect

import "errors"

// ErrInference is returned when the detection backend fails on a frame.
var ErrInference = errors.New("detect: inference failed")

// Object is one detected object with normalized (0-1) frame coordinates.
type Object struct {
	X, Y       float64 // Top-left corner
	W, H       float64 // Width and height
	Confidence float64 // 0-1
	ClassID    int     // COCO class ID
	ClassName  string
}

// Center returns the center point of the bounding box (normalized).
func (o Object) Center() (x, y float64) {
	return o.X + o.W/2, o.Y + o.H/2
}

// Area returns the normalized area of the bounding box.
func (o Object) Area() float64 {
	return o.W * o.H
}

// Detector is the interface for object detection backends.
type Detector interface {
	// Detect finds objects in a JPEG-encoded frame.
	Detect(jpeg []byte) ([]Object, error)

	// Close releases backend resources.
	Close() error
}

// SelectBest picks the strongest detection from a set.
// Score weights confidence over bounding box size.
func SelectBest(objs []Object) *Object {
	if len(objs) == 0 {
		return nil
	}
	if len(objs) == 1 {
		return &objs[0]
	}

	maxArea := 0.0
	for _, o := range objs {
		if o.Area() > maxArea {
			maxArea = o.Area()
		}
	}

	bestScore := -1.0
	var best *Object
	for i := range objs {
		score := objs[i].Confidence*0.7 + (objs[i].Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &objs[i]
		}
	}
	return best
}

// COCOClasses contains the 80 COCO class names in model output order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// Pet COCO class IDs: 15 = cat, 16 = dog.
const (
	ClassCat = 15
	ClassDog = 16
)

// IsPet reports whether the class is one we monitor for.
func IsPet(classID int) bool {
	return classID == ClassCat || classID == ClassDog
}
