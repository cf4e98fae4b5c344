package detect

// Detection is the single best pet sighting in one frame, in pixel
// coordinates. It is the only detector output the control loop sees,
// and it is never kept beyond the current control step.
type Detection struct {
	CenterX    float64
	CenterY    float64
	Confidence float64
	Class      string // "cat" or "dog"
}

// PetFinder narrows a general object detector to the pet classes and a
// confidence floor, returning at most one detection per frame.
type PetFinder struct {
	detector      Detector
	minConfidence float64
	frameW        int
	frameH        int
}

// NewPetFinder wraps a detector. Detections below minConfidence are treated
// as misses; frame dimensions convert normalized output to pixels.
func NewPetFinder(d Detector, minConfidence float64, frameW, frameH int) *PetFinder {
	return &PetFinder{
		detector:      d,
		minConfidence: minConfidence,
		frameW:        frameW,
		frameH:        frameH,
	}
}

// Best returns the strongest pet detection in the frame, or nil when no pet
// is seen above the confidence floor.
func (f *PetFinder) Best(jpeg []byte) (*Detection, error) {
	objects, err := f.detector.Detect(jpeg)
	if err != nil {
		return nil, err
	}

	var pets []Object
	for _, o := range objects {
		if IsPet(o.ClassID) && o.Confidence >= f.minConfidence {
			pets = append(pets, o)
		}
	}

	best := SelectBest(pets)
	if best == nil {
		return nil, nil
	}

	cx, cy := best.Center()
	return &Detection{
		CenterX:    cx * float64(f.frameW),
		CenterY:    cy * float64(f.frameH),
		Confidence: best.Confidence,
		Class:      best.ClassName,
	}, nil
}

// Close releases the underlying detector.
func (f *PetFinder) Close() error {
	return f.detector.Close()
}
