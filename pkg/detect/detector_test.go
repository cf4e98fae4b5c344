package detect

import (
	"errors"
	"math"
	"testing"
)

func TestObject_Center(t *testing.T) {
	o := Object{X: 0.2, Y: 0.4, W: 0.2, H: 0.2}
	cx, cy := o.Center()
	if math.Abs(cx-0.3) > 1e-9 || math.Abs(cy-0.5) > 1e-9 {
		t.Errorf("center = (%v, %v), want (0.3, 0.5)", cx, cy)
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name     string
		objs     []Object
		wantName string
	}{
		{
			name:     "empty",
			objs:     nil,
			wantName: "",
		},
		{
			name:     "single",
			objs:     []Object{{ClassName: "cat", Confidence: 0.3, W: 0.1, H: 0.1}},
			wantName: "cat",
		},
		{
			name: "higher confidence wins",
			objs: []Object{
				{ClassName: "cat", Confidence: 0.6, W: 0.1, H: 0.1},
				{ClassName: "dog", Confidence: 0.9, W: 0.1, H: 0.1},
			},
			wantName: "dog",
		},
		{
			name: "area breaks near ties",
			objs: []Object{
				{ClassName: "cat", Confidence: 0.8, W: 0.5, H: 0.5},
				{ClassName: "dog", Confidence: 0.8, W: 0.1, H: 0.1},
			},
			wantName: "cat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := SelectBest(tt.objs)
			if tt.wantName == "" {
				if best != nil {
					t.Fatalf("expected nil, got %+v", best)
				}
				return
			}
			if best == nil {
				t.Fatal("expected a detection")
			}
			if best.ClassName != tt.wantName {
				t.Errorf("got %s, want %s", best.ClassName, tt.wantName)
			}
		})
	}
}

func TestIsPet(t *testing.T) {
	if !IsPet(ClassCat) || !IsPet(ClassDog) {
		t.Error("cat and dog must be pets")
	}
	// person
	if IsPet(0) {
		t.Error("person is not a pet")
	}
	// bird
	if IsPet(14) {
		t.Error("bird is not a pet")
	}
}

func TestCOCOClassNames(t *testing.T) {
	if len(COCOClasses) != 80 {
		t.Fatalf("expected 80 classes, got %d", len(COCOClasses))
	}
	if COCOClasses[ClassCat] != "cat" {
		t.Errorf("class %d = %s, want cat", ClassCat, COCOClasses[ClassCat])
	}
	if COCOClasses[ClassDog] != "dog" {
		t.Errorf("class %d = %s, want dog", ClassDog, COCOClasses[ClassDog])
	}
}

// stubDetector returns a fixed set of objects.
type stubDetector struct {
	objects []Object
	err     error
}

func (s *stubDetector) Detect(jpeg []byte) ([]Object, error) { return s.objects, s.err }
func (s *stubDetector) Close() error                         { return nil }

func TestPetFinder_Best(t *testing.T) {
	tests := []struct {
		name    string
		objects []Object
		want    *Detection
	}{
		{
			name:    "no objects",
			objects: nil,
			want:    nil,
		},
		{
			name: "non-pet ignored",
			objects: []Object{
				{ClassID: 0, ClassName: "person", Confidence: 0.99, X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
			},
			want: nil,
		},
		{
			name: "below confidence floor ignored",
			objects: []Object{
				{ClassID: ClassCat, ClassName: "cat", Confidence: 0.3, X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
			},
			want: nil,
		},
		{
			name: "pet converted to pixel center",
			objects: []Object{
				// Center (0.5, 0.5) in a 640x480 frame -> (320, 240)
				{ClassID: ClassDog, ClassName: "dog", Confidence: 0.8, X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
			},
			want: &Detection{CenterX: 320, CenterY: 240, Confidence: 0.8, Class: "dog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPetFinder(&stubDetector{objects: tt.objects}, 0.5, 640, 480)
			got, err := f.Best(nil)
			if err != nil {
				t.Fatalf("Best: %v", err)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected miss, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a detection")
			}
			if math.Abs(got.CenterX-tt.want.CenterX) > 1e-6 ||
				math.Abs(got.CenterY-tt.want.CenterY) > 1e-6 {
				t.Errorf("center (%v, %v), want (%v, %v)",
					got.CenterX, got.CenterY, tt.want.CenterX, tt.want.CenterY)
			}
			if got.Class != tt.want.Class {
				t.Errorf("class %s, want %s", got.Class, tt.want.Class)
			}
		})
	}
}

func TestPetFinder_PropagatesError(t *testing.T) {
	inferr := errors.New("backend exploded")
	f := NewPetFinder(&stubDetector{err: inferr}, 0.5, 640, 480)
	_, err := f.Best(nil)
	if !errors.Is(err, inferr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}
