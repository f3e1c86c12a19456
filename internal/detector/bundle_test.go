package detector

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/expression"
)

func testFrame(t *testing.T) *gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

func TestBundleBuilder_SmilingFace(t *testing.T) {
	face := NewMockFaceDetector()
	face.SetResult(SmilingFaceResult())
	hands := NewMockHandDetector()

	builder := NewBundleBuilder(face, hands)

	bundle, err := builder.Build(testFrame(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !bundle.FacePresent {
		t.Error("expected face present")
	}
	if !bundle.IsSmiling {
		t.Error("expected smiling")
	}
	if bundle.FrameWidth != 640 || bundle.FrameHeight != 480 {
		t.Errorf("frame dims = %dx%d, want 640x480", bundle.FrameWidth, bundle.FrameHeight)
	}
	if bundle.LeftHand != expression.GestureNone || bundle.RightHand != expression.GestureNone {
		t.Error("expected no hand gestures")
	}
}

func TestBundleBuilder_HandGesture(t *testing.T) {
	face := NewMockFaceDetector()
	hands := NewMockHandDetector()
	hands.SetHands([]HandLandmarks{ThumbsUpLandmarks()})

	builder := NewBundleBuilder(face, hands)

	bundle, err := builder.Build(testFrame(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if bundle.FacePresent {
		t.Error("expected no face")
	}
	if bundle.RightHand != expression.GestureThumbsUp {
		t.Errorf("right hand = %q, want thumbs_up", bundle.RightHand)
	}
}

func TestBundleBuilder_NilHandDetector(t *testing.T) {
	// Hand tracking unavailable: gesture fields default to none instead
	// of failing the frame.
	face := NewMockFaceDetector()
	face.SetResult(SmilingFaceResult())

	builder := NewBundleBuilder(face, nil)

	bundle, err := builder.Build(testFrame(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if bundle.LeftHand != expression.GestureNone ||
		bundle.RightHand != expression.GestureNone ||
		bundle.Special != expression.GestureNone {
		t.Errorf("expected defaulted gestures, got %+v", bundle)
	}
}

func TestBundleBuilder_DetectorErrorFailsFrame(t *testing.T) {
	face := NewMockFaceDetector()
	face.SetError(errors.New("cascade not loaded"))

	builder := NewBundleBuilder(face, NewMockHandDetector())

	if _, err := builder.Build(testFrame(t)); err == nil {
		t.Fatal("expected error from failing face detector")
	}

	// A recovered detector serves the next frame.
	face.SetError(nil)
	face.SetResult(SmilingFaceResult())
	if _, err := builder.Build(testFrame(t)); err != nil {
		t.Fatalf("Build() after recovery error = %v", err)
	}
}

func TestBundleBuilder_AlwaysNormalized(t *testing.T) {
	// Even when the face detector returns sparse fields, the bundle the
	// resolver sees is fully populated.
	face := NewMockFaceDetector()
	face.SetResult(FaceResult{FacePresent: true, Box: expression.FaceBox{X: 10, Y: 10, W: 50, H: 50}})

	builder := NewBundleBuilder(face, NewMockHandDetector())

	bundle, err := builder.Build(testFrame(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if bundle.Gaze != expression.GazeCenter {
		t.Errorf("gaze = %q, want defaulted center", bundle.Gaze)
	}
	if bundle.LeftHand == "" || bundle.RightHand == "" || bundle.Special == "" {
		t.Error("gesture fields must never be empty after Build")
	}
}
