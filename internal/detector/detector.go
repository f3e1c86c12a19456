// Package detector provides the face and hand detection boundary for the
// meme tracker. Implementations turn raw video frames into the structured
// signals consumed by the expression resolver; the package also owns the
// adapter that fuses those signals into one fully-defaulted bundle per
// frame.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/expression"
)

// FaceResult holds one frame's face analysis. When FacePresent is false
// the remaining fields are zero values and must not be interpreted.
type FaceResult struct {
	FacePresent bool
	Box         expression.FaceBox
	EyesClosed  bool
	Gaze        expression.GazeDirection
	IsSmiling   bool
	SmileCount  int // corroborating smile sub-detections
	IsMouthOpen bool
	MouthRatio  float64
}

// FaceDetector analyzes a frame for a face and its derived state.
// Implementations must be safe for concurrent invocation, either by
// internal locking or by being stateless.
type FaceDetector interface {
	// Analyze inspects a frame. A frame without a detectable face is not
	// an error: the result simply has FacePresent false.
	Analyze(frame *gocv.Mat) (FaceResult, error)

	// Close releases any resources held by the detector.
	Close() error
}

// HandDetector produces hand landmarks for a frame. Implementations must
// be safe for concurrent invocation.
type HandDetector interface {
	// Detect returns landmarks for each visible hand, up to the
	// configured maximum. An empty slice means no hands were detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds tunable detection parameters shared by implementations.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// CascadeDir is the directory holding the Haar cascade XML files.
	// Empty means the loader probes the usual OpenCV data locations.
	CascadeDir string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
	}
}
