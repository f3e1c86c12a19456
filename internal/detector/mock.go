package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/expression"
)

// MockFaceDetector is a test implementation of the FaceDetector
// interface. It allows tests and detector-less deployments to control
// the analysis results.
type MockFaceDetector struct {
	result FaceResult
	err    error
}

// NewMockFaceDetector creates a MockFaceDetector reporting no face.
func NewMockFaceDetector() *MockFaceDetector {
	return &MockFaceDetector{
		result: FaceResult{Gaze: expression.GazeCenter},
	}
}

// SetResult sets the result that will be returned by Analyze.
func (m *MockFaceDetector) SetResult(r FaceResult) {
	m.result = r
}

// SetError sets the error that will be returned by Analyze.
func (m *MockFaceDetector) SetError(err error) {
	m.err = err
}

// Analyze returns the pre-configured result or error.
func (m *MockFaceDetector) Analyze(frame *gocv.Mat) (FaceResult, error) {
	if m.err != nil {
		return FaceResult{}, m.err
	}
	return m.result, nil
}

// Close is a no-op for the mock detector.
func (m *MockFaceDetector) Close() error {
	return nil
}

// MockHandDetector is a test implementation of the HandDetector
// interface.
type MockHandDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockHandDetector creates a MockHandDetector reporting no hands.
func NewMockHandDetector() *MockHandDetector {
	return &MockHandDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockHandDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockHandDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockHandDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockHandDetector) Close() error {
	return nil
}

// Preset fixtures for tests and the mock pipeline.

// SmilingFaceResult returns a FaceResult for a centered, modestly sized,
// smiling face with open eyes.
func SmilingFaceResult() FaceResult {
	return FaceResult{
		FacePresent: true,
		Box:         expression.FaceBox{X: 220, Y: 120, W: 180, H: 180},
		Gaze:        expression.GazeCenter,
		IsSmiling:   true,
		SmileCount:  3,
	}
}

// ClosedEyesFaceResult returns a FaceResult for a neutral face with
// closed eyes.
func ClosedEyesFaceResult() FaceResult {
	return FaceResult{
		FacePresent: true,
		Box:         expression.FaceBox{X: 220, Y: 120, W: 180, H: 180},
		Gaze:        expression.GazeCenter,
		EyesClosed:  true,
	}
}

// CloseupFaceResult returns a FaceResult whose box covers well over 30%
// of a 640x480 frame.
func CloseupFaceResult() FaceResult {
	return FaceResult{
		FacePresent: true,
		Box:         expression.FaceBox{X: 80, Y: 20, W: 460, H: 420},
		Gaze:        expression.GazeCenter,
	}
}

// ThumbsUpLandmarks returns a preset HandLandmarks for a right-hand
// thumbs up: thumb extended upward, other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	// Thumb extended upward (y decreases going up)
	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	h.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65}
	h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50}
	h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35}

	// Fingers curled: tips at or below their PIP joints
	curl := func(mcp, pip, dip, tip int, x float64) {
		h.Points[mcp] = Point3D{X: x, Y: 0.68}
		h.Points[pip] = Point3D{X: x, Y: 0.66, Z: -0.05}
		h.Points[dip] = Point3D{X: x - 0.03, Y: 0.68, Z: -0.04}
		h.Points[tip] = Point3D{X: x - 0.05, Y: 0.70, Z: -0.02}
	}
	curl(IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.55)
	curl(MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50)
	curl(RingMCP, RingPIP, RingDIP, RingTip, 0.45)
	curl(PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40)

	return h
}

// OpenHandLandmarks returns a preset HandLandmarks for an open palm: all
// fingers extended upward.
func OpenHandLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60}

	extend := func(mcp, pip, dip, tip int, x float64) {
		h.Points[mcp] = Point3D{X: x, Y: 0.68}
		h.Points[pip] = Point3D{X: x, Y: 0.55}
		h.Points[dip] = Point3D{X: x, Y: 0.45}
		h.Points[tip] = Point3D{X: x, Y: 0.33}
	}
	extend(IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.57)
	extend(MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50)
	extend(RingMCP, RingPIP, RingDIP, RingTip, 0.43)
	extend(PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.36)

	return h
}

// PointingLandmarks returns a preset HandLandmarks with only the index
// finger extended.
func PointingLandmarks() HandLandmarks {
	h := ThumbsUpLandmarks()
	// Retract the thumb and extend the index finger instead.
	h.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.70}
	h.Points[ThumbTip] = Point3D{X: 0.55, Y: 0.70}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55}
	h.Points[IndexDIP] = Point3D{X: 0.57, Y: 0.45}
	h.Points[IndexTip] = Point3D{X: 0.57, Y: 0.33}
	return h
}

// FistLandmarks returns a preset HandLandmarks for a closed fist.
func FistLandmarks() HandLandmarks {
	h := ThumbsUpLandmarks()
	// Curl the thumb alongside the fingers.
	h.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.69}
	h.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.70}
	return h
}

// RaisedHandLandmarks returns an open hand positioned in the upper part
// of the frame, with the wrist above a typical face box. Fingertips land
// slightly above the frame edge, as MediaPipe reports for a hand partly
// out of view.
func RaisedHandLandmarks(handedness string) HandLandmarks {
	h := OpenHandLandmarks()
	h.Handedness = handedness
	for i := range h.Points {
		h.Points[i].Y -= 0.62
	}
	return h
}
