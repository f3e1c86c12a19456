package detector

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/expression"
)

// BundleBuilder is the seam between the raw detectors and the expression
// resolver: given a frame, it always produces a complete, internally
// consistent SignalBundle. Sub-detector gaps are defaulted (no face means
// gaze center and all facial booleans false; no hand detector means no
// gestures), so the resolver never sees a missing field.
type BundleBuilder struct {
	face  FaceDetector
	hands HandDetector // may be nil when hand tracking is unavailable
}

// NewBundleBuilder creates a builder over the given detectors. hands may
// be nil; gesture fields then default to none.
func NewBundleBuilder(face FaceDetector, hands HandDetector) *BundleBuilder {
	return &BundleBuilder{face: face, hands: hands}
}

// Build runs both detector families on the frame and fuses their output
// into a normalized SignalBundle. A detector failure fails the whole
// frame; the caller reports it and moves on to the next frame.
func (b *BundleBuilder) Build(frame *gocv.Mat) (expression.SignalBundle, error) {
	if frame == nil || frame.Empty() {
		return expression.SignalBundle{}, fmt.Errorf("build bundle: empty frame")
	}

	frameW := frame.Cols()
	frameH := frame.Rows()

	face, err := b.face.Analyze(frame)
	if err != nil {
		return expression.SignalBundle{}, fmt.Errorf("face analysis: %w", err)
	}

	var hands []HandLandmarks
	if b.hands != nil {
		hands, err = b.hands.Detect(frame)
		if err != nil {
			return expression.SignalBundle{}, fmt.Errorf("hand detection: %w", err)
		}
	}

	gestures := ClassifyHands(hands, face, frameW, frameH)

	bundle := expression.SignalBundle{
		FacePresent:     face.FacePresent,
		FaceBox:         face.Box,
		FrameWidth:      frameW,
		FrameHeight:     frameH,
		EyesClosed:      face.EyesClosed,
		Gaze:            face.Gaze,
		IsSmiling:       face.IsSmiling,
		SmileConfidence: face.SmileCount,
		IsMouthOpen:     face.IsMouthOpen,
		MouthRatio:      face.MouthRatio,
		LeftHand:        gestures.Left,
		RightHand:       gestures.Right,
		Special:         gestures.Special,
	}

	return bundle.Normalize(), nil
}

// Close releases both detectors.
func (b *BundleBuilder) Close() error {
	err := b.face.Close()
	if b.hands != nil {
		if herr := b.hands.Close(); err == nil {
			err = herr
		}
	}
	return err
}
