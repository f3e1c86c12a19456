package expression

// GazeDirection is the horizontal gaze bucket reported by the face
// detector.
type GazeDirection string

const (
	GazeLeft   GazeDirection = "left"
	GazeCenter GazeDirection = "center"
	GazeRight  GazeDirection = "right"
)

// CloseupRatio is the fraction of the frame the face box must exceed for
// the closeup label to activate.
const CloseupRatio = 0.3

// FaceBox is a face bounding box in pixel units.
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// SignalBundle carries one frame's worth of detector output. Bundles are
// ephemeral: built fresh per frame, consumed by the resolver, then
// discarded. A bundle is always fully populated — the boundary adapter
// that builds it applies defaults for any sub-detector that yielded
// nothing, so the resolver never has to handle missing fields.
//
// When FacePresent is false the face-derived fields (EyesClosed,
// Gaze, IsSmiling, IsMouthOpen) are not trusted; the resolver skips the
// facial branches entirely rather than reading them.
type SignalBundle struct {
	FacePresent bool    `json:"face_present"`
	FaceBox     FaceBox `json:"face_box"`
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`

	EyesClosed bool          `json:"eyes_closed"`
	Gaze       GazeDirection `json:"gaze_direction"`

	IsSmiling       bool `json:"is_smiling"`
	SmileConfidence int  `json:"smile_confidence"` // corroborating smile sub-detections

	IsMouthOpen bool    `json:"is_mouth_open"`
	MouthRatio  float64 `json:"mouth_ratio"`

	LeftHand  Gesture `json:"left_hand_gesture"`
	RightHand Gesture `json:"right_hand_gesture"`
	Special   Gesture `json:"special_gesture"`
}

// Normalize fills in defaults so every field holds a usable value: empty
// gestures become GestureNone, an empty gaze becomes center, negative
// counts and ratios are clamped, and face-derived fields are zeroed when
// no face is present. Adapters call this before handing a bundle to the
// resolver; the resolver itself assumes it has been applied.
func (b SignalBundle) Normalize() SignalBundle {
	if b.LeftHand == "" {
		b.LeftHand = GestureNone
	}
	if b.RightHand == "" {
		b.RightHand = GestureNone
	}
	if b.Special == "" {
		b.Special = GestureNone
	}
	if b.Gaze != GazeLeft && b.Gaze != GazeRight {
		b.Gaze = GazeCenter
	}
	if b.SmileConfidence < 0 {
		b.SmileConfidence = 0
	}
	if b.MouthRatio < 0 {
		b.MouthRatio = 0
	} else if b.MouthRatio > 1 {
		b.MouthRatio = 1
	}
	if !b.FacePresent {
		b.FaceBox = FaceBox{}
		b.EyesClosed = false
		b.Gaze = GazeCenter
		b.IsSmiling = false
		b.SmileConfidence = 0
		b.IsMouthOpen = false
		b.MouthRatio = 0
	}
	return b
}

// FaceRatio returns the fraction of the frame area covered by the face
// box, or 0 when no face is present or the frame dimensions are invalid.
func (b SignalBundle) FaceRatio() float64 {
	if !b.FacePresent || b.FrameWidth <= 0 || b.FrameHeight <= 0 {
		return 0
	}
	faceArea := float64(b.FaceBox.W) * float64(b.FaceBox.H)
	frameArea := float64(b.FrameWidth) * float64(b.FrameHeight)
	return faceArea / frameArea
}

// IsCloseup reports whether the face fills enough of the frame to qualify
// as a closeup.
func (b SignalBundle) IsCloseup() bool {
	return b.FaceRatio() > CloseupRatio
}
