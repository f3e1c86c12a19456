// Package expression implements the expression-resolution engine: the
// policy that fuses noisy per-frame detector signals into a single stable
// expression label used to pick the reaction image to display.
package expression

import "fmt"

// Label identifies a discrete expression category. The set is closed:
// the resolver's priority ordering is hard-coded against it, so labels
// are not user-extensible.
type Label string

// Facial expression labels.
const (
	EyesOpen      Label = "eyes_open"
	EyesClosed    Label = "eyes_closed"
	LookingLeft   Label = "looking_left"
	LookingRight  Label = "looking_right"
	LookingCenter Label = "looking_center"
	Smiling       Label = "smiling"
	Shocked       Label = "shocked" // mouth open without smiling
)

// Combined facial expression labels.
const (
	EyesClosedSmiling    Label = "eyes_closed_smiling"
	EyesClosedNeutral    Label = "eyes_closed_neutral"
	EyesOpenSmiling      Label = "eyes_open_smiling"
	LookingLeftSmiling   Label = "looking_left_smiling"
	LookingRightSmiling  Label = "looking_right_smiling"
	LookingCenterSmiling Label = "looking_center_smiling"
)

// Hand gesture labels.
const (
	ThumbsUp   Label = "thumbs_up"
	ThumbsDown Label = "thumbs_down"
	OpenHand   Label = "open_hand"
	Fist       Label = "fist"
	Pointing   Label = "pointing"
)

// Special hand position labels.
const (
	OneHandRaised    Label = "one_hand_raised"
	BothHandsRaised  Label = "both_hands_raised"
	HandTouchingHead Label = "hand_touching_head"
)

// Closeup is active when the detected face fills a large fraction of the
// frame. It outranks every other label.
const Closeup Label = "closeup"

// allLabels lists every valid label. Order matches the upload UI grouping:
// facial, combined, gestures, specials, closeup.
var allLabels = []Label{
	EyesOpen, EyesClosed,
	LookingLeft, LookingRight, LookingCenter,
	Smiling, Shocked,
	EyesClosedSmiling, EyesClosedNeutral, EyesOpenSmiling,
	LookingLeftSmiling, LookingRightSmiling, LookingCenterSmiling,
	ThumbsUp, ThumbsDown, OpenHand, Fist, Pointing,
	OneHandRaised, BothHandsRaised, HandTouchingHead,
	Closeup,
}

var labelSet = func() map[Label]bool {
	m := make(map[Label]bool, len(allLabels))
	for _, l := range allLabels {
		m[l] = true
	}
	return m
}()

// All returns every valid expression label. The returned slice is a copy
// and may be modified by the caller.
func All() []Label {
	out := make([]Label, len(allLabels))
	copy(out, allLabels)
	return out
}

// Valid reports whether l is a member of the label enumeration.
func (l Label) Valid() bool {
	return labelSet[l]
}

// Parse converts a label name to a Label, rejecting names outside the
// enumeration. Upload and preset handlers use this to keep unknown names
// from ever reaching the resolver.
func Parse(name string) (Label, error) {
	l := Label(name)
	if !l.Valid() {
		return "", fmt.Errorf("unknown expression label %q", name)
	}
	return l, nil
}

// Gesture identifies a discrete hand-pose classification. Exactly one
// value is produced per hand per frame; GestureNone means the hand yielded
// no recognizable pose (or no hand was detected).
type Gesture string

const (
	GestureNone             Gesture = "none"
	GestureThumbsUp         Gesture = "thumbs_up"
	GestureThumbsDown       Gesture = "thumbs_down"
	GestureOpenHand         Gesture = "open_hand"
	GestureFist             Gesture = "fist"
	GesturePointing         Gesture = "pointing"
	GestureOneHandRaised    Gesture = "one_hand_raised"
	GestureBothHandsRaised  Gesture = "both_hands_raised"
	GestureHandTouchingHead Gesture = "hand_touching_head"
)

// IsSet reports whether g names an actual gesture rather than the absence
// of one.
func (g Gesture) IsSet() bool {
	return g != "" && g != GestureNone
}

// Label returns the expression label corresponding to this gesture.
// Gesture and expression names coincide for every gesture in the set.
func (g Gesture) Label() Label {
	return Label(g)
}
