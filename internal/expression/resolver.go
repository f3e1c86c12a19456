package expression

// Availability maps each bound expression label to an opaque image
// reference (for this application, a stored file path). The resolver only
// reads it: a label without an entry can never be returned, no matter how
// strongly the signals match it.
type Availability map[Label]string

// Has reports whether the label is bound to an image.
func (a Availability) Has(l Label) bool {
	_, ok := a[l]
	return ok
}

// Clone returns a copy of the table.
func (a Availability) Clone() Availability {
	out := make(Availability, len(a))
	for l, ref := range a {
		out[l] = ref
	}
	return out
}

// Resolve maps one frame's signal bundle to the expression label that
// should drive the display, or ok=false when no rule with a bound image
// matched. It is pure: it reads the bundle and the availability table and
// touches nothing else, so callers may invoke it freely and discard the
// result.
//
// Rules are evaluated in strict priority order; the first match whose
// label is available wins, and a matching rule whose label is unbound is
// skipped rather than terminating the scan:
//
//	closeup > special gesture > left hand > right hand > facial branches
//
// Framing and deliberate hand signals outrank ambient facial state
// because they are the most intentional, least noisy signals. Within the
// facial branches, eyes-closed excludes gaze and smile nuance, so it is
// checked first; a smile is rarer than a gaze bucket and is preserved
// over it.
func Resolve(b SignalBundle, avail Availability) (Label, bool) {
	b = b.Normalize()

	// Tight framing wins over everything when bound.
	if b.IsCloseup() && avail.Has(Closeup) {
		return Closeup, true
	}

	if b.Special.IsSet() && avail.Has(b.Special.Label()) {
		return b.Special.Label(), true
	}
	if b.LeftHand.IsSet() && avail.Has(b.LeftHand.Label()) {
		return b.LeftHand.Label(), true
	}
	if b.RightHand.IsSet() && avail.Has(b.RightHand.Label()) {
		return b.RightHand.Label(), true
	}

	// Hands may be visible without a detected face; the facial branches
	// below are only meaningful when one was.
	if !b.FacePresent {
		return "", false
	}

	switch {
	case b.EyesClosed:
		if b.IsSmiling && avail.Has(EyesClosedSmiling) {
			return EyesClosedSmiling, true
		}
		if avail.Has(EyesClosedNeutral) {
			return EyesClosedNeutral, true
		}

	case b.IsSmiling:
		if l, ok := gazeSmiling(b.Gaze); ok && avail.Has(l) {
			return l, true
		}
		if avail.Has(EyesOpenSmiling) {
			return EyesOpenSmiling, true
		}
		if avail.Has(Smiling) {
			return Smiling, true
		}

	case b.IsMouthOpen:
		// Mouth open without smiling reads as shocked.
		if avail.Has(Shocked) {
			return Shocked, true
		}

	default:
		if l, ok := gazeLabel(b.Gaze); ok && avail.Has(l) {
			return l, true
		}
		if avail.Has(EyesOpen) {
			return EyesOpen, true
		}
	}

	return "", false
}

func gazeSmiling(g GazeDirection) (Label, bool) {
	switch g {
	case GazeLeft:
		return LookingLeftSmiling, true
	case GazeRight:
		return LookingRightSmiling, true
	case GazeCenter:
		return LookingCenterSmiling, true
	}
	return "", false
}

func gazeLabel(g GazeDirection) (Label, bool) {
	switch g {
	case GazeLeft:
		return LookingLeft, true
	case GazeRight:
		return LookingRight, true
	case GazeCenter:
		return LookingCenter, true
	}
	return "", false
}
