package detector

import (
	"github.com/ayusman/memetracker/internal/expression"
)

// thumbMargin is the minimum normalized y separation between thumb tip
// and thumb IP joint before the thumb counts as deliberately extended.
// Keeps a loosely curled thumb from reading as thumbs up/down.
const thumbMargin = 0.02

// raisedWristLine is the normalized y below which a wrist counts as
// raised when no face box is available for reference.
const raisedWristLine = 1.0 / 3.0

// HandGestures is the per-frame gesture classification: at most one
// gesture per hand plus an optional combined "special" gesture that
// outranks both.
type HandGestures struct {
	Left    expression.Gesture
	Right   expression.Gesture
	Special expression.Gesture
}

// ClassifyHand maps one hand's landmarks to a gesture label. Exactly one
// value is returned per hand; GestureNone means no rule matched.
//
// Rules work off tip-versus-joint ordering in normalized coordinates
// (y grows downward): an extended thumb over a closed fist reads as
// thumbs up or down, four extended fingers as an open hand, a lone index
// finger as pointing, and a closed hand as a fist.
func ClassifyHand(h *HandLandmarks) expression.Gesture {
	if h == nil {
		return expression.GestureNone
	}

	fingersUp, indexUp := h.extendedFingers()
	thumbTip := h.Points[ThumbTip]
	thumbIP := h.Points[ThumbIP]

	switch {
	case fingersUp == 0 && thumbTip.Y < thumbIP.Y-thumbMargin:
		return expression.GestureThumbsUp
	case fingersUp == 0 && thumbTip.Y > thumbIP.Y+thumbMargin:
		return expression.GestureThumbsDown
	case fingersUp >= 4:
		return expression.GestureOpenHand
	case fingersUp == 1 && indexUp:
		return expression.GesturePointing
	case fingersUp <= 1:
		return expression.GestureFist
	}

	return expression.GestureNone
}

// ClassifyHands classifies every detected hand and derives the combined
// special gesture. The face box (when present) anchors the special rules:
// a wrist above the face top counts as raised, a fingertip inside the
// padded face box counts as touching the head. Without a face the raised
// check falls back to the top third of the frame and the touching-head
// check is skipped.
func ClassifyHands(hands []HandLandmarks, face FaceResult, frameW, frameH int) HandGestures {
	g := HandGestures{
		Left:    expression.GestureNone,
		Right:   expression.GestureNone,
		Special: expression.GestureNone,
	}

	for i := range hands {
		h := &hands[i]
		gesture := ClassifyHand(h)
		// MediaPipe handedness is mirrored relative to the viewer; we
		// follow the reported label, matching the upstream convention.
		if h.Handedness == "Left" {
			g.Left = gesture
		} else {
			g.Right = gesture
		}
	}

	g.Special = classifySpecial(hands, face, frameW, frameH)
	return g
}

func classifySpecial(hands []HandLandmarks, face FaceResult, frameW, frameH int) expression.Gesture {
	if len(hands) == 0 {
		return expression.GestureNone
	}

	if face.FacePresent && frameW > 0 && frameH > 0 {
		if touchingHead(hands, face.Box, frameW, frameH) {
			return expression.GestureHandTouchingHead
		}
	}

	raised := 0
	for i := range hands {
		if wristRaised(&hands[i], face, frameH) {
			raised++
		}
	}

	switch {
	case raised >= 2:
		return expression.GestureBothHandsRaised
	case raised == 1:
		return expression.GestureOneHandRaised
	}

	return expression.GestureNone
}

// wristRaised reports whether a hand's wrist sits above the face top (or
// the upper third of the frame when no face is detected).
func wristRaised(h *HandLandmarks, face FaceResult, frameH int) bool {
	wristY := h.Points[Wrist].Y
	if face.FacePresent && frameH > 0 {
		return wristY < float64(face.Box.Y)/float64(frameH)
	}
	return wristY < raisedWristLine
}

// touchingHead reports whether any fingertip falls inside the face box
// padded by 20% on each side.
func touchingHead(hands []HandLandmarks, box expression.FaceBox, frameW, frameH int) bool {
	padX := float64(box.W) * 0.2
	padY := float64(box.H) * 0.2
	x0 := (float64(box.X) - padX) / float64(frameW)
	x1 := (float64(box.X+box.W) + padX) / float64(frameW)
	y0 := (float64(box.Y) - padY) / float64(frameH)
	y1 := (float64(box.Y+box.H) + padY) / float64(frameH)

	tips := []int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
	for i := range hands {
		for _, tip := range tips {
			p := hands[i].Points[tip]
			if p.X >= x0 && p.X <= x1 && p.Y >= y0 && p.Y <= y1 {
				return true
			}
		}
	}
	return false
}
