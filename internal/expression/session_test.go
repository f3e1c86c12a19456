package expression

import "testing"

func TestSession_ApplyNewLabel(t *testing.T) {
	s := NewSession()

	changed := s.Apply(Smiling, true)
	if !changed {
		t.Error("expected display change for first resolved label")
	}

	current, ok := s.Current()
	if !ok || current != Smiling {
		t.Errorf("current = %q, ok = %v, want smiling", current, ok)
	}
}

func TestSession_ApplySameLabelNoChange(t *testing.T) {
	s := NewSession()
	s.Apply(Smiling, true)

	if s.Apply(Smiling, true) {
		t.Error("re-applying the displayed label should not report a change")
	}
}

func TestSession_HysteresisRetainsLastLabel(t *testing.T) {
	// Frame n resolves to a label, frame n+1 resolves to nothing: the
	// display must keep showing the frame-n label, never blank.
	s := NewSession()
	s.Apply(ThumbsUp, true)

	changed := s.Apply("", false)
	if changed {
		t.Error("a dropout frame should not report a display change")
	}

	current, ok := s.Current()
	if !ok || current != ThumbsUp {
		t.Errorf("display blanked on dropout: current = %q, ok = %v", current, ok)
	}
}

func TestSession_HysteresisSurvivesDropoutRun(t *testing.T) {
	s := NewSession()
	s.Apply(LookingLeft, true)

	for i := 0; i < 30; i++ {
		s.Apply("", false)
	}

	if current, _ := s.Current(); current != LookingLeft {
		t.Errorf("expected looking_left retained across dropouts, got %q", current)
	}

	// A newly resolved label still replaces it.
	if !s.Apply(Shocked, true) {
		t.Error("expected display change for a new label after dropouts")
	}
	if current, _ := s.Current(); current != Shocked {
		t.Errorf("expected shocked, got %q", current)
	}
}

func TestSession_IdleStaysIdle(t *testing.T) {
	// A session that has never shown anything stays idle through any run
	// of empty resolutions.
	s := NewSession()

	for i := 0; i < 20; i++ {
		if s.Apply("", false) {
			t.Fatal("idle session reported a display change on an empty proposal")
		}
	}

	if current, ok := s.Current(); ok {
		t.Errorf("idle session has current label %q, want none", current)
	}
}

func TestSession_AutoTriggerOffFreezesDisplay(t *testing.T) {
	s := NewSession()
	s.Apply(Smiling, true)
	s.SetAutoTrigger(false)

	if s.Apply(ThumbsUp, true) {
		t.Error("proposal applied while auto-trigger is off")
	}
	if current, _ := s.Current(); current != Smiling {
		t.Errorf("display moved while auto-trigger off: got %q", current)
	}

	// Re-enabling resumes updates.
	s.SetAutoTrigger(true)
	if !s.Apply(ThumbsUp, true) {
		t.Error("expected display change after re-enabling auto-trigger")
	}
}

func TestSession_ProcessEndToEnd(t *testing.T) {
	s := NewSession()
	s.Bind(LookingCenterSmiling, "images/lcs.png")
	s.Bind(Smiling, "images/smiling.png")

	b := faceBundle()
	b.IsSmiling = true

	current, changed := s.Process(b)
	if !changed {
		t.Error("expected first processed frame to change the display")
	}
	if current != LookingCenterSmiling {
		t.Errorf("current = %q, want looking_center_smiling", current)
	}

	// A frame with nothing detected keeps the label on screen.
	current, changed = s.Process(SignalBundle{FrameWidth: 640, FrameHeight: 480})
	if changed {
		t.Error("dropout frame should not change the display")
	}
	if current != LookingCenterSmiling {
		t.Errorf("dropout blanked the display: got %q", current)
	}
}

func TestSession_UnbindLeavesDisplay(t *testing.T) {
	s := NewSession()
	s.Bind(Smiling, "images/smiling.png")

	b := faceBundle()
	b.IsSmiling = true
	s.Process(b)

	s.Unbind(Smiling)

	// The label stays on screen through hysteresis even though the
	// binding is gone; its image reference is no longer resolvable.
	if current, _ := s.Current(); current != Smiling {
		t.Errorf("unbind should not clear the display, got %q", current)
	}
	if _, ok := s.ImageRef(); ok {
		t.Error("image reference should be gone after unbind")
	}
}

func TestSession_ReplaceBindings(t *testing.T) {
	s := NewSession()
	s.Bind(Smiling, "a.png")
	s.Bind(Fist, "b.png")

	s.ReplaceBindings(Availability{ThumbsUp: "c.png"})

	a := s.Availability()
	if len(a) != 1 || !a.Has(ThumbsUp) {
		t.Errorf("availability after replace = %v, want only thumbs_up", a)
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()

	s := r.Connect("client-1")
	if s == nil {
		t.Fatal("Connect returned nil session")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	got, err := r.Get("client-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get returned a different session than Connect")
	}

	r.Disconnect("client-1")
	if r.Len() != 0 {
		t.Errorf("Len() after disconnect = %d, want 0", r.Len())
	}

	// Disconnect is idempotent.
	r.Disconnect("client-1")

	// Operations against a removed session fail cleanly.
	if _, err := r.Get("client-1"); err != ErrSessionClosed {
		t.Errorf("Get after disconnect error = %v, want ErrSessionClosed", err)
	}
}

func TestRegistry_ReconnectReplacesSession(t *testing.T) {
	r := NewRegistry()

	first := r.Connect("client-1")
	first.Bind(Smiling, "a.png")

	second := r.Connect("client-1")
	if second == first {
		t.Error("reconnect should produce a fresh session")
	}
	if second.Availability().Has(Smiling) {
		t.Error("fresh session inherited bindings from the old one")
	}
}

func TestRegistry_Each(t *testing.T) {
	r := NewRegistry()
	r.Connect("a")
	r.Connect("b")

	seen := make(map[string]bool)
	r.Each(func(id string, s *Session) {
		seen[id] = true
		s.Bind(Closeup, "closeup.png")
	})

	if !seen["a"] || !seen["b"] {
		t.Errorf("Each visited %v, want both sessions", seen)
	}

	for _, id := range []string{"a", "b"} {
		s, _ := r.Get(id)
		if !s.Availability().Has(Closeup) {
			t.Errorf("session %s missing binding pushed via Each", id)
		}
	}
}

func TestRegistry_AdoptExternalSession(t *testing.T) {
	r := NewRegistry()
	desktop := NewSession()
	desktop.Bind(Smiling, "smiling.png")

	r.Adopt("desktop", desktop)

	got, err := r.Get("desktop")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != desktop {
		t.Error("Adopt should register the session instance it was given")
	}

	// Binding pushes reach the adopted session like any other
	r.Each(func(_ string, s *Session) {
		s.Bind(ThumbsUp, "up.png")
	})
	if !desktop.Availability().Has(ThumbsUp) {
		t.Error("adopted session missing binding pushed via Each")
	}
}
