package expression

import "sync"

// Session is the per-client (or per-desktop-session) record of which
// images are bound and which label is currently driving the display.
//
// Frame processing is strictly sequential per session — Process is never
// invoked concurrently against the same session. The mutex exists because
// binding mutations arrive from a different goroutine (upload and preset
// HTTP handlers) than the frame loop.
type Session struct {
	mu           sync.RWMutex
	availability Availability
	current      Label
	lastShown    Label // last non-empty label that made it to the display
	autoTrigger  bool
}

// NewSession creates a session with no bound images, no displayed label,
// and automatic triggering enabled.
func NewSession() *Session {
	return &Session{
		availability: make(Availability),
		autoTrigger:  true,
	}
}

// Bind associates a label with an image reference, making it eligible for
// selection by the resolver.
func (s *Session) Bind(l Label, ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability[l] = ref
}

// Unbind removes the binding for a label. The current display is left
// alone; hysteresis keeps showing the last resolved label until a new one
// replaces it.
func (s *Session) Unbind(l Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.availability, l)
}

// ReplaceBindings swaps in a whole new availability table. Used by preset
// loads with replace semantics.
func (s *Session) ReplaceBindings(a Availability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availability = a.Clone()
}

// Availability returns a snapshot of the session's availability table.
func (s *Session) Availability() Availability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availability.Clone()
}

// Current returns the label currently driving the display, or ok=false if
// nothing has ever been shown.
func (s *Session) Current() (Label, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// ImageRef returns the image reference for the currently displayed label.
func (s *Session) ImageRef() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return "", false
	}
	ref, ok := s.availability[s.current]
	return ref, ok
}

// AutoTrigger reports whether resolver proposals are applied to the
// display automatically.
func (s *Session) AutoTrigger() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoTrigger
}

// SetAutoTrigger toggles automatic display updates. While disabled the
// display is externally controlled and proposals are ignored.
func (s *Session) SetAutoTrigger(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoTrigger = on
}

// Apply commits the resolver's proposal to the session and reports
// whether the displayed label changed.
//
// The hysteresis rule is the load-bearing invariant of the whole system:
// a frame that resolves to nothing must never blank the display. One
// dropped detection would otherwise flicker the reaction image off every
// time a detector missed. So an empty proposal retains the last shown
// label, and only a newly resolved label replaces it.
func (s *Session) Apply(proposed Label, ok bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(proposed, ok)
}

func (s *Session) apply(proposed Label, ok bool) bool {
	if !s.autoTrigger {
		return false
	}

	if !ok || proposed == "" {
		if s.lastShown != "" {
			// Transient dropout: keep showing what we showed.
			s.current = s.lastShown
		}
		return false
	}

	if proposed == s.current {
		return false
	}

	s.current = proposed
	s.lastShown = proposed
	return true
}

// Process resolves one frame's bundle against the session and applies the
// hysteresis update. It returns the label now driving the display (empty
// while the session is idle) and whether this frame changed it.
func (s *Session) Process(b SignalBundle) (Label, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposed, ok := Resolve(b, s.availability)
	changed := s.apply(proposed, ok)
	return s.current, changed
}
