// Package tray provides a macOS system tray interface for the meme tracker.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle     func(enabled bool)
	onAutoToggle func(auto bool)
	onSettings   func()
	onQuit       func()
	enabled      bool
	autoTrigger  bool
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuAuto       *systray.MenuItem
	menuExpression *systray.MenuItem
}

// New creates a new Tray instance with detection and auto-trigger enabled
// by default.
func New() *Tray {
	return &Tray{
		enabled:     true,
		autoTrigger: true,
	}
}

// OnToggle sets the callback function to be called when detection is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnAutoToggle sets the callback function to be called when auto-trigger is
// toggled.
func (t *Tray) OnAutoToggle(fn func(auto bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAutoToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("MemeTracker")
	systray.SetTooltip("MemeTracker Expression Display")

	// Create menu items
	t.menuToggle = systray.AddMenuItem("● Detection on", "Toggle expression detection")
	t.menuAuto = systray.AddMenuItemCheckbox("Auto-trigger", "Update the display automatically", true)
	systray.AddSeparator()

	t.menuExpression = systray.AddMenuItem("Expression: none", "Currently displayed expression")
	t.menuExpression.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit MemeTracker")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuAuto.ClickedCh:
				t.handleAutoToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
// It performs cleanup tasks.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the detection toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	// Update menu item text based on new state
	if enabled {
		t.menuToggle.SetTitle("● Detection on")
	} else {
		t.menuToggle.SetTitle("○ Detection off")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleAutoToggle handles the auto-trigger checkbox click.
func (t *Tray) handleAutoToggle() {
	t.mu.Lock()
	t.autoTrigger = !t.autoTrigger
	auto := t.autoTrigger

	if auto {
		t.menuAuto.Check()
	} else {
		t.menuAuto.Uncheck()
	}

	callback := t.onAutoToggle
	t.mu.Unlock()

	if callback != nil {
		callback(auto)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetExpression updates the current expression display in the menu.
func (t *Tray) SetExpression(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuExpression != nil {
		if name == "" {
			t.menuExpression.SetTitle("Expression: none")
		} else {
			t.menuExpression.SetTitle("Expression: " + name)
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// AutoTrigger returns the current auto-trigger state.
func (t *Tray) AutoTrigger() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.autoTrigger
}
