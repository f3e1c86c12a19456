// Package app provides the desktop application pipeline for the meme
// tracker: camera frames in, resolved expression labels out.
package app

import (
	"log"
	"sync"

	"github.com/ayusman/memetracker/internal/capture"
	"github.com/ayusman/memetracker/internal/detector"
	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64
	CascadeDir   string
}

// ChangeFunc is called when the displayed expression changes. ref is the
// image reference bound to the label.
type ChangeFunc func(label expression.Label, ref string)

// App is the main application that orchestrates detection and expression
// resolution for the desktop session.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	builder  *detector.BundleBuilder
	session  *expression.Session
	onChange ChangeFunc
	enabled  bool
	mu       sync.RWMutex
	stopCh   chan struct{}
}

// New creates a new App instance with the given configuration. Real
// detectors are preferred; when the Haar cascades or the hand-landmark
// sidecar are unavailable the corresponding mock detector is used so the
// rest of the pipeline still runs.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(motionThreshold),
		session: expression.NewSession(),
	}

	var face detector.FaceDetector
	if haar, err := detector.NewHaarFaceDetector(config.CascadeDir); err == nil {
		face = haar
		log.Println("Using Haar cascade face detection")
	} else {
		log.Printf("Haar cascades not available (%v), using mock face detector", err)
		face = detector.NewMockFaceDetector()
	}

	var hands detector.HandDetector
	if svc, err := detector.NewLandmarkService(detector.DefaultConfig()); err == nil {
		hands = svc
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), hand gestures disabled", err)
	}

	a.builder = detector.NewBundleBuilder(face, hands)
	return a
}

// SetEnabled enables or disables expression detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether expression detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetBuilder replaces the detector pipeline. Used by tests to inject
// mock detectors.
func (a *App) SetBuilder(b *detector.BundleBuilder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.builder = b
}

// SetCamera replaces the camera. Used by tests to feed recorded frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// OnChange registers the callback invoked when the displayed expression
// changes.
func (a *App) OnChange(fn ChangeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// LoadBindings loads the persisted label-to-image bindings and the
// auto-trigger setting into the desktop session.
func (a *App) LoadBindings() error {
	if a.config.Store == nil {
		return nil
	}

	bindings, err := a.config.Store.Images().List()
	if err != nil {
		return err
	}
	for _, b := range bindings {
		label, perr := expression.Parse(b.Label)
		if perr != nil {
			log.Printf("Skipping binding with unknown label %q", b.Label)
			continue
		}
		a.session.Bind(label, b.Path)
	}

	auto, err := a.config.Store.Settings().GetBool(store.SettingAutoTrigger, true)
	if err != nil {
		return err
	}
	a.session.SetAutoTrigger(auto)

	log.Printf("Loaded %d image bindings from database", len(bindings))
	return nil
}

// Session returns the desktop session.
func (a *App) Session() *expression.Session {
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Builder returns the detector pipeline.
func (a *App) Builder() *detector.BundleBuilder {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.builder
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Start begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.builder != nil {
		if err := a.builder.Close(); err != nil {
			log.Printf("Error closing detectors: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}
