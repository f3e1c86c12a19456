package app

import (
	"log"
	"time"
)

// runPipeline is the main detection loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected, switch to active mode (activeFPS=15)
// 3. Build a signal bundle from the frame (face, eyes, smile, mouth, hands)
// 4. Feed the bundle to the session to resolve the expression
// 5. Notify the change callback when the displayed expression flips
// 6. After 2s no motion, switch back to idle mode
func (a *App) runPipeline() {
	// Track whether we're in active mode
	activeMode := false

	// Track the last motion detection time
	lastMotionTime := time.Now()

	// Frame interval based on current FPS
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			// Skip processing if detection is disabled
			if !a.IsEnabled() {
				continue
			}

			camera := a.Camera()

			// Read a frame from the camera
			frame, err := camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				// Switch to active mode if not already
				if !activeMode {
					activeMode = true
					camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				// Check if we should switch back to idle mode
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// Skip further processing if not in active mode
			if !activeMode {
				frame.Close()
				continue
			}

			// Step 2: Signal extraction
			bundle, err := a.Builder().Build(frame)
			frame.Close() // Done with the frame

			if err != nil {
				log.Printf("Error analyzing frame: %v", err)
				continue
			}

			// Step 3: Expression resolution with hysteresis
			label, changed := a.session.Process(bundle)
			if !changed {
				continue
			}

			ref, _ := a.session.ImageRef()
			log.Printf("Expression changed: %s", label)

			a.mu.RLock()
			fn := a.onChange
			a.mu.RUnlock()
			if fn != nil {
				fn(label, ref)
			}
		}
	}
}
