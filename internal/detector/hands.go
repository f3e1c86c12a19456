package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// landmarkIdleTimeout is how long the sidecar process is kept alive after
// the last detection before being shut down.
const landmarkIdleTimeout = 30 * time.Second

// LandmarkService implements HandDetector by delegating to a MediaPipe
// Python sidecar process. Frames go out as length-prefixed JPEG over
// stdin; landmarks come back as one JSON line per frame on stdout.
//
// The process is started lazily on first detection and shut down after an
// idle period. The mutex serializes the pipe protocol, which also makes
// the detector safe for concurrent invocation.
type LandmarkService struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewLandmarkService creates a hand-landmark detector backed by the
// MediaPipe sidecar. It fails immediately when the service script cannot
// be found, so callers can fall back to the mock detector at startup.
func NewLandmarkService(config Config) (*LandmarkService, error) {
	if findLandmarkScript() == "" {
		return nil, fmt.Errorf("hand_landmark_service.py not found")
	}
	return &LandmarkService{config: config}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *LandmarkService) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]HandLandmarks, 0, len(response.Hands))
	for _, h := range response.Hands {
		if d.config.MaxHands > 0 && len(result) >= d.config.MaxHands {
			break
		}
		if d.config.MinConfidence > 0 && h.Score < d.config.MinConfidence {
			continue
		}
		result = append(result, h.toHandLandmarks())
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the sidecar process.
func (d *LandmarkService) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// jsonHand is the wire shape produced by the sidecar.
type jsonHand struct {
	Landmarks  [][3]float64 `json:"landmarks"`
	Handedness string       `json:"handedness"`
	Score      float64      `json:"score"`
}

func (j jsonHand) toHandLandmarks() HandLandmarks {
	h := HandLandmarks{
		Handedness: j.Handedness,
		Score:      j.Score,
	}
	for i, p := range j.Landmarks {
		if i >= NumLandmarks {
			break
		}
		h.Points[i] = Point3D{X: p[0], Y: p[1], Z: p[2]}
	}
	return h
}

func (d *LandmarkService) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findLandmarkScript()
	if scriptPath == "" {
		return fmt.Errorf("hand_landmark_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	return nil
}

func (d *LandmarkService) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *LandmarkService) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(landmarkIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findLandmarkScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/hand_landmark_service.py",
		"../scripts/hand_landmark_service.py",
		filepath.Join(execDir, "scripts/hand_landmark_service.py"),
	}
	if home, herr := os.UserHomeDir(); herr == nil {
		candidates = append(candidates,
			filepath.Join(home, ".memetracker/scripts/hand_landmark_service.py"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, aerr := filepath.Abs(path); aerr == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the executable.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
