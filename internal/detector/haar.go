package detector

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/expression"
)

// Cascade detection parameters. Scale factor and neighbor counts per
// cascade; the smile cascade needs a much stricter neighbor count to
// suppress false positives.
const (
	faceScale      = 1.1
	faceNeighbors  = 4
	eyeScale       = 1.1
	eyeNeighbors   = 5
	smileScale     = 1.8
	smileNeighbors = 20

	// mouthOpenRatio is the edge-pixel density in the lower face region
	// above which the mouth counts as open.
	mouthOpenRatio = 0.02
)

// cascadeFiles names the three cascade models the detector needs.
var cascadeFiles = []string{
	"haarcascade_frontalface_default.xml",
	"haarcascade_eye.xml",
	"haarcascade_smile.xml",
}

// HaarFaceDetector implements FaceDetector with OpenCV Haar cascades for
// face, eye, and smile detection. Classifiers are loaded once at
// construction and owned by the detector; the mutex serializes Analyze
// calls because cascade classifiers are not reentrant.
type HaarFaceDetector struct {
	face  gocv.CascadeClassifier
	eye   gocv.CascadeClassifier
	smile gocv.CascadeClassifier
	mu    sync.Mutex
}

// NewHaarFaceDetector loads the face, eye, and smile cascades from
// cascadeDir (or the usual OpenCV data locations when empty) and returns
// a ready detector. Loading is explicit and up front so a missing model
// fails at startup, not mid-stream.
func NewHaarFaceDetector(cascadeDir string) (*HaarFaceDetector, error) {
	dir, err := findCascadeDir(cascadeDir)
	if err != nil {
		return nil, err
	}

	d := &HaarFaceDetector{
		face:  gocv.NewCascadeClassifier(),
		eye:   gocv.NewCascadeClassifier(),
		smile: gocv.NewCascadeClassifier(),
	}

	classifiers := map[string]*gocv.CascadeClassifier{
		cascadeFiles[0]: &d.face,
		cascadeFiles[1]: &d.eye,
		cascadeFiles[2]: &d.smile,
	}
	for file, c := range classifiers {
		path := filepath.Join(dir, file)
		if !c.Load(path) {
			d.Close()
			return nil, fmt.Errorf("load cascade %s: failed", path)
		}
	}

	return d, nil
}

// Analyze runs face, eye, smile, and mouth analysis on the frame and
// returns the structured result. No detectable face is a normal result,
// not an error.
func (d *HaarFaceDetector) Analyze(frame *gocv.Mat) (FaceResult, error) {
	if frame == nil || frame.Empty() {
		return FaceResult{}, fmt.Errorf("analyze: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)

	faces := d.face.DetectMultiScaleWithParams(
		gray, faceScale, faceNeighbors, 0, image.Point{}, image.Point{})
	if len(faces) == 0 {
		return FaceResult{Gaze: expression.GazeCenter}, nil
	}

	// Track the largest face only; smaller detections are usually noise
	// or background faces.
	box := largestRect(faces)

	faceROI := gray.Region(box)
	defer faceROI.Close()

	result := FaceResult{
		FacePresent: true,
		Box: expression.FaceBox{
			X: box.Min.X,
			Y: box.Min.Y,
			W: box.Dx(),
			H: box.Dy(),
		},
		Gaze: expression.GazeCenter,
	}

	eyes := d.eye.DetectMultiScaleWithParams(
		faceROI, eyeScale, eyeNeighbors, 0, image.Point{}, image.Point{})
	result.EyesClosed = len(eyes) == 0
	if len(eyes) >= 2 {
		result.Gaze = gazeFromEyes(eyes, box.Dx())
	}

	smiles := d.smile.DetectMultiScaleWithParams(
		faceROI, smileScale, smileNeighbors, 0, image.Point{}, image.Point{})
	result.SmileCount = len(smiles)
	result.IsSmiling = len(smiles) > 0

	result.MouthRatio = mouthEdgeRatio(faceROI)
	result.IsMouthOpen = result.MouthRatio > mouthOpenRatio

	return result, nil
}

// Close releases the cascade classifiers.
func (d *HaarFaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.face.Close()
	d.eye.Close()
	d.smile.Close()
	return nil
}

// gazeFromEyes buckets the gaze direction from the horizontal positions
// of the two leftmost-sorted eyes within the face box: both eyes shifted
// into the outer thirds read as looking left or right.
func gazeFromEyes(eyes []image.Rectangle, faceWidth int) expression.GazeDirection {
	sorted := make([]image.Rectangle, len(eyes))
	copy(sorted, eyes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Min.X < sorted[j].Min.X
	})

	leftCenter := sorted[0].Min.X + sorted[0].Dx()/2
	rightCenter := sorted[1].Min.X + sorted[1].Dx()/2

	switch {
	case leftCenter < faceWidth/3:
		return expression.GazeLeft
	case rightCenter > 2*faceWidth/3:
		return expression.GazeRight
	default:
		return expression.GazeCenter
	}
}

// mouthEdgeRatio measures edge-pixel density in the lower center of the
// face (60–90% height, 20–80% width), where an open mouth produces a
// dense edge response.
func mouthEdgeRatio(faceROI gocv.Mat) float64 {
	h := faceROI.Rows()
	w := faceROI.Cols()

	region := image.Rect(w*2/10, h*6/10, w*8/10, h*9/10)
	if region.Dx() <= 0 || region.Dy() <= 0 {
		return 0
	}

	mouth := faceROI.Region(region)
	defer mouth.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mouth, &edges, 50, 150)

	total := edges.Rows() * edges.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(edges)) / float64(total)
}

func largestRect(rects []image.Rectangle) image.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}

// findCascadeDir locates the Haar cascade directory: the explicit dir if
// given, else common OpenCV install locations, else ~/.memetracker/cascades.
func findCascadeDir(dir string) (string, error) {
	if dir != "" {
		if _, err := os.Stat(filepath.Join(dir, cascadeFiles[0])); err != nil {
			return "", fmt.Errorf("cascade dir %s: %w", dir, err)
		}
		return dir, nil
	}

	candidates := []string{
		"/usr/share/opencv4/haarcascades",
		"/usr/local/share/opencv4/haarcascades",
		"/opt/homebrew/share/opencv4/haarcascades",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".memetracker", "cascades"))
	}

	for _, c := range candidates {
		if _, err := os.Stat(filepath.Join(c, cascadeFiles[0])); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("haar cascades not found; set the cascade directory explicitly")
}
