package server

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/memetracker/internal/detector"
	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameHandler runs the per-client frame-processing loop over WebSocket:
// each incoming frame is decoded, pushed through the detectors, resolved
// to an expression, and answered with the label now driving the client's
// display.
//
// One goroutine serves each connection, so a session's frames are
// processed strictly in order: a frame is fully resolved and committed
// before the next is read.
type FrameHandler struct {
	builder  *detector.BundleBuilder
	registry *expression.Registry
	store    *store.Store
}

// NewFrameHandler creates a FrameHandler over the given detector
// pipeline and session registry. store may be nil; sessions then start
// with no bindings.
func NewFrameHandler(b *detector.BundleBuilder, r *expression.Registry, st *store.Store) *FrameHandler {
	return &FrameHandler{
		builder:  b,
		registry: r,
		store:    st,
	}
}

// frameRequest is one client message on the socket.
type frameRequest struct {
	Frame       string `json:"frame"` // base64-encoded JPEG
	AutoTrigger *bool  `json:"auto_trigger,omitempty"`
}

// frameResponse is the reply for one processed frame.
type frameResponse struct {
	Success    bool       `json:"success"`
	Expression string     `json:"expression,omitempty"`
	ImagePath  string     `json:"image_path,omitempty"`
	Changed    bool       `json:"changed"`
	Error      string     `json:"error,omitempty"`
	Debug      *debugInfo `json:"debug,omitempty"`
}

// debugInfo mirrors the raw signal bundle for the client's diagnostics
// panel.
type debugInfo struct {
	FaceDetected bool     `json:"face_detected"`
	FaceRatio    float64  `json:"face_ratio"`
	Smiling      bool     `json:"smiling"`
	MouthOpen    bool     `json:"mouth_open"`
	MouthRatio   float64  `json:"mouth_ratio"`
	EyesClosed   bool     `json:"eyes_closed"`
	Gaze         string   `json:"gaze_direction"`
	HandGestures []string `json:"hand_gestures"`
}

// ServeHTTP upgrades the connection and runs the frame loop until the
// client disconnects. The session is registered on connect, seeded from
// the stored bindings, and removed on disconnect.
func (h *FrameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	clientID := strings.TrimPrefix(r.URL.Path, "/ws/")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	session := h.registry.Connect(clientID)
	defer h.registry.Disconnect(clientID)
	h.seedSession(session)

	log.Printf("client %s connected", clientID)
	defer log.Printf("client %s disconnected", clientID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		resp := h.processMessage(session, data)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// seedSession copies the persisted label bindings into a fresh session.
func (h *FrameHandler) seedSession(session *expression.Session) {
	if h.store == nil {
		return
	}
	bindings, err := h.store.Images().List()
	if err != nil {
		log.Printf("load image bindings: %v", err)
		return
	}
	for _, b := range bindings {
		session.Bind(expression.Label(b.Label), b.Path)
	}
}

// processMessage handles one frame message. Every failure mode is a
// per-frame error: the reply carries it and the loop moves on, so no
// malformed payload or detector hiccup ever tears down the session.
func (h *FrameHandler) processMessage(session *expression.Session, data []byte) frameResponse {
	var req frameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return frameResponse{Error: "invalid message"}
	}

	if req.AutoTrigger != nil {
		session.SetAutoTrigger(*req.AutoTrigger)
	}

	raw, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil || len(raw) == 0 {
		return frameResponse{Error: "invalid frame data"}
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		return frameResponse{Error: "undecodable frame"}
	}
	defer mat.Close()

	bundle, err := h.builder.Build(&mat)
	if err != nil {
		// Detector failure is fatal to this frame only; the session
		// keeps accepting frames and recovers with the detector.
		log.Printf("frame processing: %v", err)
		return frameResponse{Error: "detection unavailable"}
	}

	current, changed := session.Process(bundle)

	resp := frameResponse{
		Success:    true,
		Expression: string(current),
		Changed:    changed,
		Debug:      newDebugInfo(bundle),
	}
	if ref, ok := session.ImageRef(); ok {
		resp.ImagePath = ref
	}
	return resp
}

func newDebugInfo(b expression.SignalBundle) *debugInfo {
	var gestures []string
	for _, g := range []expression.Gesture{b.Special, b.LeftHand, b.RightHand} {
		if g.IsSet() {
			gestures = append(gestures, string(g))
		}
	}

	return &debugInfo{
		FaceDetected: b.FacePresent,
		FaceRatio:    b.FaceRatio(),
		Smiling:      b.IsSmiling,
		MouthOpen:    b.IsMouthOpen,
		MouthRatio:   b.MouthRatio,
		EyesClosed:   b.EyesClosed,
		Gaze:         string(b.Gaze),
		HandGestures: gestures,
	}
}
