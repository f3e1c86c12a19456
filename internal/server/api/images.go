// Package api provides HTTP API handlers for the meme tracker.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/store"
)

// maxUploadBytes caps an uploaded image at 10 MB.
const maxUploadBytes = 10 << 20

// ImagesHandler handles HTTP requests for label-to-image bindings.
type ImagesHandler struct {
	store      *store.Store
	registry   *expression.Registry
	uploadsDir string
}

// NewImagesHandler creates a new ImagesHandler. Uploaded files are stored
// under uploadsDir; new bindings are pushed to every live session in the
// registry.
func NewImagesHandler(s *store.Store, r *expression.Registry, uploadsDir string) *ImagesHandler {
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	return &ImagesHandler{
		store:      s,
		registry:   r,
		uploadsDir: uploadsDir,
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *ImagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/images or /api/images/{label}
	path := strings.TrimPrefix(r.URL.Path, "/api/images")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Unknown label names are rejected here so they never reach the
	// resolver or the store.
	label, err := expression.Parse(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.upload(w, r, label)
	case http.MethodGet:
		h.get(w, r, label)
	case http.MethodDelete:
		h.unbind(w, r, label)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type imageResponse struct {
	Label      string `json:"label"`
	Path       string `json:"path"`
	UploadedAt string `json:"uploaded_at"`
}

type listImagesResponse struct {
	Images []imageResponse `json:"images"`
}

func toImageResponse(b *store.ImageBinding) imageResponse {
	return imageResponse{
		Label:      b.Label,
		Path:       b.Path,
		UploadedAt: b.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// upload handles POST /api/images/{label}: stores the uploaded image,
// records the binding, and pushes it to every connected session.
func (h *ImagesHandler) upload(w http.ResponseWriter, r *http.Request, label expression.Label) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported image type %q", ext))
		return
	}

	if err := os.MkdirAll(h.uploadsDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create uploads directory")
		return
	}

	name := fmt.Sprintf("%s_%s%s", label, uuid.NewString(), ext)
	dst := filepath.Join(h.uploadsDir, name)

	out, err := os.Create(dst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}
	out.Close()

	if err := h.store.Images().Bind(string(label), dst); err != nil {
		os.Remove(dst)
		writeError(w, http.StatusInternalServerError, "Failed to record binding")
		return
	}

	// Make the new binding visible to clients already streaming frames.
	h.registry.Each(func(_ string, s *expression.Session) {
		s.Bind(label, dst)
	})

	binding, err := h.store.Images().Get(string(label))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read binding")
		return
	}
	writeJSON(w, http.StatusCreated, toImageResponse(binding))
}

// list handles GET /api/images and returns all bindings.
func (h *ImagesHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Images().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list images")
		return
	}

	response := listImagesResponse{
		Images: make([]imageResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Images = append(response.Images, toImageResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/images/{label}.
func (h *ImagesHandler) get(w http.ResponseWriter, r *http.Request, label expression.Label) {
	binding, err := h.store.Images().Get(string(label))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No image bound to label")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, toImageResponse(binding))
}

// unbind handles DELETE /api/images/{label}.
func (h *ImagesHandler) unbind(w http.ResponseWriter, r *http.Request, label expression.Label) {
	if err := h.store.Images().Unbind(string(label)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No image bound to label")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to unbind label")
		return
	}

	h.registry.Each(func(_ string, s *expression.Session) {
		s.Unbind(label)
	})

	writeJSON(w, http.StatusNoContent, nil)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
