package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/store"
)

// PresetsHandler handles HTTP requests for preset resources: named
// snapshots of the label-to-image table.
type PresetsHandler struct {
	store    *store.Store
	registry *expression.Registry
}

// NewPresetsHandler creates a new PresetsHandler with the given store
// and session registry.
func NewPresetsHandler(s *store.Store, r *expression.Registry) *PresetsHandler {
	return &PresetsHandler{store: s, registry: r}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *PresetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/presets, /api/presets/{name},
	// /api/presets/{name}/load
	path := strings.TrimPrefix(r.URL.Path, "/api/presets")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.save(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if name, ok := strings.CutSuffix(path, "/load"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.load(w, r, name)
		return
	}

	name := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, name)
	case http.MethodDelete:
		h.delete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type savePresetRequest struct {
	Name string `json:"name"`
}

type presetResponse struct {
	Name        string            `json:"name"`
	Created     string            `json:"created"`
	TotalImages int               `json:"total_images"`
	Entries     map[string]string `json:"entries,omitempty"`
}

type listPresetsResponse struct {
	Presets []presetResponse `json:"presets"`
}

type loadPresetResponse struct {
	Name    string   `json:"name"`
	Loaded  int      `json:"loaded"`
	Skipped []string `json:"skipped,omitempty"`
}

func toPresetResponse(p *store.Preset, withEntries bool) presetResponse {
	resp := presetResponse{
		Name:        p.Name,
		Created:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalImages: p.TotalImages,
	}
	if withEntries {
		resp.Entries = p.Entries
	}
	return resp
}

// validPresetName allows letters, digits, underscores, and dashes only,
// since the name ends up in API paths.
func validPresetName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// save handles POST /api/presets: snapshots the current bindings under
// the requested name.
func (h *PresetsHandler) save(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validPresetName(req.Name) {
		writeError(w, http.StatusBadRequest, "Preset name must contain only letters, numbers, underscores, and dashes")
		return
	}

	bindings, err := h.store.Images().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read bindings")
		return
	}
	entries := make(map[string]string, len(bindings))
	for _, b := range bindings {
		entries[b.Label] = b.Path
	}

	preset, err := h.store.Presets().Save(req.Name, entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save preset")
		return
	}

	writeJSON(w, http.StatusCreated, toPresetResponse(preset, false))
}

// list handles GET /api/presets and returns preset metadata.
func (h *PresetsHandler) list(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.Presets().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}

	response := listPresetsResponse{
		Presets: make([]presetResponse, 0, len(presets)),
	}
	for _, p := range presets {
		response.Presets = append(response.Presets, toPresetResponse(p, false))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/presets/{name} and returns the preset with its
// entries.
func (h *PresetsHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	preset, err := h.store.Presets().Get(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(preset, true))
}

// load handles POST /api/presets/{name}/load: applies the preset's
// bindings to the store and every live session.
//
// Default semantics are replace: all current bindings are cleared, then
// the preset's entries are applied. Passing ?merge=true keeps bindings
// for labels the preset does not name. Entries whose image file no
// longer resolves are skipped and reported rather than bound.
func (h *PresetsHandler) load(w http.ResponseWriter, r *http.Request, name string) {
	preset, err := h.store.Presets().Get(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	merge := r.URL.Query().Get("merge") == "true"

	valid := make(map[string]string, len(preset.Entries))
	var skipped []string
	for label, path := range preset.Entries {
		if _, err := expression.Parse(label); err != nil {
			skipped = append(skipped, label)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			skipped = append(skipped, label)
			continue
		}
		valid[label] = path
	}

	if merge {
		for label, path := range valid {
			if err := h.store.Images().Bind(label, path); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to apply preset")
				return
			}
		}
		h.registry.Each(func(_ string, s *expression.Session) {
			for label, path := range valid {
				s.Bind(expression.Label(label), path)
			}
		})
	} else {
		if err := h.store.Images().ReplaceAll(valid); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply preset")
			return
		}
		avail := make(expression.Availability, len(valid))
		for label, path := range valid {
			avail[expression.Label(label)] = path
		}
		h.registry.Each(func(_ string, s *expression.Session) {
			s.ReplaceBindings(avail)
		})
	}

	writeJSON(w, http.StatusOK, loadPresetResponse{
		Name:    name,
		Loaded:  len(valid),
		Skipped: skipped,
	})
}

// delete handles DELETE /api/presets/{name}.
func (h *PresetsHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.Presets().Delete(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete preset")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
