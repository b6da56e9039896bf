package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/faceid/internal/facedb"
)

// FacesHandler serves the enrolled identity list.
type FacesHandler struct {
	store *facedb.Store
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(store *facedb.Store) *FacesHandler {
	return &FacesHandler{store: store}
}

// faceSummary is the API view of a record; embeddings stay server-side.
type faceSummary struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns all enrolled identities.
func (h *FacesHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.store.Records()

	faces := make([]faceSummary, 0, len(records))
	for _, rec := range records {
		faces = append(faces, faceSummary{
			UID:       rec.UID,
			Name:      rec.Name,
			Dim:       len(rec.Embedding),
			CreatedAt: rec.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(faces),
		"faces": faces,
	})
}

// Get returns a single identity by name.
func (h *FacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := facedb.CanonicalName(chi.URLParam(r, "name"))

	rec, ok := h.store.Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, "no such face")
		return
	}

	respondJSON(w, http.StatusOK, faceSummary{
		UID:       rec.UID,
		Name:      rec.Name,
		Dim:       len(rec.Embedding),
		CreatedAt: rec.CreatedAt,
	})
}
