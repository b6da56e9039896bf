package handlers

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/faceid/internal/recognize"
)

// maxUploadBytes caps recognize uploads at 16 MiB.
const maxUploadBytes = 16 << 20

// Recognizer probes one frame against the enrolled gallery.
type Recognizer interface {
	Identify(ctx context.Context, frame image.Image) (recognize.Identification, error)
}

// RecognizeHandler accepts an image upload and returns the best gallery
// match.
type RecognizeHandler struct {
	recognizer Recognizer
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(recognizer Recognizer) *RecognizeHandler {
	return &RecognizeHandler{recognizer: recognizer}
}

// Recognize handles POST /recognize with a multipart "file" field.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if h.recognizer == nil {
		respondError(w, http.StatusServiceUnavailable, "recognition models not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	frame, _, err := image.Decode(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}

	ident, err := h.recognizer.Identify(r.Context(), frame)
	if errors.Is(err, recognize.ErrNoFace) {
		respondJSON(w, http.StatusOK, map[string]any{"match": nil, "reason": "no face detected"})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	resp := map[string]any{
		"box": map[string]int{
			"x1": ident.Box.X1,
			"y1": ident.Box.Y1,
			"x2": ident.Box.X2,
			"y2": ident.Box.Y2,
		},
		"distance": ident.Best.Distance,
	}
	if ident.Known {
		resp["match"] = ident.Best.Record.Name
	} else {
		resp["match"] = nil
	}

	respondJSON(w, http.StatusOK, resp)
}
