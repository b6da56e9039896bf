package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/faceid/internal/facedb"
)

func seededStore(t *testing.T) *facedb.Store {
	t.Helper()

	store, err := facedb.Open(filepath.Join(t.TempDir(), "faces.json"), 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		rec := facedb.Record{
			UID:       "uid-" + name,
			Name:      name,
			Embedding: []float32{1, 0, 0, 0},
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := store.Append(rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func facesRouter(store *facedb.Store) http.Handler {
	h := NewFacesHandler(store)
	r := chi.NewRouter()
	r.Get("/faces", h.List)
	r.Get("/faces/{name}", h.Get)
	return r
}

func TestFacesList(t *testing.T) {
	router := facesRouter(seededStore(t))

	req := httptest.NewRequest(http.MethodGet, "/faces", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	raw := rec.Body.Bytes()
	if strings.Contains(string(raw), "embedding") {
		t.Error("response leaks embedding vectors")
	}

	var body struct {
		Count int `json:"count"`
		Faces []struct {
			UID  string `json:"uid"`
			Name string `json:"name"`
			Dim  int    `json:"dim"`
		} `json:"faces"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}

	if body.Count != 2 || len(body.Faces) != 2 {
		t.Fatalf("count = %d, faces = %d, want 2", body.Count, len(body.Faces))
	}
	if body.Faces[0].Name != "Alice" || body.Faces[0].Dim != 4 {
		t.Errorf("first face = %+v, want Alice dim 4", body.Faces[0])
	}

}

func TestFacesListEmpty(t *testing.T) {
	store, err := facedb.Open(filepath.Join(t.TempDir(), "faces.json"), 4)
	if err != nil {
		t.Fatal(err)
	}
	router := facesRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/faces", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int   `json:"count"`
		Faces []any `json:"faces"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 || body.Faces == nil {
		t.Errorf("body = %+v, want count 0 with an empty (not null) faces array", body)
	}
}

func TestFacesGet(t *testing.T) {
	router := facesRouter(seededStore(t))

	req := httptest.NewRequest(http.MethodGet, "/faces/Alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var face struct {
		UID  string `json:"uid"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&face); err != nil {
		t.Fatal(err)
	}
	if face.UID != "uid-Alice" || face.Name != "Alice" {
		t.Errorf("face = %+v, want uid-Alice/Alice", face)
	}
}

func TestFacesGetNotFound(t *testing.T) {
	router := facesRouter(seededStore(t))

	req := httptest.NewRequest(http.MethodGet, "/faces/Mallory", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}
