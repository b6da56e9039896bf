package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/faceid/internal/facedb"
	"github.com/kozaktomas/faceid/internal/web/handlers"
)

// Server exposes the face store and the recognition pipeline over HTTP.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer builds the HTTP server. recognizer may be nil when the models
// are not configured; the recognize endpoint then reports unavailable.
func NewServer(store *facedb.Store, recognizer handlers.Recognizer, host string, port int) *Server {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	s := &Server{router: r}
	s.setupRoutes(store, recognizer)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(store *facedb.Store, recognizer handlers.Recognizer) {
	facesHandler := handlers.NewFacesHandler(store)
	recognizeHandler := handlers.NewRecognizeHandler(recognizer)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/faces", facesHandler.List)
		r.Get("/faces/{name}", facesHandler.Get)
		r.Post("/recognize", recognizeHandler.Recognize)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
