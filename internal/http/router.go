// Package http exposes the transcript processor and capture sessions over
// HTTP and websockets.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"futurefind-speech-service/internal/app"
	"futurefind-speech-service/internal/schema"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, hub *Hub) http.Handler {
	h := &handlers{
		app:       application,
		hub:       hub,
		validator: schema.MustNew(),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transcripts/process", h.process)
		r.Post("/interviews/questions", h.generateQuestions)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Get("/", h.listSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)
				r.Post("/start", h.startSession)
				r.Post("/stop", h.stopSession)
				r.Post("/reset", h.resetSession)
				r.Post("/results", h.sessionResults)
				r.Post("/evaluate", h.evaluateSession)
				r.Get("/ws", h.sessionSocket)
			})
		})

		r.Get("/ws", h.allSocket)
	})

	return r
}
