// Package httpapi is the local status API the resident monitor exposes with
// --listen: health, run status, the last result, manual triggers and an SSE
// event stream.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, Recover, AccessLog, chimw.NoCache)

	r.Get("/health", HealthHandler{}.Health)

	rh := RunsHandler{Poller: d.Poller}
	r.Get("/status", rh.Status)
	r.Get("/runs/last", rh.Last)
	r.Post("/runs", rh.Trigger)

	r.Get("/events", EventsHandler{Hub: d.Hub}.ServeSSE)

	sh := SecretsHandler{Config: d.Config}
	r.Post("/api/secrets/{kind}", sh.Set)
	r.Delete("/api/secrets/{kind}", sh.Delete)

	return r
}

// NewServer binds the router to addr. WriteTimeout stays zero so the event
// stream is not cut off.
func NewServer(addr string, d Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
