// Package httpapi exposes one live, lock-guarded elevator over HTTP: its
// tunables, admission, dispatch and status.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// Server serves the elevator API.
type Server struct {
	elevator *iosched.Locked
	start    time.Time

	// newID names requests submitted without an ID.
	newID func() string

	// pending holds the IDs admitted and not yet dispatched. Only touched
	// under the elevator lock (inside Locked.Do).
	pending map[string]*iosched.Request
}

// New creates a Server around e.
func New(e *iosched.Locked) *Server {
	return &Server{
		elevator: e,
		start:    time.Now(),
		newID:    uuid.NewString,
		pending:  make(map[string]*iosched.Request),
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(api chi.Router) {
		api.Get("/status", s.handleStatus)
		api.Get("/attrs", s.handleListAttrs)
		api.Get("/attrs/{name}", s.handleShowAttr)
		api.Put("/attrs/{name}", s.handleStoreAttr)
		api.Post("/requests", s.handleAdmit)
		api.Post("/dispatch", s.handleDispatch)
	})
	return r
}

// Pending returns the number of admitted requests not yet dispatched.
func (s *Server) Pending() int {
	n := 0
	s.elevator.Do(func(iosched.Elevator) { n = len(s.pending) })
	return n
}

// now is the arrival clock: microseconds since the server started.
func (s *Server) now() int64 {
	return time.Since(s.start).Microseconds()
}

// requestLogger logs each request through logrus at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(started),
		}).Debug("http request")
	})
}
