// Package server exposes live flatmol viewers over HTTP.
//
// Each connected viewer is a session: a persisted state snapshot plus an
// in-process [render.Viewer] replayed from it on demand. Clients stream
// frames in, adjust selection and camera, and pull rendered images back
// out. It is the REST reduction of the notebook live mode.
//
// The render core is single-threaded by design, so every session carries
// its own mutex and all viewer work happens under it; concurrency ends
// at this boundary and never enters pkg/render.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/session"
	"github.com/flatmol/flatmol/pkg/state"
)

// renderCacheTTL bounds how long rendered session artifacts stay cached.
// Session state changes rotate the cache key, so stale entries just age out.
const renderCacheTTL = time.Hour

// Server routes live-viewer requests onto per-session viewers.
type Server struct {
	store  session.Store
	log    *log.Logger
	ttl    time.Duration
	config render.Config

	// artifacts caches rendered images keyed by session state, so
	// repeated pulls of an unchanged view skip the render pass. Nil
	// disables caching.
	artifacts cache.Cache
	keyer     cache.Keyer

	mu      sync.Mutex
	viewers map[string]*liveViewer
}

// liveViewer serializes access to one session's viewer.
type liveViewer struct {
	mu sync.Mutex
	v  *render.Viewer
}

// Option configures the server.
type Option func(*Server)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithConfig sets the render configuration new sessions start from.
func WithConfig(cfg render.Config) Option {
	return func(s *Server) { s.config = cfg }
}

// WithArtifactCache caches rendered images in the given backend.
// Shared deployments point this at redis so replicas reuse renders.
func WithArtifactCache(c cache.Cache) Option {
	return func(s *Server) {
		s.artifacts = c
		s.keyer = cache.NewDefaultKeyer()
	}
}

// New creates a server over the given session store.
func New(store session.Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		store:   store,
		log:     logger,
		ttl:     session.DefaultTTL,
		config:  render.DefaultConfig(),
		viewers: make(map[string]*liveViewer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.Post("/objects/{object}/frames", s.handleAppendFrame)
			r.Put("/selection", s.handleSetSelection)
			r.Put("/config", s.handleSetConfig)
			r.Post("/view", s.handleView)

			r.Get("/state", s.handleGetState)
			r.Put("/state", s.handlePutState)

			r.Get("/render", s.handleRender)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// viewer resolves the live viewer for a session, replaying the stored
// state on first access after a restart.
func (s *Server) viewer(r *http.Request, id string) (*liveViewer, *session.Session, error) {
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	lv, ok := s.viewers[id]
	if !ok {
		lv = &liveViewer{}
		s.viewers[id] = lv
	}
	s.mu.Unlock()

	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.v == nil {
		if len(sess.State) > 0 {
			snap, err := state.Decode(bytesReader(sess.State))
			if err != nil {
				return nil, nil, err
			}
			lv.v, err = state.Restore(snap, s.log)
			if err != nil {
				return nil, nil, err
			}
		} else {
			lv.v = render.NewViewer(s.config, s.log)
		}
	}
	return lv, sess, nil
}

// persist writes the viewer's current state back into the session.
// Callers hold the liveViewer mutex.
func (s *Server) persist(r *http.Request, sess *session.Session, lv *liveViewer) error {
	data, err := encodeState(state.Capture(lv.v))
	if err != nil {
		return err
	}
	sess.State = data
	sess.Touch(s.ttl)
	return s.store.Put(r.Context(), sess)
}

// drop forgets the in-process viewer for a session.
func (s *Server) drop(id string) {
	s.mu.Lock()
	delete(s.viewers, id)
	s.mu.Unlock()
}
