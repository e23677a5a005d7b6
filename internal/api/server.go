// Package api exposes constructions over HTTP.
//
// The server keeps a live session per named construction: the in-memory
// graph, plus a locus runner holding per-target display state. Mutations
// (add, move, remove) act on the session; an explicit save persists the
// session back to the store.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loci-dev/loci/pkg/cache"
	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/implicit"
	"github.com/loci-dev/loci/pkg/locus"
	"github.com/loci-dev/loci/pkg/store"
)

// Options configures a Server.
type Options struct {
	Store  store.Store
	Cache  cache.Cache
	Engine locus.Engine
	Logger *log.Logger

	// TraceOpts tune locus curve tracing for all sessions.
	TraceOpts implicit.Options
	// CacheTTL bounds cache entries written by locus runners.
	CacheTTL time.Duration
	// Viewport is the default render and trace region.
	Viewport implicit.BoundingBox
}

// Server serves the construction API.
type Server struct {
	store    store.Store
	cache    cache.Cache
	engine   locus.Engine
	logger   *log.Logger
	trace    implicit.Options
	ttl      time.Duration
	viewport implicit.BoundingBox

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the live state for one named construction.
type session struct {
	mu     sync.Mutex
	c      *construction.Construction
	runner *locus.Runner
}

// NewServer creates a server. Store and Engine are required; a nil cache
// falls back to NullCache and a nil logger to the default logger.
func NewServer(opts Options) *Server {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Viewport.Width() <= 0 || opts.Viewport.Height() <= 0 {
		opts.Viewport = implicit.BoundingBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	}
	return &Server{
		store:    opts.Store,
		cache:    opts.Cache,
		engine:   opts.Engine,
		logger:   opts.Logger,
		trace:    opts.TraceOpts,
		ttl:      opts.CacheTTL,
		viewport: opts.Viewport,
		sessions: make(map[string]*session),
	}
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/constructions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Put("/", s.handleUpload)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/save", s.handleSave)

			r.Post("/elements", s.handleAddElement)
			r.Post("/elements/{id}/move", s.handleMove)
			r.Delete("/elements/{id}", s.handleRemoveElement)

			r.Post("/locus/{id}", s.handleLocusRefresh)
			r.Get("/locus/{id}", s.handleLocusGet)

			r.Get("/render.svg", s.handleRenderSVG)
			r.Get("/graph.dot", s.handleGraphDOT)
			r.Get("/graph.svg", s.handleGraphSVG)
		})
	})

	return r
}

// session returns the live session for name, loading it from the store
// on first access.
func (s *Server) session(ctx context.Context, name string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}
	doc, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	c, err := construction.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	sess := s.newSession(name, c)
	s.sessions[name] = sess
	return sess, nil
}

// newSession builds a live session. Cache keys are scoped per name so
// deleting one construction never leaves another's entries ambiguous.
func (s *Server) newSession(name string, c *construction.Construction) *session {
	keyer := cache.NewScopedKeyer(nil, "loci:"+name+":")
	runner := locus.NewRunner(s.cache, keyer, s.engine, s.logger)
	runner.TraceOpts = s.trace
	runner.TTL = s.ttl
	return &session{c: c, runner: runner}
}

// replaceSession installs a fresh session for name, dropping any live one.
func (s *Server) replaceSession(name string, c *construction.Construction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[name] = s.newSession(name, c)
}

// dropSession removes the live session for name, if any.
func (s *Server) dropSession(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// httpStatus maps structured error codes to HTTP statuses.
func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeUnknownElement:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeCyclicDependency, errors.ErrCodeInvalidParentTypes:
		return http.StatusConflict
	case errors.ErrCodeDegenerateSystem:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
