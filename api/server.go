package api

import (
	"net/http"

	"github.com/ZhaoShanGeng/antigravity2api/lib/logging"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

var logger = logging.GetLogger("api")

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Server is the admin HTTP surface over a token store.
type Server struct {
	config  Config
	store   store.IStore
	handler http.Handler
}

// NewServer creates a new API server over the given store.
func NewServer(config Config, s store.IStore) *Server {
	srv := &Server{
		config: config,
		store:  s,
	}
	srv.handler = srv.buildHandler()
	return srv
}

// Handler returns the fully assembled HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve starts the HTTP server. It blocks until the listener fails.
func (s *Server) Serve() error {
	logger.Infof("starting API server on %s", s.config.Endpoint)
	if !s.config.AuthEnabled() {
		logger.Warnf("auth token is empty, /api routes are unprotected")
	}
	return http.ListenAndServe(s.config.Endpoint, s.handler)
}

// buildHandler assembles the route table and middleware chain. The /api
// routes sit behind bearer auth; health and metrics stay open for probes
// and scrapers.
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	// Register handlers
	mux.Handle("GET /api/tokens", s.authMiddleware(http.HandlerFunc(s.handleListTokens)))
	mux.Handle("GET /api/tokens/{id}", s.authMiddleware(http.HandlerFunc(s.handleGetToken)))
	mux.Handle("PUT /api/tokens", s.authMiddleware(http.HandlerFunc(s.handleReplaceTokens)))
	mux.Handle("PATCH /api/tokens", s.authMiddleware(http.HandlerFunc(s.handleMergeTokens)))
	mux.Handle("POST /api/tokens/{id}/disable", s.authMiddleware(http.HandlerFunc(s.handleDisableToken)))
	mux.Handle("GET /api/models/{name}", s.authMiddleware(http.HandlerFunc(s.handleClassifyModel)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Recovery wraps everything so even middleware panics get a response
	return recoveryMiddleware(loggerMiddleware(mux))
}
