// Package hosting is the web server a container is bootstrapped into. A
// Server carries what the bootstrap loader reads from its host: a scope
// key, init parameters, a context path, a document root and a shared
// attribute store. Listeners hook into its start and stop.
package hosting

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/registry"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

// Listener observes the server lifecycle. Started runs before the server
// accepts requests; an error aborts the start. Stopping runs after the
// server stopped accepting requests, in reverse registration order.
type Listener interface {
	Started(s *Server) error
	Stopping(s *Server)
}

// Server hosts one scope.
type Server struct {
	cfg    config.Server
	scope  registry.ScopeKey
	params config.Params
	root   fs.FS
	attrs  *Attributes
	router *routing.Router
	logger *zap.Logger

	mu        sync.Mutex
	listeners []Listener
	started   []Listener
	srv       *http.Server
	closed    bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRoot overrides the document root taken from config.
func WithRoot(root fs.FS) Option {
	return func(s *Server) { s.root = root }
}

// WithListener registers lifecycle listeners.
func WithListener(ls ...Listener) Option {
	return func(s *Server) { s.listeners = append(s.listeners, ls...) }
}

// New creates a Server from cfg. The scope key is cfg.Server.Scope, or a
// fresh UUID when unset.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg.Server,
		params: make(config.Params, len(cfg.Params)),
		attrs:  NewAttributes(),
		logger: zap.NewNop(),
	}
	for k, v := range cfg.Params {
		s.params[k] = v
	}
	s.scope = registry.ScopeKey(cfg.Server.Scope)
	if s.scope == "" {
		s.scope = registry.ScopeKey(uuid.NewString())
	}
	if cfg.Server.Root != "" {
		s.root = os.DirFS(cfg.Server.Root)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("scope", string(s.scope)))
	s.router = routing.New(s.logger)
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) ScopeKey() registry.ScopeKey { return s.scope }
func (s *Server) ContextPath() string         { return s.cfg.ContextPath }
func (s *Server) Root() fs.FS                 { return s.root }
func (s *Server) Attributes() AttributeStore  { return s.attrs }
func (s *Server) Router() *routing.Router     { return s.router }
func (s *Server) Logger() *zap.Logger         { return s.logger }

// InitParameter returns a configured init parameter.
func (s *Server) InitParameter(name string) (string, bool) {
	return s.params.Get(name)
}

// InitParameterNames lists init parameters, sorted.
func (s *Server) InitParameterNames() []string {
	return s.params.Keys()
}

// Start notifies listeners in order. When one fails, those already started
// are stopped in reverse and the error is returned. A server that was shut
// down does not start again.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return http.ErrServerClosed
	}
	for _, l := range s.listeners {
		if err := l.Started(s); err != nil {
			s.logger.Error("listener failed to start", zap.Error(err))
			s.stopListeners()
			return err
		}
		s.started = append(s.started, l)
	}
	s.logger.Info("server started",
		zap.String("name", s.cfg.Name),
		zap.String("context_path", s.cfg.ContextPath),
		zap.Int("listeners", len(s.started)))
	return nil
}

// Serve starts the server and accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.Start(); err != nil {
		_ = ln.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	if s.closed {
		// shut down while listeners were starting
		s.stopListeners()
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests, then stops listeners in reverse
// order. Safe to call when the server never served.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.srv
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopListeners()
	s.logger.Info("server stopped")
	return err
}

// stopListeners must hold mu.
func (s *Server) stopListeners() {
	for i := len(s.started) - 1; i >= 0; i-- {
		s.started[i].Stopping(s)
	}
	s.started = nil
}
