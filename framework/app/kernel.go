package app

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/bootstrap"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/hosting"
	"github.com/km-arc/go-bootstrap/framework/initializer"
	"github.com/km-arc/go-bootstrap/framework/initializers"
	"github.com/km-arc/go-bootstrap/framework/registry"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Application wires one hosting server to a bootstrap loader.
//
//	application, err := app.New(app.WithEnvFiles(".env"))
//	application.Router().Get("/", handler)
//	err = application.Run(ctx)
type Application struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *registry.Registry
	Loader   *bootstrap.Loader
	Server   *hosting.Server
}

type options struct {
	envFiles     []string
	root         fs.FS
	logger       *zap.Logger
	initializers []initializer.Initializer
	containers   *container.Catalog
}

// Option configures New.
type Option func(*options)

// WithEnvFiles replaces the default ".env".
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithRoot serves host-relative config locations from root instead of
// APP_ROOT.
func WithRoot(root fs.FS) Option {
	return func(o *options) { o.root = root }
}

// WithLogger replaces the logger built from LOG_LEVEL and APP_ENV.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInitializers adds initializers supplied in code.
func WithInitializers(ins ...initializer.Initializer) Option {
	return func(o *options) { o.initializers = append(o.initializers, ins...) }
}

// WithContainerCatalog adds container implementations beyond the built-ins.
func WithContainerCatalog(c *container.Catalog) Option {
	return func(o *options) { o.containers = c }
}

// New loads configuration and builds the application. Nothing is
// bootstrapped until Run.
func New(opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.Load(o.envFiles...)
	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = NewLogger(cfg.Server); err != nil {
			return nil, err
		}
	}

	reg := registry.Default()
	reg.SetOwner(cfg.Server.Name)

	loaderOpts := []bootstrap.Option{
		bootstrap.WithLogger(logger.Named("bootstrap")),
		bootstrap.WithRegistry(reg),
		bootstrap.WithInitializerCatalog(initializers.Catalog()),
		bootstrap.WithOwner(cfg.Server.Name),
		bootstrap.WithInitializers(o.initializers...),
	}
	if o.containers != nil {
		loaderOpts = append(loaderOpts, bootstrap.WithContainerCatalog(o.containers))
	}
	loader := bootstrap.NewLoader(loaderOpts...)

	serverOpts := []hosting.Option{
		hosting.WithLogger(logger),
		hosting.WithListener(bootstrap.NewListener(loader)),
	}
	if o.root != nil {
		serverOpts = append(serverOpts, hosting.WithRoot(o.root))
	}

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Loader:   loader,
		Server:   hosting.New(cfg, serverOpts...),
	}, nil
}

// NewLogger builds a production logger, or a development one outside
// production, at s.LogLevel.
func NewLogger(s config.Server) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	if s.Env == "production" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build(zap.Fields(zap.String("app", s.Name)))
}

// Router exposes the server router for application routes.
func (a *Application) Router() *routing.Router { return a.Server.Router() }

// Container returns the root container once Run has bootstrapped it.
func (a *Application) Container() (container.Context, bool) {
	return a.Registry.Lookup(a.Server.ScopeKey())
}

// Run bootstraps the root container, serves on APP_ADDR until ctx is done,
// then shuts down and closes the container.
func (a *Application) Run(ctx context.Context) error {
	defer func() { _ = a.Logger.Sync() }()

	done := make(chan error, 1)
	go func() { done <- a.Server.ListenAndServe() }()

	select {
	case err := <-done:
		// never served: a listener or the listen itself failed
		shutdownErr := a.Server.Shutdown(context.Background())
		return errors.Join(err, shutdownErr)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := a.Server.Shutdown(sctx)
	return errors.Join(err, <-done)
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.Config.Server.Env }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
