// Package bootstrap creates, configures, refreshes and publishes the root
// container of a hosted scope, and tears it down again.
//
// An attempt moves through
//
//	idle → creating → parent-loading → configuring → refreshing → active
//
// and lands in failed on the first error. A failed attempt is recorded in
// the registry under the scope key so observers can report it; nothing
// else is published.
package bootstrap

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/env"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/hosting"
	"github.com/km-arc/go-bootstrap/framework/initializer"
	"github.com/km-arc/go-bootstrap/framework/registry"
)

// Host is what the loader reads from its hosting environment.
// *hosting.Server implements it.
type Host interface {
	ScopeKey() registry.ScopeKey
	InitParameter(name string) (string, bool)
	InitParameterNames() []string
	ContextPath() string
	Root() fs.FS
	Attributes() hosting.AttributeStore
}

// ParentLoader returns the parent of the root container, or nil.
type ParentLoader func(h Host) (container.Context, error)

type phase string

const (
	phaseIdle          phase = "idle"
	phaseCreating      phase = "creating"
	phaseParentLoading phase = "parent-loading"
	phaseConfiguring   phase = "configuring"
	phaseRefreshing    phase = "refreshing"
	phaseActive        phase = "active"
	phaseFailed        phase = "failed"
)

// Loader bootstraps root containers. One Loader may serve many scopes.
type Loader struct {
	logger       *zap.Logger
	registry     *registry.Registry
	containers   *container.Catalog
	initializers *initializer.Catalog
	programmatic []initializer.Initializer
	parent       ParentLoader
	owner        string
	supplied     container.Configurable
	strategies   Strategies
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithRegistry replaces registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(ld *Loader) { ld.registry = r }
}

// WithContainerCatalog replaces container.DefaultCatalog().
func WithContainerCatalog(c *container.Catalog) Option {
	return func(ld *Loader) { ld.containers = c }
}

// WithInitializerCatalog sets the catalog named initializers resolve in.
func WithInitializerCatalog(c *initializer.Catalog) Option {
	return func(ld *Loader) { ld.initializers = c }
}

// WithInitializers adds initializers supplied in code. They are applied in
// addition to the named ones and are discovered first.
func WithInitializers(ins ...initializer.Initializer) Option {
	return func(ld *Loader) { ld.programmatic = append(ld.programmatic, ins...) }
}

func WithParentLoader(p ParentLoader) Option {
	return func(ld *Loader) { ld.parent = p }
}

// WithOwner identifies this loader to the registry. Only the registry's
// distinguished owner publishes into the ambient cell.
func WithOwner(id string) Option {
	return func(ld *Loader) { ld.owner = id }
}

// WithContainer supplies the container instead of creating one. An already
// active container is published without being configured or refreshed.
func WithContainer(c container.Configurable) Option {
	return func(ld *Loader) { ld.supplied = c }
}

// WithStrategies replaces the bundled default strategy table.
func WithStrategies(s Strategies) Option {
	return func(ld *Loader) { ld.strategies = s }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger:       zap.NewNop(),
		registry:     registry.Default(),
		containers:   container.DefaultCatalog(),
		initializers: initializer.NewCatalog(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the registry the loader publishes into.
func (l *Loader) Registry() *registry.Registry { return l.registry }

// Init bootstraps the root container for h's scope and publishes it.
func (l *Loader) Init(h Host) (container.Context, error) {
	key := h.ScopeKey()
	log := l.logger.With(zap.String("scope", string(key)))

	if _, ok := l.registry.Lookup(key); ok {
		attemptsTotal.WithLabelValues(OutcomeDuplicate).Inc()
		return nil, errs.New(errs.CodeDuplicateActiveContainer, "bootstrap.init",
			"scope %q already has a root container; check for more than one loader", key)
	}

	log.Info("initializing root container")
	start := time.Now()

	cfg, created, err := l.build(h, log)
	if err != nil {
		if cfg != nil && created {
			closeQuietly(cfg, log)
		}
		l.registry.RecordFailure(key, err)
		attemptsTotal.WithLabelValues(OutcomeFailed).Inc()
		log.Error("root container initialization failed", zap.Error(err))
		return nil, err
	}

	if err := l.registry.Publish(key, cfg, l.owner); err != nil {
		if created {
			closeQuietly(cfg, log)
		}
		attemptsTotal.WithLabelValues(OutcomeDuplicate).Inc()
		log.Warn("lost publish race", zap.Error(err))
		return nil, err
	}
	h.Attributes().SetAttribute(RootAttribute, cfg)

	elapsed := time.Since(start)
	attemptsTotal.WithLabelValues(OutcomeActive).Inc()
	bootstrapDuration.Observe(elapsed.Seconds())
	activeContainers.Inc()
	log.Info("root container initialized",
		zap.String("id", cfg.ID()),
		zap.Duration("elapsed", elapsed))
	return cfg, nil
}

// build runs creating through refreshing. The container is returned on
// error too, when one was created. created is false for a supplied container.
func (l *Loader) build(h Host, log *zap.Logger) (cfg container.Configurable, created bool, err error) {
	current := phaseIdle
	enter := func(next phase) {
		log.Debug("bootstrap phase", zap.String("from", string(current)), zap.String("to", string(next)))
		current = next
	}
	defer func() {
		if err != nil {
			enter(phaseFailed)
		}
	}()

	enter(phaseCreating)
	if cfg, created, err = l.create(h); err != nil {
		return nil, false, err
	}
	if cfg.State() == container.Active {
		enter(phaseActive)
		return cfg, created, nil
	}

	enter(phaseParentLoading)
	if l.parent != nil {
		parent, err := l.parent(h)
		if err != nil {
			return cfg, created, err
		}
		if parent != nil {
			cfg.SetParent(parent)
		}
	}

	enter(phaseConfiguring)
	if err = l.configure(cfg, h, log); err != nil {
		return cfg, created, err
	}

	enter(phaseRefreshing)
	if err = cfg.Refresh(); err != nil {
		return cfg, created, err
	}
	enter(phaseActive)
	return cfg, created, nil
}

// closeQuietly releases a container the loader created but could not publish.
func closeQuietly(cfg container.Configurable, log *zap.Logger) {
	if err := cfg.Close(); err != nil {
		log.Warn("could not close container", zap.String("id", cfg.ID()), zap.Error(err))
	}
}

func (l *Loader) create(h Host) (container.Configurable, bool, error) {
	if l.supplied != nil {
		return l.supplied, false, nil
	}

	name, _ := h.InitParameter(config.ContainerClassParam)
	name = strings.TrimSpace(name)
	if name == "" {
		s := l.strategies
		if s == nil {
			var err error
			if s, err = DefaultStrategies(); err != nil {
				return nil, false, err
			}
		}
		var err error
		if name, err = s.Lookup(container.CapConfigurable); err != nil {
			return nil, false, err
		}
	}

	cfg, err := l.containers.Instantiate(name)
	if err != nil {
		return nil, false, err
	}
	if !cfg.Has(container.CapConfigurable) {
		return nil, false, errs.New(errs.CodeIncompatibleContainerType, "bootstrap.create",
			"container implementation %q (%T) is not configurable", name, cfg)
	}
	if lg, ok := cfg.(interface{ SetLogger(*zap.Logger) }); ok {
		lg.SetLogger(l.logger.Named("container"))
	}
	return cfg, true, nil
}

func (l *Loader) configure(cfg container.Configurable, h Host, log *zap.Logger) error {
	if id, _ := h.InitParameter(config.ContainerIDParam); strings.TrimSpace(id) != "" {
		cfg.SetID(strings.TrimSpace(id))
	} else if cfg.ID() == container.IdentityString(cfg) {
		cfg.SetID(DefaultID(cfg, h.ContextPath()))
	}

	if ha, ok := cfg.(container.HostAware); ok {
		ha.SetHost(h)
	}
	if na, ok := cfg.(container.NamespaceAware); ok {
		if ns, _ := h.InitParameter(config.ContainerNamespaceParam); strings.TrimSpace(ns) != "" {
			na.SetNamespace(strings.TrimSpace(ns))
		}
	}
	if la, ok := cfg.(container.LocationAware); ok {
		if locs, ok := h.InitParameter(config.ConfigLocationsParam); ok {
			if err := la.SetConfigLocation(locs); err != nil {
				return err
			}
		}
	}
	if e, ok := cfg.Environment().(env.HostPropertySourceInitializer); ok {
		e.InitHostPropertySources(initParams(h))
	}

	global, _ := h.InitParameter(config.GlobalInitializerClassesParam)
	local, _ := h.InitParameter(config.InitializerClassesParam)
	named, err := l.initializers.Resolve(global, local)
	if err != nil {
		return err
	}
	descs := append(initializer.Programmatic(l.programmatic...), named...)
	return initializer.Apply(cfg, descs, log)
}

// DefaultID is the id given to a container that still carries its
// identity default: the type name and the host's context path.
func DefaultID(c container.Context, contextPath string) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", c), "*") + ":" + contextPath
}

func initParams(h Host) map[string]string {
	names := h.InitParameterNames()
	out := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := h.InitParameter(n); ok {
			out[n] = v
		}
	}
	return out
}

// Close closes the root container of h's scope, always unregisters the
// scope, then disposes bootstrap attributes. Only the close error is
// returned; disposal failures are logged.
func (l *Loader) Close(h Host) error {
	key := h.ScopeKey()
	log := l.logger.With(zap.String("scope", string(key)))

	err := l.closeRoot(key, log)
	h.Attributes().RemoveAttribute(RootAttribute)
	if n := CleanupAttributes(h.Attributes(), log); n > 0 {
		log.Warn("attribute cleanup had failures", zap.Int("failures", n))
	}
	return err
}

func (l *Loader) closeRoot(key registry.ScopeKey, log *zap.Logger) error {
	defer l.registry.Unregister(key)

	ctx, ok := l.registry.Lookup(key)
	if !ok {
		return nil
	}
	activeContainers.Dec()
	log.Info("closing root container", zap.String("id", ctx.ID()))
	if c, ok := ctx.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
