// Package initializers holds the built-in initializers a host can name in
// its initializer-classes parameters.
//
// Registered names:
//   - "environment" binds the container environment as "environment"
//   - "dotenv"      adds the .env files listed in the "dotenv-files" property
//     as the lowest-priority property source
//   - "logger"      binds a *Logger at the "log-level" property as "logger"
//     (alias "log")
//   - "config"      binds the hosting *config.Config as "config"
//     (alias "configuration")
package initializers

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/env"
	"github.com/km-arc/go-bootstrap/framework/initializer"
)

// Property keys read by the built-ins.
const (
	DotenvFilesProperty = "dotenv-files"
	LogLevelProperty    = "log-level"
)

// Register adds the built-ins to cat.
func Register(cat *initializer.Catalog) {
	cat.Register("environment", func() (any, error) { return &EnvironmentInitializer{}, nil })
	cat.Register("dotenv", func() (any, error) { return &DotenvInitializer{}, nil })
	cat.Register("logger", func() (any, error) { return &LoggerInitializer{}, nil })
	cat.Register("config", func() (any, error) { return &ConfigInitializer{}, nil })
	cat.Alias("logger", "log")
	cat.Alias("config", "configuration")
}

// Catalog returns a catalog holding only the built-ins.
func Catalog() *initializer.Catalog {
	cat := initializer.NewCatalog()
	Register(cat)
	return cat
}

// ── EnvironmentInitializer ───────────────────────────────────────────────────

// EnvironmentInitializer binds the container environment.
//
// Bound abstracts:
//   - "environment" → env.Configurable
type EnvironmentInitializer struct{}

func (*EnvironmentInitializer) Order() int { return initializer.HighestPrecedence }

func (*EnvironmentInitializer) Initialize(c container.Configurable) error {
	c.Instance("environment", c.Environment())
	return nil
}

// ── DotenvInitializer ────────────────────────────────────────────────────────

// DotenvInitializer reads the files named by the "dotenv-files" property
// (any init parameter delimiter) into a property source named "dotenv".
// It runs right after the environment is bound so later initializers see
// the values.
type DotenvInitializer struct{}

func (*DotenvInitializer) Order() int { return initializer.HighestPrecedence + 1 }

func (*DotenvInitializer) RequiredCapability() container.Capability {
	return container.CapConfigurable
}

func (*DotenvInitializer) Initialize(c container.Configurable) error {
	e := c.Environment()
	raw, ok := e.Property(DotenvFilesProperty)
	if !ok {
		return nil
	}
	files := config.Tokenize(raw, config.InitParamDelimiters)
	for i, f := range files {
		resolved, err := e.ResolveRequiredPlaceholders(f)
		if err != nil {
			return err
		}
		files[i] = resolved
	}
	if len(files) == 0 {
		return nil
	}
	src, err := env.DotenvSource("dotenv", files...)
	if err != nil {
		return err
	}
	e.AddLast(src)
	return nil
}

// ── LoggerInitializer ────────────────────────────────────────────────────────

// Logger is the container-scoped logger. Closing the container flushes it.
type Logger struct {
	*zap.Logger
}

// Dispose flushes buffered entries. Sync errors on terminals are expected
// and ignored.
func (l *Logger) Dispose() error {
	_ = l.Sync()
	return nil
}

// LoggerInitializer binds a production zap logger named after the
// container.
//
// Bound abstracts:
//   - "logger" → *Logger  (alias "log")
type LoggerInitializer struct {
	// Core overrides the zap core. Used by tests.
	Core zapcore.Core
}

func (*LoggerInitializer) Order() int { return initializer.LowestPrecedence - 1 }

func (li *LoggerInitializer) Initialize(c container.Configurable) error {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if v, ok := c.Environment().Property(LogLevelProperty); ok {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}

	var base *zap.Logger
	if li.Core != nil {
		base = zap.New(li.Core, zap.IncreaseLevel(level))
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		var err error
		if base, err = cfg.Build(); err != nil {
			return err
		}
	}

	c.Instance("logger", &Logger{Logger: base.Named("container").With(zap.String("container", c.ID()))})
	c.Alias("logger", "log")
	return nil
}

// ── ConfigInitializer ────────────────────────────────────────────────────────

// ConfigInitializer binds the hosting configuration, loaded lazily from
// .env files the first time it is resolved.
//
// Bound abstracts:
//   - "config" → *config.Config  (alias "configuration")
type ConfigInitializer struct {
	EnvFiles []string
}

func (ci *ConfigInitializer) Initialize(c container.Configurable) error {
	files := ci.EnvFiles
	c.Singleton("config", func(*container.Container) any {
		return config.Load(files...)
	})
	c.Alias("config", "configuration")
	return nil
}
