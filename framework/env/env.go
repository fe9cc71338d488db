// Package env holds the ordered property sources a container resolves
// placeholders against.
package env

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Source is a named set of properties.
type Source interface {
	Name() string
	Lookup(key string) (string, bool)
}

// MapSource is an in-memory Source.
type MapSource struct {
	SourceName string
	Values     map[string]string
}

func (s *MapSource) Name() string { return s.SourceName }

func (s *MapSource) Lookup(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// OSSource reads the process environment.
type OSSource struct{}

func (OSSource) Name() string { return "os" }
func (OSSource) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// DotenvSource reads .env-style files once, without exporting them to the
// process environment.
func DotenvSource(name string, files ...string) (*MapSource, error) {
	vals, err := godotenv.Read(files...)
	if err != nil {
		return nil, errs.Wrap(errs.CodeConfigLoad, "env.dotenv", err, "reading %s", strings.Join(files, ","))
	}
	return &MapSource{SourceName: name, Values: vals}, nil
}

// Names of the sources added by InitHostPropertySources.
const HostParamsSourceName = "host-params"

// Configurable is what containers expose as their environment.
type Configurable interface {
	Property(key string) (string, bool)
	ResolvePlaceholders(text string) string
	ResolveRequiredPlaceholders(text string) (string, error)
	AddFirst(src Source)
	AddLast(src Source)
}

// HostPropertySourceInitializer is implemented by environments that can
// expose the hosting environment's init parameters as a property source.
type HostPropertySourceInitializer interface {
	InitHostPropertySources(params map[string]string)
}

// Environment is a Configurable searched in source order: the first source
// defining a key wins.
type Environment struct {
	mu      sync.RWMutex
	sources []Source
}

// New creates an Environment with the given sources in priority order.
func New(sources ...Source) *Environment {
	return &Environment{sources: sources}
}

// Standard creates an Environment backed by the process environment.
func Standard() *Environment {
	return New(OSSource{})
}

func (e *Environment) AddFirst(src Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = append([]Source{src}, e.remove(src.Name())...)
}

func (e *Environment) AddLast(src Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = append(e.remove(src.Name()), src)
}

// remove drops any source with the given name (must hold mu.Lock).
func (e *Environment) remove(name string) []Source {
	out := make([]Source, 0, len(e.sources)+1)
	for _, s := range e.sources {
		if s.Name() != name {
			out = append(out, s)
		}
	}
	return out
}

// SourceNames lists sources in search order.
func (e *Environment) SourceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.sources))
	for i, s := range e.sources {
		names[i] = s.Name()
	}
	return names
}

// Property looks a key up across sources.
func (e *Environment) Property(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.sources {
		if v, ok := s.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// InitHostPropertySources places the host's init parameters ahead of every
// other source. Replaces a previous host source.
func (e *Environment) InitHostPropertySources(params map[string]string) {
	vals := make(map[string]string, len(params))
	for k, v := range params {
		vals[k] = v
	}
	e.AddFirst(&MapSource{SourceName: HostParamsSourceName, Values: vals})
}

// ResolvePlaceholders substitutes ${key} and ${key:default}; unresolvable
// placeholders are left as written.
func (e *Environment) ResolvePlaceholders(text string) string {
	out, _ := resolve(text, e.Property, false)
	return out
}

// ResolveRequiredPlaceholders is ResolvePlaceholders but fails on the first
// placeholder without a value or default.
func (e *Environment) ResolveRequiredPlaceholders(text string) (string, error) {
	return resolve(text, e.Property, true)
}
