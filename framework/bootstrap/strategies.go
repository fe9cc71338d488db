package bootstrap

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

//go:embed strategies.yaml
var strategiesYAML []byte

// Strategies maps a capability name to the container implementation used
// when the host names none.
type Strategies map[string]string

// Lookup returns the implementation for capability c.
func (s Strategies) Lookup(c container.Capability) (string, error) {
	name, ok := s[string(c)]
	if !ok || name == "" {
		return "", errs.New(errs.CodeIllegalState, "bootstrap.strategies",
			"no default container implementation for capability %q", c)
	}
	return name, nil
}

// ParseStrategies reads a strategy table.
func ParseStrategies(data []byte) (Strategies, error) {
	var s Strategies
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errs.Wrap(errs.CodeIllegalState, "bootstrap.strategies", err,
			"could not parse default strategies")
	}
	return s, nil
}

var defaults struct {
	once sync.Once
	s    Strategies
	err  error
}

// DefaultStrategies parses the bundled table once.
func DefaultStrategies() (Strategies, error) {
	defaults.once.Do(func() {
		defaults.s, defaults.err = ParseStrategies(strategiesYAML)
	})
	return defaults.s, defaults.err
}
