package initializer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/initializer"
)

// spy records every Initialize call into a shared log.
type spy struct {
	name  string
	order *int
	needs container.Capability
	err   error
	calls *[]string
}

func (s *spy) Initialize(container.Configurable) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

type orderedSpy struct{ *spy }

func (o orderedSpy) Order() int { return *o.order }

type targetedSpy struct{ *spy }

func (t targetedSpy) RequiredCapability() container.Capability { return t.needs }

func catalog(calls *[]string) *initializer.Catalog {
	one, two := 1, 2
	cat := initializer.NewCatalog()
	cat.Register("x", func() (any, error) { return orderedSpy{&spy{name: "x", order: &two, calls: calls}}, nil })
	cat.Register("y", func() (any, error) { return orderedSpy{&spy{name: "y", order: &one, calls: calls}}, nil })
	cat.Register("plain", func() (any, error) { return &spy{name: "plain", calls: calls}, nil })
	cat.Register("docs", func() (any, error) {
		return targetedSpy{&spy{name: "docs", needs: container.CapDocuments, calls: calls}}, nil
	})
	cat.Register("not-one", func() (any, error) { return "just a string", nil })
	cat.Register("broken", func() (any, error) { return nil, errors.New("no config") })
	cat.Register("nil", nil)
	cat.Alias("x", "x-alias")
	return cat
}

func TestResolve_CombinesGlobalAndLocalOnce(t *testing.T) {
	var calls []string
	cat := catalog(&calls)

	descs, err := cat.Resolve("x", "y, x; x-alias")
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "x", descs[0].Identity)
	assert.Equal(t, "y", descs[1].Identity)

	require.NoError(t, initializer.Apply(container.NewStaticContainer(), descs, nil))
	assert.Equal(t, []string{"y", "x"}, calls, "ordered by Order, each once")
}

func TestResolve_UnorderedRunLastInDiscoveryOrder(t *testing.T) {
	var calls []string
	cat := catalog(&calls)

	descs, err := cat.Resolve("plain", "x y")
	require.NoError(t, err)
	assert.Equal(t, initializer.LowestPrecedence, descs[0].Order)

	require.NoError(t, initializer.Apply(container.NewStaticContainer(), descs, nil))
	assert.Equal(t, []string{"y", "x", "plain"}, calls)
}

func TestResolve_Errors(t *testing.T) {
	cat := catalog(new([]string))

	for _, name := range []string{"missing", "not-one", "broken", "nil"} {
		t.Run(name, func(t *testing.T) {
			_, err := cat.Resolve("", name)
			assert.True(t, errors.Is(err, errs.ErrInitializerResolution), "got %v", err)
		})
	}
}

func TestApply_CapabilityMismatchRunsNothing(t *testing.T) {
	var calls []string
	cat := catalog(&calls)
	descs, err := cat.Resolve("y x", "docs")
	require.NoError(t, err)

	err = initializer.Apply(container.NewStaticContainer(), descs, nil)

	require.Error(t, err)
	assert.Equal(t, errs.CodeInitializerTypeMismatch, errs.CodeOf(err))
	assert.Contains(t, err.Error(), `"docs"`)
	assert.Contains(t, err.Error(), "*container.StaticContainer")
	assert.Empty(t, calls)
}

func TestApply_CapabilitySatisfied(t *testing.T) {
	var calls []string
	descs, err := catalog(&calls).Resolve("docs", "")
	require.NoError(t, err)

	require.NoError(t, initializer.Apply(container.NewXMLContainer(), descs, nil))
	assert.Equal(t, []string{"docs"}, calls)
}

func TestApply_StopsOnFirstError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	first := &spy{name: "first", err: boom, calls: &calls}
	second := &spy{name: "second", calls: &calls}

	err := initializer.Apply(container.NewStaticContainer(), initializer.Programmatic(first, second), nil)

	assert.Same(t, boom, err)
	assert.Equal(t, []string{"first"}, calls)
}

func TestApply_ProgrammaticRunBeforeNamedAtEqualOrder(t *testing.T) {
	var calls []string
	descs := initializer.Programmatic(&spy{name: "code", calls: &calls})
	named, err := catalog(&calls).Resolve("plain", "")
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	require.NoError(t, initializer.Apply(container.NewStaticContainer(), append(descs, named...), zap.New(core)))

	assert.Equal(t, []string{"code", "plain"}, calls)
	assert.Equal(t, 2, logs.FilterMessage("applying initializer").Len())
}

func TestProgrammatic_NamedByQualifiedType(t *testing.T) {
	var calls []string
	a, b := &spy{name: "a", calls: &calls}, &spy{name: "b", calls: &calls}

	descs := initializer.Programmatic(a, b)

	require.Len(t, descs, 2)
	assert.Equal(t, "github.com/km-arc/go-bootstrap/framework/initializer_test.spy", descs[0].Name)
	assert.Equal(t, descs[0].Name, descs[1].Name)
	assert.NotEqual(t, descs[0].Identity, descs[1].Identity, "each instance keeps its own identity")
}

func TestCatalog_AliasChains(t *testing.T) {
	cat := initializer.NewCatalog()
	cat.Register("real", nil)
	cat.Alias("real", "a")
	cat.Alias("a", "b")

	id, ok := cat.Canonical("b")
	assert.True(t, ok)
	assert.Equal(t, "real", id)

	cat.Alias("loop", "loop2")
	cat.Alias("loop2", "loop")
	_, ok = cat.Canonical("loop")
	assert.False(t, ok)

	assert.Equal(t, []string{"real"}, cat.Names())
	assert.Panics(t, func() { cat.Alias("z", "z") })
}
