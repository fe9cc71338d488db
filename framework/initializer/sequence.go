package initializer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Sequence drops repeated identities, checks every capability requirement
// against ctx and returns the descriptors in run order. Nothing is invoked.
func Sequence(ctx container.Context, descs []Descriptor) ([]Descriptor, error) {
	seen := make(map[string]bool, len(descs))
	ordered := make([]Descriptor, 0, len(descs))
	for _, d := range descs {
		if seen[d.Identity] {
			continue
		}
		seen[d.Identity] = true
		if d.Requires != "" && !ctx.Has(d.Requires) {
			return nil, errs.New(errs.CodeInitializerTypeMismatch, "initializer.sequence",
				"initializer %q requires a %s container, and %T is not one", d.Name, d.Requires, ctx)
		}
		ordered = append(ordered, d)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	return ordered, nil
}

// Apply sequences descs and invokes each initializer once. The first
// initializer error is returned unchanged.
func Apply(ctx container.Configurable, descs []Descriptor, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ordered, err := Sequence(ctx, descs)
	if err != nil {
		return err
	}
	for _, d := range ordered {
		logger.Debug("applying initializer",
			zap.String("name", d.Name),
			zap.String("identity", d.Identity),
			zap.Int("order", d.Order))
		if err := d.Instance.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}
