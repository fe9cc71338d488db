package bootstrap

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/hosting"
)

// AttributePrefix marks attributes owned by the bootstrap layer. Cleanup
// only inspects attributes under it.
const AttributePrefix = "bootstrap."

// RootAttribute holds the published root container.
const RootAttribute = AttributePrefix + "root"

// CleanupAttributes disposes every Disposable attribute under
// AttributePrefix. A failing or panicking disposal is logged and counted;
// the rest still run. Returns the number of failures.
func CleanupAttributes(store hosting.AttributeStore, logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := 0
	for _, name := range store.AttributeNames() {
		if !strings.HasPrefix(name, AttributePrefix) {
			continue
		}
		v, ok := store.Attribute(name)
		if !ok {
			continue
		}
		d, ok := v.(container.Disposable)
		if !ok {
			continue
		}
		if err := dispose(d); err != nil {
			failed++
			disposalFailures.Inc()
			logger.Error("could not dispose attribute", zap.String("attribute", name), zap.Error(err))
			continue
		}
		logger.Debug("disposed attribute", zap.String("attribute", name))
	}
	return failed
}

func dispose(d container.Disposable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during dispose: %v", r)
		}
	}()
	return d.Dispose()
}
