package app_test

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
)

var root = fstest.MapFS{
	"config/application.xml": {Data: []byte(`<beans xmlns="urn:km-arc:beans"><bean id="orders" class="orders.Service"/></beans>`)},
}

func setenv(t *testing.T, scope string) {
	t.Helper()
	t.Setenv("APP_NAME", "kernel-test")
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_ADDR", "127.0.0.1:0")
	t.Setenv("APP_SCOPE", scope)
	t.Setenv("LOG_LEVEL", "debug")
}

func TestNew_ReadsEnvironment(t *testing.T) {
	setenv(t, "kernel-env")
	t.Setenv("BOOTSTRAP_CONTAINER_ID", "kernel-root")

	a, err := app.New(app.WithEnvFiles("testdata/none.env"), app.WithRoot(root), app.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	assert.Equal(t, "kernel-test", a.Config.Server.Name)
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.Equal(t, "kernel-env", string(a.Server.ScopeKey()))
	v, _ := a.Server.InitParameter(config.ContainerIDParam)
	assert.Equal(t, "kernel-root", v)
}

func TestRun_BootstrapsAndClosesRootContainer(t *testing.T) {
	setenv(t, "kernel-run")
	t.Setenv("BOOTSTRAP_INITIALIZER_CLASSES", "environment, logger")

	a, err := app.New(app.WithEnvFiles("testdata/none.env"), app.WithRoot(root), app.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var rc container.Context
	require.Eventually(t, func() bool {
		var ok bool
		rc, ok = a.Container()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "container.XMLContainer:", rc.ID())
	assert.True(t, rc.Bound("orders"))
	assert.True(t, rc.Bound("environment"))
	assert.True(t, rc.Bound("log"))

	cur, ok := a.Registry.Current("")
	require.True(t, ok, "the application owns the ambient slot")
	assert.Same(t, rc, cur)

	cancel()
	require.NoError(t, <-done)
	_, ok = a.Container()
	assert.False(t, ok)
	assert.Equal(t, container.Closed, rc.State())
}

func TestRun_FailedBootstrap(t *testing.T) {
	setenv(t, "kernel-fail")
	t.Setenv("BOOTSTRAP_CONTAINER_CLASS", "missing")

	a, err := app.New(app.WithEnvFiles("testdata/none.env"), app.WithRoot(root), app.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	err = a.Run(context.Background())
	assert.Equal(t, errs.CodeInstantiation, errs.CodeOf(err))
	assert.Error(t, a.Registry.Failure(a.Server.ScopeKey()))
	a.Registry.Unregister(a.Server.ScopeKey())
}

func TestNewLogger(t *testing.T) {
	l, err := app.NewLogger(config.Server{Name: "x", Env: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = app.NewLogger(config.Server{LogLevel: "loud"})
	assert.Error(t, err)
}
