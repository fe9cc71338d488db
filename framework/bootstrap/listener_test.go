package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/bootstrap"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/hosting"
	"github.com/km-arc/go-bootstrap/framework/registry"
)

func newServer(params config.Params, l *bootstrap.Loader) *hosting.Server {
	cfg := &config.Config{
		Server: config.Server{Name: "shop", ContextPath: "/shop", Scope: "shop"},
		Params: params,
	}
	return hosting.New(cfg, hosting.WithRoot(root), hosting.WithListener(bootstrap.NewListener(l)))
}

func getContainer(t *testing.T, s *hosting.Server) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, bootstrap.ContainerRoute, nil))
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return rr.Code, body
}

func TestListener_Lifecycle(t *testing.T) {
	reg := registry.New()
	l := bootstrap.NewLoader(bootstrap.WithRegistry(reg))
	s := newServer(config.Params{config.ContainerIDParam: "shop-root"}, l)

	require.NoError(t, s.Start())

	code, body := getContainer(t, s)
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "shop-root", data["id"])
	assert.Equal(t, "active", data["state"])
	assert.Equal(t, "container.XMLContainer", data["type"])
	assert.Equal(t, []any{"config/application.xml"}, data["config_locations"])
	assert.Contains(t, data["bindings"], "orders")

	require.NoError(t, s.Shutdown(context.Background()))

	_, ok := reg.Lookup("shop")
	assert.False(t, ok)
	code, _ = getContainer(t, s)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListener_FailedBootstrapAbortsStart(t *testing.T) {
	reg := registry.New()
	l := bootstrap.NewLoader(bootstrap.WithRegistry(reg))
	s := newServer(config.Params{config.ContainerClassParam: "missing"}, l)

	err := s.Start()
	require.Error(t, err)

	code, body := getContainer(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, string(errs.CodeInstantiation), body["code"])
}

func TestView_IncludesParent(t *testing.T) {
	l, _ := newLoader()
	ctx, err := l.Init(newHost(map[string]string{config.ContainerClassParam: "static"}))
	require.NoError(t, err)

	v := bootstrap.View(ctx)
	assert.Equal(t, "container.StaticContainer", v.Type)
	assert.Empty(t, v.Parent)
	assert.Nil(t, v.ConfigLocations)
}
