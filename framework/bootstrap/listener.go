package bootstrap

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/hosting"
	gohttp "github.com/km-arc/go-bootstrap/framework/http"
)

// ContainerRoute reports the root container of the serving scope.
const ContainerRoute = "/-/container"

// Listener runs a Loader on hosting.Server start and stop.
type Listener struct {
	loader *Loader
	logger *zap.Logger
}

var _ hosting.Listener = (*Listener)(nil)

// NewListener wraps l.
func NewListener(l *Loader) *Listener {
	return &Listener{loader: l, logger: l.logger}
}

// Started mounts the container route and bootstraps the root container.
func (li *Listener) Started(s *hosting.Server) error {
	s.Router().Get(ContainerRoute, li.Handler(s))
	_, err := li.loader.Init(s)
	return err
}

// Stopping closes the root container and cleans up attributes. Close
// errors are logged; the server is going away regardless.
func (li *Listener) Stopping(s *hosting.Server) {
	if err := li.loader.Close(s); err != nil {
		li.logger.Error("closing root container", zap.String("scope", string(s.ScopeKey())), zap.Error(err))
	}
}

// ContainerView is the JSON shape of ContainerRoute.
type ContainerView struct {
	ID              string                 `json:"id"`
	DisplayName     string                 `json:"display_name"`
	Type            string                 `json:"type"`
	State           string                 `json:"state"`
	Parent          string                 `json:"parent,omitempty"`
	Capabilities    []container.Capability `json:"capabilities"`
	ConfigLocations []string               `json:"config_locations,omitempty"`
	Bindings        []string               `json:"bindings"`
}

// View describes ctx.
func View(ctx container.Context) ContainerView {
	v := ContainerView{
		ID:           ctx.ID(),
		DisplayName:  ctx.DisplayName(),
		Type:         strings.TrimPrefix(fmt.Sprintf("%T", ctx), "*"),
		State:        ctx.State().String(),
		Capabilities: ctx.Capabilities(),
		Bindings:     ctx.Bindings(),
	}
	if p := ctx.Parent(); p != nil {
		v.Parent = p.ID()
	}
	if la, ok := ctx.(container.LocationAware); ok {
		v.ConfigLocations = la.ConfigLocations()
	}
	return v
}

// Handler serves the view of h's root container: 200 when active, 503
// with the error code when the last bootstrap failed, 404 otherwise.
func (li *Listener) Handler(h Host) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		res := gohttp.NewResponse(w)
		reg := li.loader.Registry()
		if ctx, ok := reg.Lookup(h.ScopeKey()); ok {
			res.Success(View(ctx))
			return
		}
		if err := reg.Failure(h.ScopeKey()); err != nil {
			res.Failure(http.StatusServiceUnavailable, string(errs.CodeOf(err)), err.Error())
			return
		}
		res.NotFound("No root container for this scope.")
	}
}
