package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/container"
	gohttp "github.com/km-arc/go-bootstrap/framework/http"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("could not build application", zap.Error(err))
	}

	r := application.Router()

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		res := gohttp.NewResponse(w)
		res.Success(map[string]any{"message": "Welcome to go-bootstrap!"})
	})

	// GET /api/v1/beans lists the root container's bindings and loaded
	// definitions. GET /api/v1/beans/{id} resolves one of them.
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/beans", func(w http.ResponseWriter, req *http.Request) {
			res := gohttp.NewResponse(w)
			root, ok := application.Container()
			if !ok {
				res.Error(http.StatusServiceUnavailable, "root container is not active")
				return
			}
			res.Success(map[string]any{
				"bindings":    root.Bindings(),
				"definitions": root.Tagged(container.DefinitionsTag),
			})
		})

		api.Get("/beans/{id}", func(w http.ResponseWriter, req *http.Request) {
			res := gohttp.NewResponse(w)
			root, ok := application.Container()
			if !ok {
				res.Error(http.StatusServiceUnavailable, "root container is not active")
				return
			}
			v, err := root.Lookup(routing.Param(req, "id"))
			if err != nil {
				res.NotFound(err.Error())
				return
			}
			res.Success(v)
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("application stopped", zap.Error(err))
		os.Exit(1)
	}
}
