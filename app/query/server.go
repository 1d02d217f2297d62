package query

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/KeithSSmith/switcheolytics-api/app/query/controller"
	"github.com/KeithSSmith/switcheolytics-api/app/query/types"
)

// NewServer builds the HTTP server of app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	app.Server = &http.Server{Addr: app.Addr, Handler: controller.WithCORS(router)}
	app.Logger.Info("Starting server", zap.String("addr", app.Addr))

	return nil
}
