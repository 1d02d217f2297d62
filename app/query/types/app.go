package types

import (
	"context"
	"net/http"
	"time"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"go.uber.org/zap"
)

// Store is the lifecycle side of the backing store.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	Engine *analytics.Engine
	Store  Store
	// Addr is the listen address, <ip>:<port> or :<port>.
	Addr string
	// RequestTimeout bounds every analytics request.
	RequestTimeout time.Duration
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start serves until ctx is done, then shuts down gracefully.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	a.Engine.Close()

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	a.Logger.Info("さようなら!")
}
