// Package server assembles the chainkeeper server: it opens the credential
// store, builds the ratchet policy and auth service, and runs the gRPC
// endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/dmitrijs2005/chainkeeper/internal/server/config"
	"github.com/dmitrijs2005/chainkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chainkeeper/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/chainkeeper/internal/server/grpc"
)

var logOutput io.Writer = os.Stdout

type App struct {
	config *config.Config
	logger logging.Logger
	store  *repomanager.Store
	server *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logOutput, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	manager, err := ratchet.New(c.Ratchet)
	if err != nil {
		return nil, fmt.Errorf("ratchet config error: %w", err)
	}

	store, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	as := services.NewAuthService(store.Users, manager, c, logger)
	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as, c.SecretKey)

	logger.Info(ctx, "App configured",
		"store", c.StoreDriver,
		"algorithm", c.Ratchet.Algorithm,
		"max_index", c.Ratchet.MaxIndex,
		"update_index", c.Ratchet.UpdateIndex)

	return &App{config: c, logger: logger, store: store, server: srv}, nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigs)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Run(gctx)
	})

	g.Go(func() error {
		select {
		case sig := <-sigs:
			app.logger.Info(gctx, "Signal received", "signal", sig.String())
			cancelFunc()
		case <-gctx.Done():
		}
		return nil
	})

	err := g.Wait()

	if cerr := app.store.Close(); cerr != nil {
		app.logger.Error(ctx, "store close", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
