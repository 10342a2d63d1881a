package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/chainkeeper/internal/client/client"
	"github.com/dmitrijs2005/chainkeeper/internal/client/config"
	"github.com/dmitrijs2005/chainkeeper/internal/client/services"
	"github.com/dmitrijs2005/chainkeeper/internal/filex"
	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/spf13/cobra"
)

// openAuth connects the online commands to the server and the local
// database. It is a variable so tests can swap in a fake service.
var openAuth = func(ctx context.Context, cfg *config.Config, log logging.Logger) (services.AuthService, func() error, error) {
	path, err := filex.EnsureFileDir(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	db, err := client.InitDatabase(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	c, err := client.NewCredentialClient(cfg.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	as := services.NewAuthService(c, db, cfg, log)
	return as, closer(ctx, as, db), nil
}

func closer(ctx context.Context, as services.AuthService, db *sql.DB) func() error {
	return func() error {
		return errors.Join(as.Close(ctx), db.Close())
	}
}

// App carries what every command needs.
type App struct {
	config *config.Config
}

func (a *App) logger(cmd *cobra.Command) (logging.Logger, error) {
	l, err := logging.New(cmd.ErrOrStderr(), a.config.LogLevel, a.config.LogFormat)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *App) reader(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}

// withAuth runs fn with a connected AuthService under the configured
// request timeout.
func (a *App) withAuth(cmd *cobra.Command, fn func(ctx context.Context, as services.AuthService) error) error {
	log, err := a.logger(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.config.RequestTimeout)
	defer cancel()

	as, closeFn, err := openAuth(ctx, a.config, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	return fn(ctx, as)
}

// manager builds a local Manager from the default policy, the configured
// algorithm and encoding, and any overrides from tune.
func (a *App) manager(tune func(*ratchet.Config)) (*ratchet.Manager, error) {
	rc := ratchet.DefaultConfig()
	rc.Algorithm = a.config.Algorithm
	rc.Encoding = a.config.Encoding
	if tune != nil {
		tune(&rc)
	}
	rc.MaxIterations = 0
	return ratchet.New(rc)
}
