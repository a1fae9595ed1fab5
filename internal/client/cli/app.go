// Package cli implements the bukukas command line interface: session
// management, local bookkeeping commands, and the sync entry point.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dkurniawan/bukukas/internal/client/auth"
	"github.com/dkurniawan/bukukas/internal/client/config"
	"github.com/dkurniawan/bukukas/internal/client/remote"
	"github.com/dkurniawan/bukukas/internal/client/remote/httpapi"
	"github.com/dkurniawan/bukukas/internal/client/remote/postgres"
	"github.com/dkurniawan/bukukas/internal/client/store"
	"github.com/dkurniawan/bukukas/internal/logging"
)

// App carries the long-lived pieces commands share: resolved configuration,
// the logger, the local store manager and the credential store.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	stores *store.Manager
	creds  *auth.FileStore
	reader *bufio.Reader
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg, reader: bufio.NewReader(os.Stdin)}
}

// initialize runs after flag parsing, when overrides have settled into cfg.
func (a *App) initialize() error {
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("error creating data dir: %w", err)
	}

	if a.log == nil {
		a.log = logging.NewFileLogger(a.cfg.LogFile, slog.LevelInfo)
	}
	if a.stores == nil {
		a.stores = store.NewManager(a.cfg.DataDir)
	}
	if a.creds == nil {
		a.creds = auth.NewFileStore(a.cfg.CredentialFile())
	}
	return nil
}

// Close releases the open local store handle, if any.
func (a *App) Close() error {
	if a.stores == nil {
		return nil
	}
	return a.stores.Close()
}

// session resolves the logged-in user from the stored credential and opens
// their local store.
func (a *App) session(ctx context.Context) (string, *store.Store, error) {
	cred, err := a.creds.Load()
	if err != nil {
		return "", nil, err
	}
	st, err := a.stores.Open(ctx, cred.UserID)
	if err != nil {
		return "", nil, err
	}
	return cred.UserID, st, nil
}

// openGateway builds the remote gateway for the configured mode. The
// returned func releases whatever the gateway holds open.
func (a *App) openGateway(ctx context.Context) (remote.Gateway, func(), error) {
	switch a.cfg.RemoteMode {
	case config.ModeHTTP:
		return httpapi.NewClient(a.cfg.RemoteAddr, a.creds.Token), func() {}, nil

	case config.ModePostgres:
		gw, db, err := postgres.Open(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return gw, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown remote mode %q", a.cfg.RemoteMode)
	}
}
