package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/otpvault/internal/client/config"
	"github.com/dmitrijs2005/otpvault/internal/client/keyring"
	"github.com/dmitrijs2005/otpvault/internal/client/localstore"
	"github.com/dmitrijs2005/otpvault/internal/client/remote"
	"github.com/dmitrijs2005/otpvault/internal/client/services"
	"github.com/dmitrijs2005/otpvault/internal/client/vaultdb"
	"github.com/dmitrijs2005/otpvault/internal/logging"

	_ "modernc.org/sqlite"
)

const appName = "otpvault"

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeUnknown Mode = ""
)

type App struct {
	config *config.Config
	remote remote.Client
	vault  services.VaultService
	syncer *services.SyncService
	log    logging.Logger
	db     *sql.DB
	Mode   Mode
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	dataDir := c.DataDir
	var store *localstore.Store
	var err error
	if dataDir == "" {
		store, err = localstore.Open(appName)
	} else {
		store, err = localstore.New(dataDir)
	}
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(cfgDir, appName)
	}

	db, err := vaultdb.Open(ctx, filepath.Join(dataDir, "vault.db"))
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	apiClient := remote.NewHTTPClient(c.ServerURL, c.AccessToken)
	kr := keyring.New(store)

	return &App{
		config: c,
		remote: apiClient,
		vault:  services.NewVaultService(db, kr, store, logger),
		syncer: services.NewSyncService(apiClient, store, logger),
		log:    logger,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "connectivity mode changed", "mode", string(mode))
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isAuthenticated() bool {
	return a.vault.IsAuthenticated()
}

// StartOnlineStatusWatcher probes server reachability on a fixed interval
// and flips the connectivity mode accordingly. Blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.remote.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode != ModeOffline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
