package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/store"
)

var errEditorRunning = errors.New("another heimdex-editor instance holds the data directory")

type commandContext struct {
	dataDirFlag *string
	configFlag  *string
	cfg         *config.EnvConfig
}

func newCommandContext(dataDir, configPath *string) *commandContext {
	return &commandContext{dataDirFlag: dataDir, configFlag: configPath}
}

func (c *commandContext) ensureConfig() (*config.EnvConfig, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.dataDirFlag, *c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

// storeHandle bundles the opened database with the optional data-dir lock.
type storeHandle struct {
	db   *store.DB
	repo *store.SQLiteRepository
	lock *flock.Flock
}

func (h *storeHandle) Close() {
	h.db.Close()
	if h.lock != nil {
		_ = h.lock.Unlock()
	}
}

// openStore opens the project database. With exclusive set the data
// directory lock is taken first, so writes never race a running server
// that holds live sessions.
func (c *commandContext) openStore(logger *slog.Logger, exclusive bool) (*storeHandle, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	h := &storeHandle{}
	if exclusive {
		lock := flock.New(cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, errEditorRunning
		}
		h.lock = lock
	}

	database, err := store.Open(cfg.DBPath(), logger)
	if err != nil {
		if h.lock != nil {
			_ = h.lock.Unlock()
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	h.db = database
	h.repo = store.NewRepository(database.Conn())
	return h, nil
}

// registry builds a session registry configured from the editor settings.
func (c *commandContext) registry(repo store.Repository, publisher session.Publisher, logger *slog.Logger) *session.Registry {
	cfg := c.cfg
	return session.NewRegistry(repo, session.Options{
		Editor: editor.Options{
			HistoryLimit: cfg.HistoryLimit(),
			NoOverlap:    cfg.NoOverlap(),
		},
		SnapThreshold: cfg.SnapThreshold(),
		Publisher:     publisher,
		Logger:        logging.WithComponent(logger, "session"),
	})
}

// withRegistry opens the store and a private registry for one command.
// Exclusive commands take the data directory lock first.
func (c *commandContext) withRegistry(exclusive bool, fn func(r *session.Registry) error) error {
	h, err := c.openStore(nil, exclusive)
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(c.registry(h.repo, nil, logging.Discard()))
}
