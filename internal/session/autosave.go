package session

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultAutosaveInterval = 30 * time.Second

// Autosaver periodically writes dirty sessions back to the store.
type Autosaver struct {
	registry *Registry
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
	paused   atomic.Bool
}

func NewAutosaver(registry *Registry, interval time.Duration, logger *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Autosaver{registry: registry, logger: logger, interval: interval}
}

// Start blocks until ctx is done, then flushes dirty sessions once more.
func (a *Autosaver) Start(ctx context.Context) {
	if a.running.Swap(true) {
		return
	}

	a.logger.Info("autosave started", "interval", a.interval)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("autosave stopping")
			a.flush(context.WithoutCancel(ctx))
			a.running.Store(false)
			return
		case <-ticker.C:
			if !a.paused.Load() {
				a.flush(ctx)
			}
		}
	}
}

func (a *Autosaver) flush(ctx context.Context) {
	saved, err := a.registry.SaveDirty(ctx)
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
	}
	if saved > 0 {
		a.logger.Debug("autosaved projects", "count", saved)
	}
}

func (a *Autosaver) Pause() {
	a.paused.Store(true)
	a.logger.Info("autosave paused")
}

func (a *Autosaver) Resume() {
	a.paused.Store(false)
	a.logger.Info("autosave resumed")
}

func (a *Autosaver) IsPaused() bool {
	return a.paused.Load()
}

func (a *Autosaver) IsRunning() bool {
	return a.running.Load()
}
