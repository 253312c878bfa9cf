package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-editor/internal/session"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 5 * time.Second

// SessionSource is the part of the registry the tray reports on.
type SessionSource interface {
	OpenSessions() []*session.Session
	SaveDirty(ctx context.Context) (int, error)
}

// Autosave is the autosave loop the tray can pause.
type Autosave interface {
	Pause()
	Resume()
	IsPaused() bool
}

type Tray struct {
	sessions SessionSource
	autosave Autosave
	logger   *slog.Logger

	statusItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu   sync.Mutex
	done chan struct{}

	onQuit func()
}

type TrayConfig struct {
	Sessions SessionSource
	Autosave Autosave
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		sessions: cfg.Sessions,
		autosave: cfg.Autosave,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
		done:     make(chan struct{}),
	}
}

// Run blocks on the platform event loop until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex")
	systray.SetTooltip("Heimdex Editor")

	t.statusItem = systray.AddMenuItem(StatusText(nil), "Open projects")
	t.statusItem.Disable()

	systray.AddSeparator()

	saveItem := systray.AddMenuItem("Save All Now", "Save every project with unsaved changes")
	t.pauseItem = systray.AddMenuItem(pauseTitle(false), "Pause or resume autosave")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Save and quit Heimdex Editor")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-saveItem.ClickedCh:
				t.saveAll()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.done)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.Refresh()
		}
	}
}

// Refresh updates the status line from the open sessions.
func (t *Tray) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusItem == nil || t.sessions == nil {
		return
	}
	t.statusItem.SetTitle(StatusText(t.sessions.OpenSessions()))
}

func (t *Tray) saveAll() {
	if t.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := t.sessions.SaveDirty(ctx)
	if err != nil {
		t.logger.Error("save from tray failed", "error", err)
	}
	t.logger.Info("saved from tray", "projects", n)
	t.Refresh()
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.autosave == nil {
		return
	}

	if t.autosave.IsPaused() {
		t.autosave.Resume()
	} else {
		t.autosave.Pause()
	}
	t.pauseItem.SetTitle(pauseTitle(t.autosave.IsPaused()))
}

func (t *Tray) Quit() {
	systray.Quit()
}

// StatusText summarizes open sessions for the tray status line.
func StatusText(open []*session.Session) string {
	if len(open) == 0 {
		return "No open projects"
	}
	dirty := 0
	for _, s := range open {
		if s.Dirty() {
			dirty++
		}
	}
	noun := "projects"
	if len(open) == 1 {
		noun = "project"
	}
	if dirty == 0 {
		return fmt.Sprintf("%d open %s, all saved", len(open), noun)
	}
	return fmt.Sprintf("%d open %s, %d unsaved", len(open), noun, dirty)
}

func pauseTitle(paused bool) string {
	if paused {
		return "Resume Autosave"
	}
	return "Pause Autosave"
}
