package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/api"
	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/realtime"
	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/store"
	"github.com/heimdex/heimdex-editor/internal/ui"
)

const configDeviceID = "device_id"

func newServeCommand(ctx *commandContext) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(ctx, cfg, headless || cfg.Headless(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the system tray")
	return cmd
}

func runServe(ctx *commandContext, cfg *config.EnvConfig, headless bool, out io.Writer) error {
	startTime := time.Now()

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting heimdex editor", "version", config.Version, "data_dir", cfg.DataDir(), "config_loaded", cfg.ConfigLoaded())

	h, err := ctx.openStore(logger, true)
	if err != nil {
		return err
	}
	defer h.Close()

	deviceID, err := ensureDeviceID(h.repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}
	authToken, err := ensureAuthToken(h.repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}
	printBanner(out, cfg.Port(), authToken, deviceID)

	hub := realtime.NewHub(logging.WithComponent(logger, "realtime"))
	go hub.Run()

	registry := ctx.registry(h.repo, hub, logger)
	autosaver := session.NewAutosaver(registry, cfg.AutosaveInterval(), logging.WithComponent(logger, "autosave"))

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		autosaver.Start(runCtx)
	}()

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Registry:  registry,
		Tokens:    h.repo,
		Media:     playback.NewMediaServer(cfg.MediaRoot(), logging.WithComponent(logger, "media")),
		Realtime:  realtime.NewHandler(hub, cfg.AllowedOrigins(), logger),
		Autosaver: autosaver,
		FrameRate: cfg.FrameRate(),
		Logger:    logger,
		StartTime: startTime,
		DeviceID:  deviceID,
		Version:   config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sessions: registry,
			Autosave: autosaver,
			Logger:   logging.WithComponent(logger, "tray"),
			OnQuit:   quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	hub.Stop()

	if n, err := registry.SaveDirty(shutdownCtx); err != nil {
		logger.Error("final save failed", "error", err)
	} else if n > 0 {
		logger.Info("saved dirty projects on shutdown", "count", n)
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(out io.Writer, port int, authToken, deviceID string) {
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		fmt.Fprintf(out, "api_url=http://127.0.0.1:%d auth_token=%s device_id=%s\n", port, authToken, deviceID)
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔═══════════════════════════════════════════════════════════╗")
	fmt.Fprintf(out, "║  %-57s║\n", "HEIMDEX EDITOR "+config.Version)
	fmt.Fprintln(out, "╠═══════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  API URL:    http://127.0.0.1:%-28d║\n", port)
	fmt.Fprintf(out, "║  Auth Token: %-45s║\n", authToken)
	fmt.Fprintf(out, "║  Device ID:  %-45s║\n", deviceID)
	fmt.Fprintln(out, "╚═══════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
}

type configStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

func ensureDeviceID(repo configStore) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, configDeviceID)
	if err == nil && existing != "" {
		return existing, nil
	}

	deviceID := uuid.NewString()
	if err := repo.SetConfig(ctx, configDeviceID, deviceID); err != nil {
		return "", err
	}
	return deviceID, nil
}

func ensureAuthToken(repo configStore) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, store.ConfigAuthToken)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, store.ConfigAuthToken, token); err != nil {
		return "", err
	}
	return token, nil
}
