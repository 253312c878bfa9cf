package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath(*ctx.dataDirFlag)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := cfg.ConfigPath()
			if !cfg.ConfigLoaded() {
				source += " (not found, defaults used)"
			}
			noOverlap := "caption (default)"
			if types := cfg.NoOverlap(); types != nil {
				names := make([]string, len(types))
				for i, t := range types {
					names[i] = string(t)
				}
				noOverlap = strings.Join(names, ", ")
				if noOverlap == "" {
					noOverlap = "(none)"
				}
			}
			origins := strings.Join(cfg.AllowedOrigins(), ", ")
			if origins == "" {
				origins = "(any)"
			}

			rows := [][]string{
				{"config", source},
				{"data_dir", cfg.DataDir()},
				{"port", strconv.Itoa(cfg.Port())},
				{"log_level", cfg.LogLevel()},
				{"headless", strconv.FormatBool(cfg.Headless())},
				{"media_root", cfg.MediaRoot()},
				{"allowed_origins", origins},
				{"history_limit", strconv.Itoa(cfg.HistoryLimit())},
				{"no_overlap", noOverlap},
				{"frame_rate", strconv.FormatFloat(cfg.FrameRate(), 'f', -1, 64)},
				{"snap_threshold", strconv.FormatFloat(cfg.SnapThreshold(), 'f', -1, 64)},
				{"autosave", cfg.AutosaveInterval().String()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}
