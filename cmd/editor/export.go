package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	exportpkg "github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/session"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format    string
		out       string
		lang      string
		name      string
		frameRate float64
		listLangs bool
	)

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a project as EDL, captions, chapters or a bundle",
		Long: "Export a stored project. Single-file formats go to stdout unless --out names a file. " +
			"The bundle format writes one file per part into the --out directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case "edl", "srt", "vtt", "chapters", "bundle":
			default:
				return fmt.Errorf("unknown format %q (want edl, srt, vtt, chapters or bundle)", format)
			}
			if format == "bundle" && out == "" {
				return fmt.Errorf("--out is required for the bundle format")
			}

			return ctx.withRegistry(false, func(r *session.Registry) error {
				s, err := r.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				p := s.Project()
				if listLangs {
					for _, l := range exportpkg.CaptionLanguages(p) {
						fmt.Fprintln(cmd.OutOrStdout(), l)
					}
					return nil
				}
				if name == "" {
					name = s.Name()
				}

				var content string
				switch format {
				case "bundle":
					if err := os.MkdirAll(out, 0o755); err != nil {
						return fmt.Errorf("create output dir: %w", err)
					}
					bundle, err := exportpkg.Bundle(p, exportpkg.BundleOptions{})
					if err != nil {
						return err
					}
					files, err := exportpkg.WriteBundle(out, name, bundle)
					if err != nil {
						return err
					}
					for _, f := range files {
						fmt.Fprintln(cmd.OutOrStdout(), f)
					}
					return nil
				case "edl":
					if frameRate <= 0 {
						frameRate = ctx.cfg.FrameRate()
					}
					content = exportpkg.GenerateEDL(p, name, frameRate)
				case "srt":
					content = exportpkg.CaptionsSRT(p, lang)
				case "vtt":
					content = exportpkg.CaptionsVTT(p, lang)
				case "chapters":
					content, err = exportpkg.ChaptersJSON(p)
					if err != nil {
						return err
					}
				}

				if out == "" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), content)
					return err
				}
				if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "edl", "Export format: edl, srt, vtt, chapters or bundle")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, or directory for bundle")
	cmd.Flags().StringVar(&lang, "lang", "", "Caption language (srt, vtt)")
	cmd.Flags().StringVar(&name, "name", "", "Title used in the export (defaults to the project name)")
	cmd.Flags().Float64Var(&frameRate, "fps", 0, "EDL frame rate (defaults to editor.frame_rate)")
	cmd.Flags().BoolVar(&listLangs, "list-languages", false, "Print the caption languages and exit")
	return cmd
}
