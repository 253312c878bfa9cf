package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/timecode"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

const maxLabelLen = 40

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var frames bool

	cmd := &cobra.Command{
		Use:   "inspect ID",
		Short: "Show the tracks and elements of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(false, func(r *session.Registry) error {
				s, err := r.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fps := int(math.Round(ctx.cfg.FrameRate()))
				format := timecode.FormatSimple
				if frames {
					format = func(sec float64) string { return timecode.FormatWithFrames(sec, fps) }
				}

				p := s.Project()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", s.Name(), p.ID)
				fmt.Fprintf(out, "Version %d, %d tracks, duration %s\n", p.Version, len(p.Tracks), format(p.Duration()))

				if chapters, err := p.Chapters(); err == nil && len(chapters) > 0 {
					fmt.Fprintf(out, "%d chapters\n", len(chapters))
				}
				if len(p.Tracks) == 0 {
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Track", "Type", "Element", "Kind", "Start", "End", "Label"},
					inspectRows(p, format),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&frames, "frames", false, "Show timecodes with frame numbers")
	return cmd
}

func inspectRows(p timeline.Project, format func(float64) string) [][]string {
	var rows [][]string
	for i, t := range p.Tracks {
		idx := strconv.Itoa(i + 1)
		if len(t.Elements) == 0 {
			rows = append(rows, []string{idx, t.Name, string(t.Type), "-", "", "", "", ""})
			continue
		}
		for _, el := range t.Elements {
			rows = append(rows, []string{
				idx,
				t.Name,
				string(t.Type),
				el.ID,
				string(el.Kind),
				format(el.Start),
				format(el.End),
				elementLabel(el),
			})
		}
	}
	return rows
}

func elementLabel(el timeline.Element) string {
	var label string
	switch el.Kind {
	case timeline.KindVideo, timeline.KindImage:
		label = filepath.Base(el.Media.Src)
	case timeline.KindAudio:
		label = filepath.Base(el.Sound.Src)
	case timeline.KindText:
		label = el.Overlay.Text
	case timeline.KindCaption:
		label = el.Cue.Text
		if el.Cue.Lang != "" {
			label = "[" + el.Cue.Lang + "] " + label
		}
	}
	if r := []rune(label); len(r) > maxLabelLen {
		label = string(r[:maxLabelLen-1]) + "…"
	}
	return label
}
