package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage stored projects",
	}
	cmd.AddCommand(newProjectsListCommand(ctx))
	cmd.AddCommand(newProjectsCreateCommand(ctx))
	cmd.AddCommand(newProjectsDeleteCommand(ctx))
	cmd.AddCommand(newProjectsSnapshotsCommand(ctx))
	cmd.AddCommand(newProjectsRestoreCommand(ctx))
	return cmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(false, func(r *session.Registry) error {
				records, err := r.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.ID,
						rec.Name,
						strconv.Itoa(rec.Version),
						rec.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Version", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newProjectsCreateCommand(ctx *commandContext) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project, optionally from an exported project document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *timeline.Project
			if from != "" {
				data, err := os.ReadFile(from)
				if err != nil {
					return fmt.Errorf("read project document: %w", err)
				}
				p, err := timeline.ParseDocument(data)
				if err != nil {
					return fmt.Errorf("parse %s: %w", from, err)
				}
				doc = &p
			}

			return ctx.withRegistry(true, func(r *session.Registry) error {
				var (
					s   *session.Session
					err error
				)
				if doc != nil {
					s, err = r.Import(cmd.Context(), args[0], *doc)
				} else {
					s, err = r.Create(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Project document (JSON) to import")
	return cmd
}

func newProjectsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project and its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(true, func(r *session.Registry) error {
				if err := r.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newProjectsSnapshotsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "snapshots ID",
		Short: "List saved versions of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(false, func(r *session.Registry) error {
				snaps, err := r.Snapshots(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
					return nil
				}
				rows := make([][]string, 0, len(snaps))
				for _, s := range snaps {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						strconv.Itoa(s.Version),
						s.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Snapshot", "Version", "Saved"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots")
	return cmd
}

func newProjectsRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID SNAPSHOT",
		Short: "Restore a snapshot as a new project version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q", args[1])
			}
			return ctx.withRegistry(true, func(r *session.Registry) error {
				if err := r.Restore(cmd.Context(), args[0], snapshotID); err != nil {
					return err
				}
				s, _ := r.Get(args[0])
				if err := r.Save(cmd.Context(), s); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %d as version %d\n", snapshotID, s.Project().Version)
				return nil
			})
		},
	}
}
