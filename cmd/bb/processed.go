package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/progress"
)

func newProcessedCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processed",
		Short: "Inspect the processed-subtitle ledger",
	}
	cmd.AddCommand(newProcessedListCommand(ctx))
	return cmd
}

func newProcessedListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "list <movies|episodes>",
		Short:     "List processed subtitles, newest first",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"movies", "episodes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseKind(args[0])
			if err != nil {
				return err
			}
			if kind != models.KindMovie && kind != models.KindEpisode {
				return fmt.Errorf("only movies and episodes are recorded, got %q", args[0])
			}

			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			logCloser := config.ConfigureLogger(cfg)
			defer logCloser.Close()

			ledger, _, _, err := openLedger(cfg, false)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.List(cmd.Context(), kind, limit)
			if err != nil {
				return fmt.Errorf("list processed %s: %w", kind.Plural(), err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No processed %s\n", kind.Plural())
				return nil
			}
			fmt.Fprintln(out, progress.RenderLedger(entries))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N entries [default: all]")
	return cmd
}
