package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bazarr-bulk/bb/internal/bulk"
	"github.com/bazarr-bulk/bb/internal/language"
	"github.com/bazarr-bulk/bb/internal/models"
)

type mediaOptions struct {
	ids           []int
	offset        int
	limit         int
	skipProcessed bool
	language      string
}

type syncOptions struct {
	reference      string
	maxOffset      int
	noFramerateFix bool
	gss            bool
}

func newMediaCommand(ctx *commandContext, target bulk.Target) *cobra.Command {
	opts := &mediaOptions{}

	cmd := &cobra.Command{
		Use:   targetCommand(target),
		Short: "Perform operations on " + targetNoun(target),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("%s requires an action", cmd.CommandPath())
		},
	}

	opts.addFlags(cmd.PersistentFlags())
	for _, kind := range models.AllActions {
		cmd.AddCommand(newActionCommand(ctx, target, kind, opts))
	}
	return cmd
}

func newActionCommand(ctx *commandContext, target bulk.Target, kind models.ActionKind, opts *mediaOptions) *cobra.Command {
	sync := &syncOptions{}

	cmd := &cobra.Command{
		Use:   kind.Command(),
		Short: kind.Description(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter(cmd.Flags())
			if err != nil {
				return err
			}
			action := models.NewAction(kind)
			if kind == models.ActionSync {
				action = models.NewSyncAction(sync.options())
			}
			return ctx.runBulk(cmd, target, action, filter)
		},
	}

	if kind == models.ActionSync {
		flags := cmd.Flags()
		flags.StringVar(&sync.reference, "reference", "", "Reference audio track (e.g. a:0) or subtitle file to sync against")
		flags.IntVar(&sync.maxOffset, "max-offset-seconds", 0, "Maximum offset in seconds to look for [default: server setting]")
		flags.BoolVar(&sync.noFramerateFix, "no-framerate-fix", false, "Do not try to fix framerate mismatches")
		flags.BoolVar(&sync.gss, "gss", false, "Use golden-section search")
	}
	return cmd
}

func (o *mediaOptions) addFlags(flags *pflag.FlagSet) {
	flags.IntSliceVar(&o.ids, "ids", nil, "Only process these IDs (comma separated); offset and limit are ignored")
	flags.IntVar(&o.offset, "offset", 0, "Skip N records")
	flags.IntVar(&o.limit, "limit", 0, "Limit to N records [default: unlimited]")
	flags.BoolVar(&o.skipProcessed, "skip-processed", false, "Skip subtitles already recorded as processed")
	flags.StringVar(&o.language, "language", "", "Only process subtitles in this language (e.g. en, eng, English)")
}

// filter turns the media flags into a run filter. The limit only applies when
// it was given on the command line.
func (o *mediaOptions) filter(flags *pflag.FlagSet) (models.Filter, error) {
	if o.offset < 0 {
		return models.Filter{}, fmt.Errorf("--offset must not be negative")
	}
	filter := models.Filter{
		IDs:           o.ids,
		Offset:        o.offset,
		SkipProcessed: o.skipProcessed,
	}
	if flags.Changed("limit") {
		if o.limit < 0 {
			return models.Filter{}, fmt.Errorf("--limit must not be negative")
		}
		limit := o.limit
		filter.Limit = &limit
	}
	if o.language != "" {
		code, err := language.Normalize(o.language)
		if err != nil {
			return models.Filter{}, fmt.Errorf("--language: %w", err)
		}
		filter.Language = code
	}
	return filter, nil
}

func (s *syncOptions) options() models.SyncOptions {
	return models.SyncOptions{
		Reference:        s.reference,
		MaxOffsetSeconds: s.maxOffset,
		NoFixFramerate:   s.noFramerateFix,
		GSS:              s.gss,
	}
}

func targetCommand(target bulk.Target) string {
	if target == bulk.TargetTVShows {
		return "tv-shows"
	}
	return "movies"
}

func targetNoun(target bulk.Target) string {
	if target == bulk.TargetTVShows {
		return "tv shows"
	}
	return "movies"
}
