// Package bulk applies one subtitle action to every matching movie or episode.
//
// Records are processed strictly in order, one subtitle at a time. Every
// outcome is reported as a progress.Event; the only errors returned are the
// ones that stop the run.
package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/client"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/progress"
	"github.com/bazarr-bulk/bb/internal/store"
)

// Target selects which inventory a run walks.
type Target int

const (
	TargetMovies Target = iota
	TargetTVShows
)

// Runner drives one bulk run.
type Runner struct {
	client   client.Client
	store    store.Store
	reporter progress.Reporter
}

// NewRunner wires a Runner. A nil reporter discards events.
func NewRunner(c client.Client, s store.Store, reporter progress.Reporter) *Runner {
	if reporter == nil {
		reporter = progress.Nop
	}
	return &Runner{client: c, store: s, reporter: reporter}
}

// Run checks the remote service and then walks the selected inventory.
// Nothing is fetched when the health check reports a fatal problem.
func (r *Runner) Run(ctx context.Context, target Target, action models.Action, filter models.Filter) error {
	if err := r.CheckHealth(ctx); err != nil {
		return err
	}
	switch target {
	case TargetMovies:
		return r.Movies(ctx, action, filter)
	case TargetTVShows:
		return r.TVShows(ctx, action, filter)
	default:
		return fmt.Errorf("unknown target %d", target)
	}
}

// CheckHealth returns an error only when the run cannot go on: the service is
// unreachable or the API key is rejected. Other answers are logged.
func (r *Runner) CheckHealth(ctx context.Context) error {
	logger := config.GetLogger()

	status, err := r.client.CheckHealth(ctx)
	if err != nil {
		if apperrors.IsFatal(err) || ctx.Err() != nil {
			return err
		}
		logger.Warn().Err(err).Msg("Health check returned an unexpected answer, continuing")
		return nil
	}
	if status.Version == "" {
		logger.Warn().Msg("Health check succeeded but no version was reported, continuing")
		return nil
	}
	logger.Info().Str("version", status.Version).Msg("Connected to remote service")
	return nil
}

// Movies applies action to every movie matching filter.
func (r *Runner) Movies(ctx context.Context, action models.Action, filter models.Filter) error {
	movies, err := r.client.ListMovies(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetch movies: %w", err)
	}

	records := make([]models.Record, len(movies))
	for i, m := range movies {
		records[i] = m.Record()
	}
	return r.processPage(ctx, models.KindMovie, action, filter, records)
}

// TVShows applies action to every episode of every series matching filter.
// A series whose episodes cannot be fetched is reported and skipped.
func (r *Runner) TVShows(ctx context.Context, action models.Action, filter models.Filter) error {
	logger := config.GetLogger()

	series, err := r.client.ListSeries(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetch series: %w", err)
	}
	if len(series) == 0 {
		r.reporter.Report(progress.Event{Type: progress.EventPageFetched, Kind: models.KindShow, Action: action.Kind})
		return nil
	}

	for _, show := range series {
		if err := ctx.Err(); err != nil {
			return err
		}

		episodes, err := r.client.ListEpisodes(ctx, show.SonarrSeriesID)
		if err != nil {
			if apperrors.IsFatal(err) || errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error().Err(err).Int("series_id", show.SonarrSeriesID).Str("series", show.Title).Msg("Failed to fetch episodes, skipping series")
			r.reporter.Report(progress.Event{
				Type:     progress.EventItemFailed,
				Kind:     models.KindShow,
				Action:   action.Kind,
				RecordID: show.SonarrSeriesID,
				Title:    show.Title,
				Err:      err,
			})
			continue
		}

		records := make([]models.Record, len(episodes))
		for i, ep := range episodes {
			records[i] = ep.Record(show.Title)
		}
		if err := r.processPage(ctx, models.KindEpisode, action, filter, records); err != nil {
			return err
		}
	}
	return nil
}

// processPage filters one fetched page and dispatches its records in order.
func (r *Runner) processPage(ctx context.Context, kind models.Kind, action models.Action, filter models.Filter, records []models.Record) error {
	fetched := len(records)
	if filter.SkipProcessed {
		kept, err := store.FilterUnprocessed(ctx, r.store, kind, records)
		if err != nil {
			return err
		}
		records = kept
	}

	r.reporter.Report(progress.Event{
		Type:    progress.EventPageFetched,
		Kind:    kind,
		Action:  action.Kind,
		Fetched: fetched,
		Total:   len(records),
	})

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processRecord(ctx, action, filter, rec, i+1, len(records)); err != nil {
			return err
		}
	}
	return nil
}
