package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/progress"
)

// processRecord dispatches every eligible subtitle of rec in API order.
func (r *Runner) processRecord(ctx context.Context, action models.Action, filter models.Filter, rec models.Record, index, total int) error {
	logger := config.GetLogger()

	r.reporter.Report(progress.Event{
		Type:     progress.EventRecordStarted,
		Kind:     rec.Kind,
		Action:   action.Kind,
		RecordID: rec.ID,
		Title:    rec.Title,
		Index:    index,
		Total:    total,
	})

	for _, sub := range rec.Subtitles {
		if !sub.Valid() {
			logger.Debug().Int("id", rec.ID).Str("title", rec.Title).Str("name", sub.Name).Msg("Skipping subtitle without path or language")
			continue
		}
		if !filter.MatchesLanguage(sub) {
			logger.Debug().Int("id", rec.ID).Str("language", sub.LanguageCode()).Msg("Skipping subtitle outside language filter")
			continue
		}

		if filter.SkipProcessed {
			done, err := r.store.IsProcessed(ctx, rec.Kind, rec.ID, sub.LanguageCode())
			if err != nil {
				return err
			}
			if done {
				r.reporter.Report(itemEvent(progress.EventItemSkipped, rec, sub, action))
				continue
			}
		}

		if err := r.dispatch(ctx, rec, sub, action); err != nil {
			return err
		}
	}

	r.reporter.Report(progress.Event{
		Type:     progress.EventRecordFinished,
		Kind:     rec.Kind,
		Action:   action.Kind,
		RecordID: rec.ID,
		Title:    rec.Title,
		Index:    index,
		Total:    total,
	})
	return nil
}

// dispatch sends one action and records the pair on success.
// Rejections are reported and swallowed; only fatal errors are returned.
func (r *Runner) dispatch(ctx context.Context, rec models.Record, sub models.Subtitle, action models.Action) error {
	req := models.NewActionRequest(rec, sub, action)
	r.reporter.Report(itemEvent(progress.EventItemStarted, rec, sub, action))

	if err := r.client.ApplyAction(ctx, req); err != nil {
		failed := itemEvent(progress.EventItemFailed, rec, sub, action)
		failed.Err = err
		var statusErr *apperrors.StatusError
		if errors.As(err, &statusErr) {
			failed.StatusCode = statusErr.StatusCode
			failed.Body = statusErr.Body
		}
		r.reporter.Report(failed)

		if apperrors.IsFatal(err) || ctx.Err() != nil {
			return err
		}
		return nil
	}

	inserted, err := r.store.MarkProcessed(ctx, rec.Kind, rec.ID, rec.Title, sub)
	if err != nil {
		return fmt.Errorf("record processed subtitle: %w", err)
	}

	succeeded := itemEvent(progress.EventItemSucceeded, rec, sub, action)
	succeeded.Newly = inserted
	r.reporter.Report(succeeded)
	return nil
}

func itemEvent(t progress.EventType, rec models.Record, sub models.Subtitle, action models.Action) progress.Event {
	return progress.Event{
		Type:     t,
		Kind:     rec.Kind,
		Action:   action.Kind,
		RecordID: rec.ID,
		Title:    rec.Title,
		Language: sub.LanguageCode(),
		Path:     sub.FilePath(),
	}
}
