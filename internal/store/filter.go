package store

import (
	"context"

	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

// FilterUnprocessed drops records whose every valid subtitle language is already recorded.
//
// Records with no recorded pair at all are kept after a single bulk lookup; only
// records with at least one recorded pair are checked per subtitle. Records with
// no valid subtitle are always kept, since filtering judges processed status only.
// Input order is preserved.
func FilterUnprocessed(ctx context.Context, s Store, kind models.Kind, records []models.Record) ([]models.Record, error) {
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]int, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	processed, err := s.ProcessedIDs(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	logger := config.GetLogger()
	kept := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if !processed[rec.ID] {
			kept = append(kept, rec)
			continue
		}

		keep, err := hasUnprocessed(ctx, s, kind, rec)
		if err != nil {
			return nil, err
		}
		if keep {
			kept = append(kept, rec)
			continue
		}
		logger.Debug().Str("kind", kind.String()).Int("id", rec.ID).Str("title", rec.Title).Msg("Skipping already processed record")
	}
	return kept, nil
}

// hasUnprocessed reports whether rec has a valid subtitle not yet recorded,
// or no valid subtitle at all.
func hasUnprocessed(ctx context.Context, s Store, kind models.Kind, rec models.Record) (bool, error) {
	valid := 0
	for _, sub := range rec.Subtitles {
		if !sub.Valid() {
			continue
		}
		valid++
		done, err := s.IsProcessed(ctx, kind, rec.ID, sub.LanguageCode())
		if err != nil {
			return false, err
		}
		if !done {
			return true, nil
		}
	}
	return valid == 0, nil
}
