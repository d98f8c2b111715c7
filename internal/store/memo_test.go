package store

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bazarr-bulk/bb/internal/metrics"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/testutil"
)

// countingStore counts backend lookups.
type countingStore struct {
	Store
	lookups int
	failing bool
}

func (c *countingStore) IsProcessed(ctx context.Context, kind models.Kind, id int, languageCode string) (bool, error) {
	c.lookups++
	if c.failing {
		return false, errors.New("backend down")
	}
	return c.Store.IsProcessed(ctx, kind, id, languageCode)
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	s, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &countingStore{Store: s}
}

func TestMemoize_RecordedPairsSkipBackend(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	backend := newCountingStore(t)
	s := Memoize(backend, 0)

	_, err := backend.Store.MarkProcessed(ctx, models.KindMovie, 1, "One", testutil.Sub("/1.en.srt", "en"))
	require.NoError(err)

	memoBefore := promtest.ToFloat64(metrics.LedgerLookupsTotal.WithLabelValues(metrics.LookupMemo))

	for range 3 {
		done, err := s.IsProcessed(ctx, models.KindMovie, 1, "en")
		require.NoError(err)
		require.True(done)
	}
	require.Equal(1, backend.lookups)
	require.Equal(memoBefore+2, promtest.ToFloat64(metrics.LedgerLookupsTotal.WithLabelValues(metrics.LookupMemo)))
}

func TestMemoize_UnrecordedPairsAlwaysAskBackend(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	backend := newCountingStore(t)
	s := Memoize(backend, 8)

	for range 2 {
		done, err := s.IsProcessed(ctx, models.KindEpisode, 9, "fr")
		require.NoError(err)
		require.False(done)
	}
	require.Equal(2, backend.lookups)

	inserted, err := s.MarkProcessed(ctx, models.KindEpisode, 9, "Pilot", testutil.Sub("/9.fr.srt", "fr"))
	require.NoError(err)
	require.True(inserted)

	done, err := s.IsProcessed(ctx, models.KindEpisode, 9, "fr")
	require.NoError(err)
	require.True(done)
	require.Equal(2, backend.lookups, "a pair marked through the memo is answered from memory")

	// Duplicates are remembered too.
	inserted, err = s.MarkProcessed(ctx, models.KindEpisode, 9, "Pilot", testutil.Sub("/9.fr.srt", "fr"))
	require.NoError(err)
	require.False(inserted)
}

func TestMemoize_BackendErrorsPassThrough(t *testing.T) {
	backend := newCountingStore(t)
	backend.failing = true
	s := Memoize(backend, 8)

	_, err := s.IsProcessed(context.Background(), models.KindMovie, 1, "en")
	require.Error(t, err)

	backend.failing = false
	done, err := s.IsProcessed(context.Background(), models.KindMovie, 1, "en")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 2, backend.lookups)
}

func TestMemoize_FilterUnprocessedReusesAnswers(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	backend := newCountingStore(t)
	s := Memoize(backend, 0)

	rec := models.Record{
		Kind:      models.KindMovie,
		ID:        3,
		Title:     "Three",
		Subtitles: []models.Subtitle{testutil.Sub("/3.en.srt", "en"), testutil.Sub("/3.de.srt", "de")},
	}
	_, err := s.MarkProcessed(ctx, models.KindMovie, 3, "Three", rec.Subtitles[0])
	require.NoError(err)

	kept, err := FilterUnprocessed(ctx, s, models.KindMovie, []models.Record{rec})
	require.NoError(err)
	require.Len(kept, 1)

	// en was answered from memory and only de reached the backend.
	require.Equal(1, backend.lookups)
	lookups := backend.lookups
	done, err := s.IsProcessed(ctx, models.KindMovie, 3, "en")
	require.NoError(err)
	require.True(done)
	require.Equal(lookups, backend.lookups)
}
