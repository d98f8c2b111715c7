package testutil

import (
	"github.com/bazarr-bulk/bb/internal/models"
)

// IntPtr is a helper for creating *int values in tests
func IntPtr(v int) *int {
	return &v
}

// StrPtr is a helper for creating *string values in tests
func StrPtr(v string) *string {
	return &v
}

// Sub builds a valid subtitle with the given path and two-letter code.
func Sub(path, code string) models.Subtitle {
	return models.Subtitle{Path: StrPtr(path), Code2: StrPtr(code), Name: code}
}

// MissingPathSub builds a subtitle the remote service lists but has no file for.
func MissingPathSub(code string) models.Subtitle {
	return models.Subtitle{Code2: StrPtr(code), Name: code}
}

// Movie builds a movie fixture.
func Movie(id int, title string, subs ...models.Subtitle) models.Movie {
	return models.Movie{RadarrID: id, Title: title, Subtitles: subs}
}

// Show builds a series fixture.
func Show(id int, title string) models.Show {
	return models.Show{SonarrSeriesID: id, Title: title}
}

// Episode builds an episode fixture.
func Episode(id, seriesID, season, number int, title string, subs ...models.Subtitle) models.Episode {
	return models.Episode{
		SonarrEpisodeID: id,
		SonarrSeriesID:  seriesID,
		Title:           title,
		Season:          season,
		Episode:         number,
		Subtitles:       subs,
	}
}
