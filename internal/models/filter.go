package models

import "time"

// Filter narrows which records a run requests and acts on.
type Filter struct {
	// IDs, when non-empty, fully determines the requested records; Offset and Limit are ignored.
	IDs    []int
	Offset int
	// Limit is nil for "no limit".
	Limit *int
	// Language restricts dispatch to subtitles with this two-letter code.
	Language string
	// SkipProcessed drops records and subtitles already recorded in the dedup store.
	SkipProcessed bool
}

// Paginated reports whether offset/limit query parameters apply.
func (f Filter) Paginated() bool {
	return len(f.IDs) == 0 && (f.Limit != nil || f.Offset > 0)
}

// MatchesLanguage reports whether a subtitle passes the language filter.
func (f Filter) MatchesLanguage(sub Subtitle) bool {
	return f.Language == "" || sub.LanguageCode() == f.Language
}

// ProcessedEntry is one row of the dedup ledger.
type ProcessedEntry struct {
	Kind         Kind
	MediaID      int
	Title        string
	LanguageCode string
	LanguageName string
	Path         string
	ProcessedAt  time.Time
}
