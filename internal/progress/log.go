package progress

import (
	"github.com/rs/zerolog"
)

// LogReporter writes one structured log line per event.
type LogReporter struct {
	Logger zerolog.Logger
}

// NewLogReporter returns a LogReporter writing to logger.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{Logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(e Event) {
	switch e.Type {
	case EventPageFetched:
		if e.Total == 0 {
			r.Logger.Info().Str("kind", e.Kind.Plural()).Int("fetched", e.Fetched).Msg("No records found")
			return
		}
		r.Logger.Info().Str("kind", e.Kind.Plural()).Int("fetched", e.Fetched).Int("to_process", e.Total).Msg("Fetched records")
	case EventRecordStarted:
		r.Logger.Info().
			Str("kind", e.Kind.String()).
			Int("id", e.RecordID).
			Int("index", e.Index).
			Int("total", e.Total).
			Msgf("Processing %s", e.Title)
	case EventRecordFinished:
		r.Logger.Debug().Str("kind", e.Kind.String()).Int("id", e.RecordID).Msg("Finished record")
	case EventItemStarted:
		r.item(r.Logger.Debug(), e).Msg("Dispatching subtitle action")
	case EventItemSucceeded:
		r.item(r.Logger.Info(), e).Bool("new_entry", e.Newly).Msg("Subtitle action succeeded")
	case EventItemFailed:
		evt := r.item(r.Logger.Error(), e)
		if e.StatusCode != 0 {
			evt = evt.Int("status", e.StatusCode)
		}
		if e.Body != "" {
			evt = evt.Str("body", e.Body)
		}
		evt.Err(e.Err).Msg("Subtitle action failed")
	case EventItemSkipped:
		r.item(r.Logger.Info(), e).Msg("Subtitle already processed, skipping")
	}
}

func (r *LogReporter) item(evt *zerolog.Event, e Event) *zerolog.Event {
	return evt.
		Str("action", e.Action.String()).
		Str("kind", e.Kind.String()).
		Int("id", e.RecordID).
		Str("title", e.Title).
		Str("language", e.Language).
		Str("path", e.Path)
}
