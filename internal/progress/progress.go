// Package progress carries structured run events from the bulk pipeline to
// whatever renders them. The pipeline never formats text itself.
package progress

import (
	"sync"

	"github.com/bazarr-bulk/bb/internal/models"
)

// EventType identifies what happened.
type EventType int

const (
	// EventPageFetched summarises a fetched (and filtered) page of records.
	EventPageFetched EventType = iota
	// EventRecordStarted marks the start of work on one record.
	EventRecordStarted
	// EventRecordFinished marks the end of work on one record.
	EventRecordFinished
	// EventItemStarted is emitted before a subtitle action is dispatched.
	EventItemStarted
	// EventItemSucceeded is emitted after the remote service accepted the action.
	EventItemSucceeded
	// EventItemFailed is emitted when the action was rejected or could not be sent.
	EventItemFailed
	// EventItemSkipped is emitted for a subtitle already recorded as processed.
	EventItemSkipped
)

func (t EventType) String() string {
	switch t {
	case EventPageFetched:
		return "page_fetched"
	case EventRecordStarted:
		return "record_started"
	case EventRecordFinished:
		return "record_finished"
	case EventItemStarted:
		return "item_started"
	case EventItemSucceeded:
		return "item_succeeded"
	case EventItemFailed:
		return "item_failed"
	case EventItemSkipped:
		return "item_skipped"
	default:
		return "unknown"
	}
}

// Event is one progress notification. Fields not relevant to Type are zero.
type Event struct {
	Type   EventType
	Kind   models.Kind
	Action models.ActionKind

	RecordID int
	Title    string
	Language string
	Path     string

	// Index is the 1-based position of the record in its page; Total is the page size.
	Index int
	Total int
	// Fetched is the page size before dedup filtering.
	Fetched int

	StatusCode int
	Body       string
	Err        error
	// Newly reports whether a success created a new ledger entry.
	Newly bool
}

// Reporter consumes events. Implementations must not block for long.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Fanout forwards every event to each reporter in order.
type Fanout []Reporter

// Report implements Reporter.
func (f Fanout) Report(e Event) {
	for _, r := range f {
		if r != nil {
			r.Report(e)
		}
	}
}

// Nop discards events.
var Nop Reporter = ReporterFunc(func(Event) {})

// Recorder keeps every event, e.g. for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Of returns the recorded events of one type.
func (r *Recorder) Of(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
