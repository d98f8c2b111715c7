package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// TerminalReporter draws one progress bar per fetched page on an interactive terminal.
// Failures are printed above the bars.
type TerminalReporter struct {
	pw      progress.Writer
	tracker *progress.Tracker
}

// NewTerminalReporter starts rendering to out. Call Stop when the run ends.
func NewTerminalReporter(out io.Writer) *TerminalReporter {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetMessageLength(32)
	pw.SetStyle(progress.StyleDefault)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true
	pw.Style().Visibility.Value = true

	go pw.Render()
	return &TerminalReporter{pw: pw}
}

// Report implements Reporter.
func (r *TerminalReporter) Report(e Event) {
	switch e.Type {
	case EventPageFetched:
		r.finishTracker()
		if e.Total == 0 {
			r.pw.Log("No %s found", e.Kind.Plural())
			return
		}
		r.tracker = &progress.Tracker{
			Message: fmt.Sprintf("%s: %s", e.Action.Command(), e.Kind.Plural()),
			Total:   int64(e.Total),
			Units:   progress.UnitsDefault,
		}
		r.pw.AppendTracker(r.tracker)
	case EventRecordFinished:
		if r.tracker != nil {
			r.tracker.Increment(1)
		}
	case EventItemFailed:
		if e.StatusCode != 0 {
			r.pw.Log("failed: %s [%s] status %d", e.Title, e.Language, e.StatusCode)
		} else {
			r.pw.Log("failed: %s [%s] %v", e.Title, e.Language, e.Err)
		}
	}
}

func (r *TerminalReporter) finishTracker() {
	if r.tracker != nil && !r.tracker.IsDone() {
		r.tracker.MarkAsDone()
	}
}

// Stop completes the active bar and waits for the final render.
func (r *TerminalReporter) Stop() {
	r.finishTracker()
	// Let the renderer draw the completed state before stopping.
	time.Sleep(150 * time.Millisecond)
	r.pw.Stop()
	for r.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
