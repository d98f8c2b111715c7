package progress

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Failure is one failed dispatch kept for the summary.
type Failure struct {
	Title      string
	Language   string
	StatusCode int
	Reason     string
}

// Tally counts outcomes over a run.
type Tally struct {
	mu        sync.Mutex
	started   time.Time
	Fetched   int
	Records   int
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
}

// NewTally starts counting now.
func NewTally() *Tally {
	return &Tally{started: time.Now()}
}

// Report implements Reporter.
func (t *Tally) Report(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case EventPageFetched:
		t.Fetched += e.Fetched
	case EventRecordStarted:
		t.Records++
	case EventItemSucceeded:
		t.Succeeded++
	case EventItemSkipped:
		t.Skipped++
	case EventItemFailed:
		t.Failed++
		reason := e.Body
		if reason == "" && e.Err != nil {
			reason = e.Err.Error()
		}
		t.Failures = append(t.Failures, Failure{
			Title:      e.Title,
			Language:   e.Language,
			StatusCode: e.StatusCode,
			Reason:     reason,
		})
	}
}

// Elapsed returns the time since the tally started.
func (t *Tally) Elapsed() time.Duration {
	return time.Since(t.started)
}

// Snapshot returns a copy safe to read while events are still arriving.
func (t *Tally) Snapshot() Tally {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Tally{
		started:   t.started,
		Fetched:   t.Fetched,
		Records:   t.Records,
		Succeeded: t.Succeeded,
		Failed:    t.Failed,
		Skipped:   t.Skipped,
		Failures:  append([]Failure(nil), t.Failures...),
	}
}

// RenderSummary renders the outcome counts and any failures as tables.
func RenderSummary(t *Tally) string {
	s := t.Snapshot()
	out := renderTable(
		[]string{"Fetched", "Processed", "Succeeded", "Failed", "Skipped", "Elapsed"},
		[][]string{{
			strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Skipped),
			t.Elapsed().Round(time.Second).String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
	if len(s.Failures) == 0 {
		return out
	}

	rows := make([][]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows = append(rows, []string{f.Title, f.Language, status, text.Trim(f.Reason, 80)})
	}
	return out + "\n" + renderTable(
		[]string{"Title", "Language", "Status", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// String implements fmt.Stringer with a one-line summary.
func (t *Tally) String() string {
	s := t.Snapshot()
	return fmt.Sprintf("%d records, %d succeeded, %d failed, %d skipped", s.Records, s.Succeeded, s.Failed, s.Skipped)
}
