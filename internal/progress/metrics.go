package progress

import (
	"github.com/bazarr-bulk/bb/internal/metrics"
)

// MetricsReporter turns events into Prometheus counter updates.
type MetricsReporter struct{}

// Report implements Reporter.
func (MetricsReporter) Report(e Event) {
	switch e.Type {
	case EventPageFetched:
		metrics.RecordsTotal.WithLabelValues(e.Kind.String(), "fetched").Add(float64(e.Fetched))
		metrics.RecordsTotal.WithLabelValues(e.Kind.String(), "kept").Add(float64(e.Total))
	case EventItemSucceeded:
		metrics.SubtitleActionsTotal.WithLabelValues(e.Action.Code(), e.Kind.String(), metrics.StatusSuccess).Inc()
		result := "existing"
		if e.Newly {
			result = "inserted"
		}
		metrics.LedgerWritesTotal.WithLabelValues(e.Kind.String(), result).Inc()
	case EventItemFailed:
		metrics.SubtitleActionsTotal.WithLabelValues(e.Action.Code(), e.Kind.String(), metrics.StatusFailure).Inc()
	case EventItemSkipped:
		metrics.SubtitleActionsTotal.WithLabelValues(e.Action.Code(), e.Kind.String(), metrics.StatusSkipped).Inc()
	}
}
