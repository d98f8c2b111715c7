package progress

import (
	"strconv"
	"time"

	"github.com/bazarr-bulk/bb/internal/models"
)

// RenderLedger renders processed-ledger entries as a table, one row per (record, language).
func RenderLedger(entries []models.ProcessedEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		language := e.LanguageCode
		if e.LanguageName != "" {
			language = e.LanguageName + " (" + e.LanguageCode + ")"
		}
		rows = append(rows, []string{
			strconv.Itoa(e.MediaID),
			e.Title,
			language,
			e.Path,
			e.ProcessedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Language", "Path", "Processed At"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
