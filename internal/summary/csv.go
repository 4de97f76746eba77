package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/timecalc"
)

// CSV renders one row per task in board order. doing_minutes is the live
// doing time at now, in whole minutes.
func CSV(tasks []model.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("id,status,content,created_at,started_at,completed_at,doing_minutes\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%d\n",
			csvEscape(t.ID),
			csvEscape(string(t.Status)),
			csvEscape(t.Content),
			csvEscape(t.CreatedAt.Format(time.RFC3339)),
			csvEscape(formatOptional(t.StartedAt)),
			csvEscape(formatOptional(t.CompletedAt)),
			timecalc.LiveDoingMs(t, now)/60000,
		)
	}
	return b.String()
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
