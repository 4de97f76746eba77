package timecalc

import (
	"fmt"
	"time"

	"github.com/Tiliavir/work-board/internal/model"
)

// LiveDoingMs returns the time a task has spent in doing as of now: the
// closed total plus the currently open interval, if any.
func LiveDoingMs(t model.Task, now time.Time) int64 {
	total := t.DoingTotalMs
	if t.DoingStartAt != nil {
		total += ElapsedMs(*t.DoingStartAt, now)
	}
	return total
}

// ElapsedMs returns now-since in milliseconds, clamped at zero so a clock
// moving backwards never shrinks an accumulated duration.
func ElapsedMs(since, now time.Time) int64 {
	ms := now.Sub(since).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// FormatDurationMs formats milliseconds as "1h 40m" or "45m".
// Anything below one minute, including non-positive input, is "0m".
func FormatDurationMs(ms int64) string {
	if ms <= 0 {
		return "0m"
	}
	totalMinutes := ms / 60000
	h := totalMinutes / 60
	m := totalMinutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatClock formats d as HH:MM:SS.
func FormatClock(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// WeekRange returns the Monday and Sunday of the week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	monday := WeekStart(t)
	sunday := monday.AddDate(0, 0, 6)
	return monday, EndOfDay(sunday)
}

// WeekStart returns 00:00:00 on the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as the last day
	}
	return StartOfDay(t.AddDate(0, 0, -(wd - 1)))
}

// WeekLabel returns a label like "2024-01-01 ~ 2024-01-07".
func WeekLabel(t time.Time) string {
	monday, sunday := WeekRange(t)
	return DateKey(monday) + " ~ " + DateKey(sunday)
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
