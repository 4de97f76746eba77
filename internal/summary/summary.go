// Package summary renders the board as a week-grouped progress report and
// as raw export formats.
package summary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/timecalc"
)

// UnstartedLabel heads the group of tasks that never entered doing.
const UnstartedLabel = "Unstarted"

// Options controls report rendering.
type Options struct {
	// Now is the export moment; live durations are measured up to it.
	Now time.Time
	// Location is used for week boundaries and printed times. Nil means Local.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// FileName returns the suggested report file name for an export at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("work-summary-%s.md", timecalc.DateKey(t))
}

// group is one week section of a status.
type group struct {
	label string
	start time.Time // zero for the unstarted group
	tasks []model.Task
}

// Markdown renders the report: one section per status in board order, each
// split into week groups by start date.
func Markdown(tasks []model.Task, opts Options) string {
	loc := opts.location()
	var b strings.Builder

	b.WriteString("# Work Log\n\n")
	fmt.Fprintf(&b, "Exported: %s\n\n", opts.Now.In(loc).Format("2006-01-02 15:04:05"))

	for _, status := range model.Statuses {
		fmt.Fprintf(&b, "## %s\n", strings.ToUpper(string(status)))

		groups := groupByWeek(tasks, status, loc)
		if len(groups) == 0 {
			b.WriteString("- (none)\n\n")
			continue
		}
		for _, g := range groups {
			fmt.Fprintf(&b, "### %s\n", g.label)
			for _, t := range g.tasks {
				fmt.Fprintf(&b, "- %s\n", t.Content)
				fmt.Fprintf(&b, "  - Total: %s\n", timecalc.FormatDurationMs(timecalc.LiveDoingMs(t, opts.Now)))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// groupByWeek collects the tasks of one status into week groups ordered by
// week, with the unstarted group last. Tasks inside a group are ordered by
// start time; ties keep board order.
func groupByWeek(tasks []model.Task, status model.Status, loc *time.Location) []group {
	byLabel := map[string]*group{}
	var order []*group

	for _, t := range tasks {
		if t.Status != status {
			continue
		}
		label := UnstartedLabel
		var start time.Time
		if t.StartedAt != nil {
			at := t.StartedAt.In(loc)
			label = timecalc.WeekLabel(at)
			start = timecalc.WeekStart(at)
		}
		g, ok := byLabel[label]
		if !ok {
			g = &group{label: label, start: start}
			byLabel[label] = g
			order = append(order, g)
		}
		g.tasks = append(g.tasks, t)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.start.IsZero() != b.start.IsZero() {
			return b.start.IsZero()
		}
		return a.start.Before(b.start)
	})

	out := make([]group, len(order))
	for i, g := range order {
		sort.SliceStable(g.tasks, func(x, y int) bool {
			return startedMillis(g.tasks[x]) < startedMillis(g.tasks[y])
		})
		out[i] = *g
	}
	return out
}

// startedMillis orders unstarted tasks before any started one.
func startedMillis(t model.Task) int64 {
	if t.StartedAt == nil {
		return 0
	}
	return t.StartedAt.UnixMilli()
}

// JSON returns the task list in its persisted shape.
func JSON(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return append(data, '\n'), nil
}
