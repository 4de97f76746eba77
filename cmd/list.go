package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/timecalc"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "board"},
	Short:   "Show the board with live doing durations",
	Args:    usageArgs(cobra.NoArgs),
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show one column: todo, doing, done")
}

func runList(cmd *cobra.Command, args []string) error {
	var only model.Status
	if listStatus != "" {
		st, err := parseStatusArg(listStatus)
		if err != nil {
			return err
		}
		only = st
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	printBoard(cmd.OutOrStdout(), s.board.Tasks(), s.board.Now(), s.loc, only)
	return nil
}

// printBoard writes the board column by column. The first task in doing is
// marked as the current focus. An empty only prints every column.
func printBoard(w io.Writer, tasks []model.Task, now time.Time, loc *time.Location, only model.Status) {
	for _, status := range model.Statuses {
		if only != "" && status != only {
			continue
		}
		column := board.ByStatus(tasks, status)
		fmt.Fprintf(w, "%s (%d)\n", strings.ToUpper(string(status)), len(column))
		if len(column) == 0 {
			fmt.Fprintln(w, "  –")
		}
		for i, t := range column {
			marker := " "
			if status == model.StatusDoing && i == 0 {
				marker = "*"
			}
			check := "[ ]"
			if t.Completed {
				check = "[x]"
			}
			fmt.Fprintf(w, "%s %s %s  %s\n", marker, check, shortID(t.ID), t.Content)
			fmt.Fprintf(w, "      %s\n", taskMeta(t, now, loc))
		}
		fmt.Fprintln(w)
	}
}

// taskMeta is the detail line under each task.
func taskMeta(t model.Task, now time.Time, loc *time.Location) string {
	meta := fmt.Sprintf("created %s | started %s | done %s | doing %s",
		formatStamp(&t.CreatedAt, loc),
		formatStamp(t.StartedAt, loc),
		formatStamp(t.CompletedAt, loc),
		timecalc.FormatDurationMs(timecalc.LiveDoingMs(t, now)),
	)
	if t.DoingStartAt != nil {
		meta += fmt.Sprintf(" (running %s)", timecalc.FormatClock(now.Sub(*t.DoingStartAt)))
	}
	return meta
}

func formatStamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
