package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/storage"
	"github.com/Tiliavir/work-board/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the board on screen, refreshing running durations",
	Long: `Show the board and redraw it every refresh_interval (default 30s) while a
task is in doing. When a file is connected, changes made to it by another
wb process are picked up immediately. Stop with Ctrl-C.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	interval, err := s.cfg.Interval()
	if err != nil {
		return err
	}
	var file string
	if fs, ok := s.board.Store().(*storage.FileStore); ok {
		file = fs.Path()
	}

	w, err := watch.New(watch.Config{Interval: interval, File: file, Logger: slog.Default()})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	out := cmd.OutOrStdout()
	clear := isTerminal(out)
	redraw := func() {
		if clear {
			fmt.Fprint(out, "\033[H\033[2J")
		}
		now := s.board.Now()
		fmt.Fprintf(out, "wb – %s (every %s, Ctrl-C to quit)\n\n", now.In(s.loc).Format("2006-01-02 15:04:05"), interval)
		printBoard(out, s.board.Tasks(), now, s.loc, "")
	}
	redraw()

	followBoard(ctx, w.Events(), s.board, redraw)
	return nil
}

// followBoard redraws the board as events arrive until events is closed.
// Every tick reloads the store, since other wb processes write to it; the
// board is redrawn when the list changed or a doing timer is running.
func followBoard(ctx context.Context, events <-chan watch.Event, b *board.Board, redraw func()) {
	for ev := range events {
		before := b.Tasks()
		if err := b.Reload(ctx); err != nil {
			slog.Warn("Reload failed, keeping current board", "error", err)
			continue
		}
		changed := !reflect.DeepEqual(before, b.Tasks())

		switch ev.Kind {
		case watch.EventTick:
			if changed || board.HasOpenInterval(b.Tasks()) {
				redraw()
			}
		case watch.EventFileChanged:
			redraw()
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
