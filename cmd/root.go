package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/config"
	"github.com/Tiliavir/work-board/internal/storage"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wb",
	Short: "Work Board – a personal todo/doing/done task board",
	Long: `wb is a single-binary task board with three columns: todo, doing and done.
It tracks how long each task spends in doing and exports a weekly summary.
Tasks live in ~/.wb/board.db unless a JSON file is connected with 'wb file connect'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.wb/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(watchCmd)
}

func setupLogging(level string) {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// exitCode maps user mistakes to 1 and everything else (storage, config) to 2.
func exitCode(err error) int {
	switch {
	case errors.Is(err, board.ErrEmptyContent),
		errors.Is(err, board.ErrTaskNotFound),
		errors.Is(err, board.ErrAmbiguousID),
		errors.Is(err, board.ErrInvalidStatus),
		errors.Is(err, errUsage):
		return 1
	}
	return 2
}

// errUsage marks an invalid invocation: wrong arguments or flags.
var errUsage = errors.New("usage error")

// usageArgs tags cobra's argument validation errors with errUsage.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

// session is everything a command needs: config, the local database and the
// board loaded from whichever store is active.
type session struct {
	cfg   config.Config
	loc   *time.Location
	db    *storage.DB
	board *board.Board
}

func openSession(ctx context.Context) (*session, error) {
	s, err := openBase()
	if err != nil {
		return nil, err
	}
	if err := s.loadBoard(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openBase reads the config and opens the database without loading tasks.
func openBase() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, loc: loc, db: db}, nil
}

func (s *session) loadBoard(ctx context.Context) error {
	store, err := s.db.ActiveStore(ctx)
	if err != nil {
		return err
	}
	b, err := board.Open(ctx, store, board.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	s.board = b
	return nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// resolve expands an id prefix typed by the user.
func (s *session) resolve(prefix string) (string, error) {
	return s.board.Resolve(prefix)
}

// shortID is the id prefix shown in listings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
