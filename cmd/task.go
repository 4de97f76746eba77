package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/model"
)

var addStatus string

var addCmd = &cobra.Command{
	Use:   "add <content...>",
	Short: "Add a task to the top of a column",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE:  runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <content...>",
	Short: "Replace a task's text",
	Args:  usageArgs(cobra.MinimumNArgs(2)),
	RunE:  runEdit,
}

var moveCmd = &cobra.Command{
	Use:       "move <id> <todo|doing|done>",
	Short:     "Move a task to another column",
	Args:      usageArgs(cobra.ExactArgs(2)),
	ValidArgs: []string{"todo", "doing", "done"},
	RunE:      runMove,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a task done, or send a done task back to todo",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE:  runToggle,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    usageArgs(cobra.ExactArgs(1)),
	RunE:    runRm,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <drag-id> <target-id>",
	Short: "Move a task to another task's place within the same column",
	Args:  usageArgs(cobra.ExactArgs(2)),
	RunE:  runReorder,
}

func init() {
	addCmd.Flags().StringVarP(&addStatus, "status", "s", "todo", "Column for the new task: todo, doing, done")
}

func parseStatusArg(s string) (model.Status, error) {
	st, err := model.ParseStatus(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", board.ErrInvalidStatus, err)
	}
	return st, nil
}

// reportPersist prints a notice when a change was applied but could not be
// saved, and passes any other error through.
func reportPersist(cmd *cobra.Command, err error) error {
	if err == nil || !errors.Is(err, board.ErrPersist) {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: change not saved: %v\n", err)
	return err
}

func runAdd(cmd *cobra.Command, args []string) error {
	status, err := parseStatusArg(addStatus)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := s.board.Create(cmd.Context(), strings.Join(args, " "), status)
	if err != nil && !errors.Is(err, board.ErrPersist) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s: %s\n", shortID(task.ID), strings.ToUpper(string(task.Status)), task.Content)
	return reportPersist(cmd, err)
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if err := reportPersist(cmd, s.board.EditContent(cmd.Context(), id, strings.Join(args[1:], " "))); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", shortID(id))
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	status, err := parseStatusArg(args[1])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if err := reportPersist(cmd, s.board.Move(cmd.Context(), id, status)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", shortID(id), strings.ToUpper(string(status)))
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if err := reportPersist(cmd, s.board.Toggle(cmd.Context(), id)); err != nil {
		return err
	}

	task, _ := board.Find(s.board.Tasks(), id)
	if task.Completed {
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %s: %s\n", shortID(id), task.Content)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Reopened %s: %s\n", shortID(id), task.Content)
	}
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	task, _ := board.Find(s.board.Tasks(), id)
	if err := reportPersist(cmd, s.board.Delete(cmd.Context(), id)); err != nil {
		return err
	}
	slog.Debug("Task deleted", "id", id)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", shortID(id), task.Content)
	return nil
}

func runReorder(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	dragID, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	targetID, err := s.resolve(args[1])
	if err != nil {
		return err
	}

	drag, _ := board.Find(s.board.Tasks(), dragID)
	target, _ := board.Find(s.board.Tasks(), targetID)
	if drag.Status != target.Status {
		fmt.Fprintf(cmd.ErrOrStderr(), "Tasks are in different columns (%s, %s); nothing to reorder.\n", drag.Status, target.Status)
		return nil
	}

	if err := reportPersist(cmd, s.board.Reorder(cmd.Context(), dragID, targetID)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s's place in %s\n", shortID(dragID), shortID(targetID), strings.ToUpper(string(drag.Status)))
	return nil
}
