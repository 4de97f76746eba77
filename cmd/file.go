package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/storage"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Keep the board in a JSON file instead of the local store",
}

var fileConnectCmd = &cobra.Command{
	Use:   "connect <path>",
	Short: "Connect a JSON file; its tasks win if it has any, otherwise the board is written to it",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE:  runFileConnect,
}

var fileDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Stop using the connected file and copy the board back to the local store",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runFileDisconnect,
}

var fileStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the board is stored",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runFileStatus,
}

func init() {
	fileCmd.AddCommand(fileConnectCmd)
	fileCmd.AddCommand(fileDisconnectCmd)
	fileCmd.AddCommand(fileStatusCmd)
}

func runFileConnect(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	previous, err := s.db.ConnectedFile(cmd.Context())
	if err != nil {
		return err
	}
	// Recorded first: any file ConnectFile writes the board into is connected.
	if err := s.db.SetConnectedFile(cmd.Context(), path); err != nil {
		return err
	}
	fs := storage.NewFileStore(path)
	if err := s.board.ConnectFile(cmd.Context(), fs); err != nil {
		if restoreErr := s.db.SetConnectedFile(cmd.Context(), previous); restoreErr != nil {
			slog.Warn("Failed to restore previous connection", "file", previous, "error", restoreErr)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connected: %s (%d tasks)\n", fs.Name(), len(s.board.Tasks()))
	return nil
}

func runFileDisconnect(cmd *cobra.Command, args []string) error {
	s, err := openBase()
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := s.db.ConnectedFile(cmd.Context())
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No file connected.")
		return nil
	}

	// An unreadable file must not keep the board stuck on it: forget it and
	// fall back to whatever the local store holds.
	if err := s.loadBoard(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		if err := s.db.SetConnectedFile(cmd.Context(), ""); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s; the local store was left unchanged.\n", filepath.Base(path))
		return nil
	}

	if err := s.board.SwitchStore(cmd.Context(), storage.NewLocalStore(s.db)); err != nil {
		return err
	}
	if err := s.db.SetConnectedFile(cmd.Context(), ""); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s; %d tasks copied to the local store.\n", filepath.Base(path), len(s.board.Tasks()))
	return nil
}

func runFileStatus(cmd *cobra.Command, args []string) error {
	s, err := openBase()
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := s.db.ConnectedFile(cmd.Context())
	if err != nil {
		return err
	}
	if path == "" {
		dbPath, err := s.cfg.DBPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No file connected. Local store: %s\n", dbPath)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected: %s\n", path)
	return nil
}
