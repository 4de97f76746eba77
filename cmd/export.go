package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/storage"
	"github.com/Tiliavir/work-board/internal/summary"
)

var (
	exportFormat string
	exportOutput string
	exportSave   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a week-grouped summary of the board",
	Long: `Export the board. The default markdown report lists every column grouped
by the week each task was started, with the time spent in doing.
Writes to stdout unless --output or --save is given.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Output format: md, json, csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file, or into this directory under the suggested name")
	exportCmd.Flags().BoolVar(&exportSave, "save", false, "Write work-summary-YYYY-MM-DD.<ext> into the configured export_dir")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportSave && exportOutput != "" {
		return fmt.Errorf("%w: --save and --output are mutually exclusive", errUsage)
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	now := s.board.Now()
	data, err := renderExport(exportFormat, s.board.Tasks(), now, s.loc)
	if err != nil {
		return err
	}

	target := exportOutput
	if exportSave {
		target = s.cfg.ExportDir
		if target == "" {
			target = "."
		}
		if err := os.MkdirAll(target, 0o700); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}
	if target == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	path, err := exportPath(target, exportFormat, now.In(s.loc))
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(s.board.Tasks()), path)
	return nil
}

// renderExport encodes the board in the requested format.
func renderExport(format string, tasks []model.Task, now time.Time, loc *time.Location) ([]byte, error) {
	switch format {
	case "md":
		return []byte(summary.Markdown(tasks, summary.Options{Now: now, Location: loc})), nil
	case "json":
		return summary.JSON(tasks)
	case "csv":
		return []byte(summary.CSV(tasks, now)), nil
	}
	return nil, fmt.Errorf("%w: unknown format %q (want md, json or csv)", errUsage, format)
}

// exportPath resolves target to a file path. A directory target gets the
// suggested file name for the export time.
func exportPath(target, format string, at time.Time) (string, error) {
	info, err := os.Stat(target)
	switch {
	case err == nil && info.IsDir():
		name := strings.TrimSuffix(summary.FileName(at), ".md") + "." + format
		return filepath.Join(target, name), nil
	case err == nil, errors.Is(err, os.ErrNotExist):
		return target, nil
	default:
		return "", fmt.Errorf("export target %s: %w", target, err)
	}
}
