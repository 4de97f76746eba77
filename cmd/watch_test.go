package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/storage"
	"github.com/Tiliavir/work-board/internal/watch"
)

// follow feeds events to followBoard and returns the boards it redrew.
func follow(ctx context.Context, b *board.Board, kinds ...watch.EventKind) [][]model.Task {
	events := make(chan watch.Event, len(kinds))
	for _, k := range kinds {
		events <- watch.Event{Kind: k, At: time.Now()}
	}
	close(events)

	var seen [][]model.Task
	followBoard(ctx, events, b, func() { seen = append(seen, b.Tasks()) })
	return seen
}

func TestFollowBoard_LocalStoreSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	viewer, err := board.Open(ctx, storage.NewLocalStore(db))
	require.NoError(t, err)
	writer, err := board.Open(ctx, storage.NewLocalStore(db))
	require.NoError(t, err)

	// Nothing changed and nothing is running: no redraw.
	assert.Empty(t, follow(ctx, viewer, watch.EventTick))

	task, err := writer.Create(ctx, "started elsewhere", model.StatusDoing)
	require.NoError(t, err)

	// The change is picked up, and the running task keeps redrawing.
	seen := follow(ctx, viewer, watch.EventTick, watch.EventTick)
	require.Len(t, seen, 2)
	for _, tasks := range seen {
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
	}

	require.NoError(t, writer.Move(ctx, task.ID, model.StatusDone))
	seen = follow(ctx, viewer, watch.EventTick, watch.EventTick)
	require.Len(t, seen, 1, "only the tick that saw the move redraws")
	assert.Equal(t, model.StatusDone, seen[0][0].Status)
}

func TestFollowBoard_FileChangeReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.json")

	viewer, err := board.Open(ctx, storage.NewFileStore(path))
	require.NoError(t, err)
	writer, err := board.Open(ctx, storage.NewFileStore(path))
	require.NoError(t, err)

	_, err = writer.Create(ctx, "from another shell", model.StatusTodo)
	require.NoError(t, err)
	seen := follow(ctx, viewer, watch.EventFileChanged)
	require.Len(t, seen, 1)
	require.Len(t, seen[0], 1)
	assert.Equal(t, "from another shell", seen[0][0].Content)

	// An unreadable file keeps the last good board and skips the redraw.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o700))
	assert.Empty(t, follow(ctx, viewer, watch.EventFileChanged, watch.EventTick))
	assert.Len(t, viewer.Tasks(), 1)
}
