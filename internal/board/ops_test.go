package board_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/work-board/internal/board"
	"github.com/Tiliavir/work-board/internal/model"
)

var t0 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func mustCreate(t *testing.T, tasks []model.Task, id, content string, status model.Status, now time.Time) []model.Task {
	t.Helper()
	out, err := board.Create(tasks, id, content, status, now)
	require.NoError(t, err)
	return out
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestCreate(t *testing.T) {
	t.Run("todo", func(t *testing.T) {
		tasks := mustCreate(t, nil, "a", "  write report  ", model.StatusTodo, t0)
		require.Len(t, tasks, 1)
		task := tasks[0]
		assert.Equal(t, "write report", task.Content)
		assert.Equal(t, model.StatusTodo, task.Status)
		assert.False(t, task.Completed)
		assert.Equal(t, t0, task.CreatedAt)
		assert.Nil(t, task.StartedAt)
		assert.Nil(t, task.CompletedAt)
		assert.Nil(t, task.DoingStartAt)
		assert.Zero(t, task.DoingTotalMs)
	})

	t.Run("doing opens an interval", func(t *testing.T) {
		task := mustCreate(t, nil, "a", "x", model.StatusDoing, t0)[0]
		require.NotNil(t, task.StartedAt)
		require.NotNil(t, task.DoingStartAt)
		assert.Equal(t, t0, *task.StartedAt)
		assert.Equal(t, t0, *task.DoingStartAt)
		assert.False(t, task.Completed)
	})

	t.Run("done is completed", func(t *testing.T) {
		task := mustCreate(t, nil, "a", "x", model.StatusDone, t0)[0]
		assert.True(t, task.Completed)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, t0, *task.CompletedAt)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("prepends", func(t *testing.T) {
		tasks := mustCreate(t, nil, "a", "first", model.StatusTodo, t0)
		tasks = mustCreate(t, tasks, "b", "second", model.StatusTodo, t0)
		assert.Equal(t, []string{"b", "a"}, ids(tasks))
	})

	t.Run("rejects blank content", func(t *testing.T) {
		orig := mustCreate(t, nil, "a", "x", model.StatusTodo, t0)
		out, err := board.Create(orig, "b", " \t\n", model.StatusTodo, t0)
		assert.ErrorIs(t, err, board.ErrEmptyContent)
		assert.Equal(t, orig, out)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := board.Create(nil, "a", "x", model.Status("later"), t0)
		assert.ErrorIs(t, err, board.ErrInvalidStatus)
	})
}

func TestEditContent(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "old", model.StatusDoing, t0)
	before := tasks[0]

	out, err := board.EditContent(tasks, "a", " new ")
	require.NoError(t, err)
	after := out[0]
	assert.Equal(t, "new", after.Content)
	after.Content = before.Content
	assert.Equal(t, before, after)
	assert.Equal(t, "old", tasks[0].Content, "input must not be modified")

	_, err = board.EditContent(tasks, "a", "")
	assert.ErrorIs(t, err, board.ErrEmptyContent)

	_, err = board.EditContent(tasks, "zzz", "x")
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
}

func TestMoveToStatus_DoingThenDone(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusTodo, t0.Add(-time.Hour))

	tasks, err := board.MoveToStatus(tasks, "a", model.StatusDoing, t0)
	require.NoError(t, err)
	require.NotNil(t, tasks[0].DoingStartAt)
	require.NotNil(t, tasks[0].StartedAt)
	assert.Equal(t, t0, *tasks[0].StartedAt)

	tasks, err = board.MoveToStatus(tasks, "a", model.StatusDone, t0.Add(90*time.Second))
	require.NoError(t, err)
	task := tasks[0]
	assert.Equal(t, int64(90000), task.DoingTotalMs)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, t0.Add(90*time.Second), *task.CompletedAt)
	assert.Nil(t, task.DoingStartAt)
	assert.Equal(t, t0, *task.StartedAt)
}

func TestMoveToStatus_StartedAtSetOnce(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusDoing, t0)
	tasks, err := board.MoveToStatus(tasks, "a", model.StatusTodo, t0.Add(time.Minute))
	require.NoError(t, err)
	tasks, err = board.MoveToStatus(tasks, "a", model.StatusDoing, t0.Add(2*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, t0, *tasks[0].StartedAt)
	assert.Equal(t, t0.Add(2*time.Minute), *tasks[0].DoingStartAt)
	assert.Equal(t, int64(60000), tasks[0].DoingTotalMs)
}

func TestMoveToStatus_ReenterDoingRestartsInterval(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusDoing, t0)
	tasks, err := board.MoveToStatus(tasks, "a", model.StatusDoing, t0.Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, int64(30000), tasks[0].DoingTotalMs)
	assert.Equal(t, t0.Add(30*time.Second), *tasks[0].DoingStartAt)
	assert.Equal(t, t0, *tasks[0].StartedAt)
}

func TestMoveToStatus_SameStatusIsNoop(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusDone, t0)
	out, err := board.MoveToStatus(tasks, "a", model.StatusDone, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, tasks, out)
}

func TestMoveToStatus_LeavingDoneClearsCompletion(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusDone, t0)
	tasks, err := board.MoveToStatus(tasks, "a", model.StatusTodo, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, tasks[0].Completed)
	assert.Nil(t, tasks[0].CompletedAt)
}

func TestMoveToStatus_Errors(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusTodo, t0)
	_, err := board.MoveToStatus(tasks, "b", model.StatusDoing, t0)
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
	_, err = board.MoveToStatus(tasks, "a", model.Status("x"), t0)
	assert.ErrorIs(t, err, board.ErrInvalidStatus)
}

func TestToggleCompletion(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusDoing, t0)

	tasks, err := board.ToggleCompletion(tasks, "a", t0.Add(2*time.Minute))
	require.NoError(t, err)
	task := tasks[0]
	assert.True(t, task.Completed)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.Equal(t, t0.Add(2*time.Minute), *task.CompletedAt)
	assert.Equal(t, int64(120000), task.DoingTotalMs)
	assert.Nil(t, task.DoingStartAt)

	tasks, err = board.ToggleCompletion(tasks, "a", t0.Add(3*time.Minute))
	require.NoError(t, err)
	task = tasks[0]
	assert.False(t, task.Completed)
	assert.Equal(t, model.StatusTodo, task.Status, "un-completing never returns to doing")
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.DoingStartAt)
	assert.Equal(t, int64(120000), task.DoingTotalMs)
}

func TestToggleCompletion_Involution(t *testing.T) {
	for _, status := range model.Statuses {
		tasks := mustCreate(t, nil, "a", "A", status, t0)
		start := tasks[0].Completed

		once, err := board.ToggleCompletion(tasks, "a", t0.Add(time.Minute))
		require.NoError(t, err)
		twice, err := board.ToggleCompletion(once, "a", t0.Add(2*time.Minute))
		require.NoError(t, err)

		assert.Equal(t, !start, once[0].Completed, status)
		assert.Equal(t, start, twice[0].Completed, status)
	}
}

func TestDelete(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusTodo, t0)
	tasks = mustCreate(t, tasks, "b", "B", model.StatusTodo, t0)
	tasks = mustCreate(t, tasks, "c", "C", model.StatusTodo, t0)

	out, err := board.Delete(tasks, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(out))
	assert.Len(t, tasks, 3)

	_, err = board.Delete(out, "b")
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
}

// interleaved returns t1 d1 t2 d2 t3 (t = todo, d = doing).
func interleaved(t *testing.T) []model.Task {
	var tasks []model.Task
	for _, id := range []string{"t3", "d2", "t2", "d1", "t1"} {
		status := model.StatusTodo
		if id[0] == 'd' {
			status = model.StatusDoing
		}
		tasks = mustCreate(t, tasks, id, id, status, t0)
	}
	return tasks
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name   string
		drag   string
		target string
		want   []string
	}{
		{"drag up", "t3", "t1", []string{"t3", "d1", "t1", "d2", "t2"}},
		{"drag down", "t1", "t3", []string{"t2", "d1", "t3", "d2", "t1"}},
		{"drag down one", "t1", "t2", []string{"t2", "d1", "t1", "d2", "t3"}},
		{"other column", "t1", "d1", []string{"t1", "d1", "t2", "d2", "t3"}},
		{"onto itself", "t2", "t2", []string{"t1", "d1", "t2", "d2", "t3"}},
		{"doing column", "d2", "d1", []string{"t1", "d2", "t2", "d1", "t3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := interleaved(t)
			out, err := board.Reorder(tasks, tt.drag, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
			assert.ElementsMatch(t, tasks, out)
			assert.Equal(t, []string{"t1", "d1", "t2", "d2", "t3"}, ids(tasks), "input must not be modified")
		})
	}
}

func TestReorder_KeepsOtherColumns(t *testing.T) {
	tasks := interleaved(t)
	out, err := board.Reorder(tasks, "t3", "t1")
	require.NoError(t, err)
	assert.Equal(t, ids(board.ByStatus(tasks, model.StatusDoing)), ids(board.ByStatus(out, model.StatusDoing)))
	for i, task := range tasks {
		if task.Status == model.StatusDoing {
			assert.Equal(t, task.ID, out[i].ID)
		}
	}
}

func TestReorder_UnknownID(t *testing.T) {
	tasks := interleaved(t)
	_, err := board.Reorder(tasks, "nope", "t1")
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
	_, err = board.Reorder(tasks, "t1", "nope")
	assert.ErrorIs(t, err, board.ErrTaskNotFound)
}

func TestDoingTotalNeverDecreases(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusTodo, t0)
	steps := []func([]model.Task, time.Time) ([]model.Task, error){
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.MoveToStatus(ts, "a", model.StatusDoing, now)
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.MoveToStatus(ts, "a", model.StatusDoing, now)
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.ToggleCompletion(ts, "a", now)
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.MoveToStatus(ts, "a", model.StatusDoing, now)
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.EditContent(ts, "a", "B")
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			// Clock moved backwards.
			return board.MoveToStatus(ts, "a", model.StatusTodo, now.Add(-time.Hour))
		},
		func(ts []model.Task, now time.Time) ([]model.Task, error) {
			return board.ToggleCompletion(ts, "a", now)
		},
	}

	prev := tasks[0].DoingTotalMs
	now := t0
	for i, step := range steps {
		now = now.Add(time.Duration(i+1) * time.Minute)
		var err error
		tasks, err = step(tasks, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, tasks[0].DoingTotalMs, prev, "step %d", i)
		prev = tasks[0].DoingTotalMs
	}
}

func TestResolveID(t *testing.T) {
	tasks := mustCreate(t, nil, "abc123", "A", model.StatusTodo, t0)
	tasks = mustCreate(t, tasks, "abd456", "B", model.StatusTodo, t0)
	tasks = mustCreate(t, tasks, "ab", "C", model.StatusTodo, t0)

	id, err := board.ResolveID(tasks, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = board.ResolveID(tasks, "ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", id, "exact match wins over prefix")

	// Exact match after two prefix matches in list order.
	last := []model.Task{{ID: "abc123"}, {ID: "abd456"}, {ID: "ab"}}
	id, err = board.ResolveID(last, "ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", id)

	_, err = board.ResolveID(tasks, "abx")
	assert.ErrorIs(t, err, board.ErrTaskNotFound)

	tasks = mustCreate(t, tasks[1:], "abc999", "D", model.StatusTodo, t0)
	_, err = board.ResolveID(tasks, "abc")
	assert.ErrorIs(t, err, board.ErrAmbiguousID)
}

func TestHasOpenInterval(t *testing.T) {
	tasks := mustCreate(t, nil, "a", "A", model.StatusTodo, t0)
	assert.False(t, board.HasOpenInterval(tasks))
	tasks = mustCreate(t, tasks, "b", "B", model.StatusDoing, t0)
	assert.True(t, board.HasOpenInterval(tasks))
}
