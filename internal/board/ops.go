package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/timecalc"
)

var (
	ErrEmptyContent  = errors.New("task content is empty")
	ErrTaskNotFound  = errors.New("task not found")
	ErrAmbiguousID   = errors.New("task id prefix is ambiguous")
	ErrInvalidStatus = errors.New("invalid status")
)

// The functions below are pure transforms: they never modify the slice they
// are given and return a fresh list on success. On error the caller keeps
// its original list.

// Create prepends a new task in the given column.
func Create(tasks []model.Task, id, content string, status model.Status, now time.Time) ([]model.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return tasks, ErrEmptyContent
	}
	if !status.Valid() {
		return tasks, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	task := model.Task{
		ID:        id,
		Content:   content,
		Status:    status,
		CreatedAt: now,
	}
	switch status {
	case model.StatusDoing:
		task.StartedAt = timePtr(now)
		task.DoingStartAt = timePtr(now)
	case model.StatusDone:
		task.Completed = true
		task.CompletedAt = timePtr(now)
	}

	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, task)
	return append(out, tasks...), nil
}

// EditContent replaces the text of a task and nothing else.
func EditContent(tasks []model.Task, id, content string) ([]model.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return tasks, ErrEmptyContent
	}
	return update(tasks, id, func(t *model.Task) {
		t.Content = content
	})
}

// MoveToStatus moves a task into another column. Any open doing interval is
// closed first; entering doing always opens a fresh one, even when the task
// was already doing.
func MoveToStatus(tasks []model.Task, id string, status model.Status, now time.Time) ([]model.Task, error) {
	if !status.Valid() {
		return tasks, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if tasks[idx].Status == status && status != model.StatusDoing {
		return clone(tasks), nil
	}

	return update(tasks, id, func(t *model.Task) {
		closeInterval(t, now)
		t.Status = status

		if status == model.StatusDoing {
			if t.StartedAt == nil {
				t.StartedAt = timePtr(now)
			}
			t.DoingStartAt = timePtr(now)
		}

		if status == model.StatusDone {
			t.Completed = true
			t.CompletedAt = timePtr(now)
		} else {
			t.Completed = false
			t.CompletedAt = nil
		}
	})
}

// ToggleCompletion flips the completed flag. Completing moves the task to
// done; un-completing sends it back to todo, never to doing.
func ToggleCompletion(tasks []model.Task, id string, now time.Time) ([]model.Task, error) {
	return update(tasks, id, func(t *model.Task) {
		closeInterval(t, now)
		t.Completed = !t.Completed
		if t.Completed {
			t.Status = model.StatusDone
			t.CompletedAt = timePtr(now)
		} else {
			t.Status = model.StatusTodo
			t.CompletedAt = nil
		}
	})
}

// Delete removes a task.
func Delete(tasks []model.Task, id string) ([]model.Task, error) {
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	out := make([]model.Task, 0, len(tasks)-1)
	out = append(out, tasks[:idx]...)
	return append(out, tasks[idx+1:]...), nil
}

// Reorder moves dragID to the position targetID held within their shared
// column. Tasks of other columns keep their exact slots. Dragging onto a
// task in a different column, or onto itself, changes nothing.
func Reorder(tasks []model.Task, dragID, targetID string) ([]model.Task, error) {
	dragIdx := indexOf(tasks, dragID)
	if dragIdx < 0 {
		return tasks, fmt.Errorf("%w: %s", ErrTaskNotFound, dragID)
	}
	targetIdx := indexOf(tasks, targetID)
	if targetIdx < 0 {
		return tasks, fmt.Errorf("%w: %s", ErrTaskNotFound, targetID)
	}

	out := clone(tasks)
	status := tasks[dragIdx].Status
	if dragID == targetID || tasks[targetIdx].Status != status {
		return out, nil
	}

	// Slots of the column in list order, and the column's own sequence.
	var slots []int
	var column []model.Task
	from, to := -1, -1
	for i, t := range tasks {
		if t.Status != status {
			continue
		}
		if t.ID == dragID {
			from = len(column)
		}
		if t.ID == targetID {
			to = len(column)
		}
		slots = append(slots, i)
		column = append(column, t)
	}

	moved := column[from]
	column = append(column[:from], column[from+1:]...)
	column = append(column[:to], append([]model.Task{moved}, column[to:]...)...)

	for i, slot := range slots {
		out[slot] = column[i]
	}
	return out, nil
}

// Find returns the task with the given id.
func Find(tasks []model.Task, id string) (model.Task, bool) {
	idx := indexOf(tasks, id)
	if idx < 0 {
		return model.Task{}, false
	}
	return tasks[idx], true
}

// ResolveID expands a unique id prefix into the full task id.
func ResolveID(tasks []model.Task, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}
	if _, ok := Find(tasks, prefix); ok {
		return prefix, nil
	}
	var match string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	}
	return match, nil
}

// ByStatus returns the tasks of one column in list order.
func ByStatus(tasks []model.Task, status model.Status) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// HasOpenInterval reports whether any task is currently accruing doing time.
func HasOpenInterval(tasks []model.Task) bool {
	for _, t := range tasks {
		if t.Open() {
			return true
		}
	}
	return false
}

// closeInterval folds the open doing interval, if any, into DoingTotalMs.
func closeInterval(t *model.Task, now time.Time) {
	if t.DoingStartAt == nil {
		return
	}
	t.DoingTotalMs += timecalc.ElapsedMs(*t.DoingStartAt, now)
	t.DoingStartAt = nil
}

func update(tasks []model.Task, id string, fn func(*model.Task)) ([]model.Task, error) {
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	out := clone(tasks)
	fn(&out[idx])
	return out, nil
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func clone(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}

func timePtr(t time.Time) *time.Time {
	return &t
}
