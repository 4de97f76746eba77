package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/work-board/internal/model"
	"github.com/Tiliavir/work-board/internal/storage"
)

// ErrPersist wraps a failed write after a mutation was applied in memory.
var ErrPersist = errors.New("could not save board")

// Board holds the task list and mirrors it to a Store after every mutation.
// It is not safe for concurrent use.
type Board struct {
	tasks  []model.Task
	store  storage.Store
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) { b.newID = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// New creates a board with an empty list. Call Reload to read the store.
func New(store storage.Store, opts ...Option) *Board {
	b := &Board{
		tasks:  []model.Task{},
		store:  store,
		now:    defaultNow,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open creates a board and loads its tasks from store.
func Open(ctx context.Context, store storage.Store, opts ...Option) (*Board, error) {
	b := New(store, opts...)
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// defaultNow returns UTC wall time at millisecond precision, matching the
// persisted timestamp format.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Tasks returns a copy of the current list in board order.
func (b *Board) Tasks() []model.Task {
	return clone(b.tasks)
}

// Store returns the store mutations are written to.
func (b *Board) Store() storage.Store {
	return b.store
}

// Now returns the board clock's current time.
func (b *Board) Now() time.Time {
	return b.now()
}

// Reload replaces the in-memory list with the store's content. On error the
// list is left as it was.
func (b *Board) Reload(ctx context.Context) error {
	tasks, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading board from %s: %w", b.store.Name(), err)
	}
	b.tasks = tasks
	b.logger.Debug("Board loaded", "store", b.store.Name(), "tasks", len(tasks))
	return nil
}

// Resolve expands an id prefix to a full task id.
func (b *Board) Resolve(prefix string) (string, error) {
	return ResolveID(b.tasks, prefix)
}

// Create adds a task to the top of the board and returns it.
func (b *Board) Create(ctx context.Context, content string, status model.Status) (model.Task, error) {
	id := b.newID()
	err := b.apply(ctx, "create", func(tasks []model.Task) ([]model.Task, error) {
		return Create(tasks, id, content, status, b.now())
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return model.Task{}, err
	}
	t, _ := Find(b.tasks, id)
	return t, err
}

// EditContent replaces a task's text.
func (b *Board) EditContent(ctx context.Context, id, content string) error {
	return b.apply(ctx, "edit", func(tasks []model.Task) ([]model.Task, error) {
		return EditContent(tasks, id, content)
	})
}

// Move moves a task to another column.
func (b *Board) Move(ctx context.Context, id string, status model.Status) error {
	return b.apply(ctx, "move", func(tasks []model.Task) ([]model.Task, error) {
		return MoveToStatus(tasks, id, status, b.now())
	})
}

// Toggle flips a task's completion.
func (b *Board) Toggle(ctx context.Context, id string) error {
	return b.apply(ctx, "toggle", func(tasks []model.Task) ([]model.Task, error) {
		return ToggleCompletion(tasks, id, b.now())
	})
}

// Delete removes a task.
func (b *Board) Delete(ctx context.Context, id string) error {
	return b.apply(ctx, "delete", func(tasks []model.Task) ([]model.Task, error) {
		return Delete(tasks, id)
	})
}

// Reorder moves dragID to targetID's place within their column.
func (b *Board) Reorder(ctx context.Context, dragID, targetID string) error {
	return b.apply(ctx, "reorder", func(tasks []model.Task) ([]model.Task, error) {
		return Reorder(tasks, dragID, targetID)
	})
}

// ConnectFile switches persistence to store. If the store already holds
// tasks they replace the in-memory list; otherwise the current list is
// written to it. On error the board keeps its list and previous store.
func (b *Board) ConnectFile(ctx context.Context, store storage.Store) error {
	fileTasks, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reading %s: %w", store.Name(), err)
	}

	switch {
	case len(fileTasks) > 0:
		b.tasks = fileTasks
		b.logger.Info("Loaded board from file", "file", store.Name(), "tasks", len(fileTasks))
	case len(b.tasks) > 0:
		if err := store.Save(ctx, b.tasks); err != nil {
			return fmt.Errorf("writing %s: %w", store.Name(), err)
		}
		b.logger.Info("Wrote board to file", "file", store.Name(), "tasks", len(b.tasks))
	}
	b.store = store
	return nil
}

// SwitchStore writes the current list to store and makes it the target of
// future mutations.
func (b *Board) SwitchStore(ctx context.Context, store storage.Store) error {
	if err := store.Save(ctx, b.tasks); err != nil {
		return fmt.Errorf("writing %s: %w", store.Name(), err)
	}
	b.store = store
	return nil
}

// apply runs a transform and persists the result. A rejected transform
// leaves the list untouched; a failed save keeps the applied change in
// memory and reports ErrPersist.
func (b *Board) apply(ctx context.Context, op string, fn func([]model.Task) ([]model.Task, error)) error {
	next, err := fn(b.tasks)
	if err != nil {
		return err
	}
	b.tasks = next

	if err := b.store.Save(ctx, b.tasks); err != nil {
		b.logger.Warn("Failed to save board", "op", op, "store", b.store.Name(), "error", err)
		return fmt.Errorf("%w to %s: %w", ErrPersist, b.store.Name(), err)
	}
	b.logger.Debug("Board saved", "op", op, "store", b.store.Name(), "tasks", len(b.tasks))
	return nil
}
