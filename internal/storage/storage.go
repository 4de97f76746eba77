package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/work-board/internal/model"
)

const (
	// TasksKey is the fixed key the local store keeps the task list under.
	TasksKey = "work-board-tasks"
	// FileKey remembers the path of the connected JSON file, if any.
	FileKey = "work-board-file"
)

// Store persists the whole task list at once.
type Store interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
	Name() string
}

// LocalStore keeps the task list in the local database under TasksKey.
type LocalStore struct {
	db *DB
}

// NewLocalStore returns a Store backed by db.
func NewLocalStore(db *DB) *LocalStore {
	return &LocalStore{db: db}
}

func (s *LocalStore) Name() string { return "local" }

// Load returns the stored list. A missing or malformed value is an empty list.
func (s *LocalStore) Load(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := s.db.Get(ctx, TasksKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Task{}, nil
	}
	return Decode([]byte(raw)), nil
}

// Save writes the list as compact JSON.
func (s *LocalStore) Save(ctx context.Context, tasks []model.Task) error {
	data, err := json.Marshal(nonNil(tasks))
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	return s.db.Set(ctx, TasksKey, string(data))
}

// FileStore keeps the task list in a user-chosen JSON file, rewriting the
// whole file on every save.
type FileStore struct {
	path string
}

// NewFileStore returns a Store for the file at path. The file does not need
// to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Name() string { return filepath.Base(s.path) }

// Load reads the file. A missing, blank or malformed file is an empty list;
// only I/O failures are reported.
func (s *FileStore) Load(_ context.Context) ([]model.Task, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", s.path, err)
	}
	return Decode(data), nil
}

// Save atomically overwrites the file with indented JSON.
func (s *FileStore) Save(_ context.Context, tasks []model.Task) error {
	data, err := json.MarshalIndent(nonNil(tasks), "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	return WriteFileAtomic(s.path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Decode parses a persisted task list. Anything that is not a JSON array
// yields an empty list rather than an error. Fields are read one at a time:
// a bad value is repaired and the rest of the record is kept. Elements that
// are not objects are skipped.
func Decode(data []byte) []model.Task {
	if strings.TrimSpace(string(data)) == "" {
		return []model.Task{}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(raw))
	for _, r := range raw {
		var rec record
		if err := json.Unmarshal(r, &rec); err != nil || rec == nil {
			continue
		}
		tasks = append(tasks, rec.normalize())
	}
	return tasks
}

// record is the lenient on-disk shape of a task, keyed by JSON field name.
type record map[string]json.RawMessage

func (r record) text(key string) string {
	var s string
	if err := json.Unmarshal(r[key], &s); err != nil {
		return ""
	}
	return s
}

// timestamp returns nil for a missing, null, empty or unparsable timestamp.
func (r record) timestamp(key string) *time.Time {
	var t time.Time
	if err := json.Unmarshal(r[key], &t); err != nil || t.IsZero() {
		return nil
	}
	return &t
}

// millis reads doingTotalMs. Values written by other tools may be
// fractional, negative or not numbers at all.
func (r record) millis(key string) int64 {
	var f float64
	if err := json.Unmarshal(r[key], &f); err != nil || f <= 0 {
		return 0
	}
	return int64(f)
}

func (r record) normalize() model.Task {
	t := model.Task{
		ID:           r.text("id"),
		Content:      r.text("content"),
		Status:       model.Status(r.text("status")),
		StartedAt:    r.timestamp("startedAt"),
		CompletedAt:  r.timestamp("completedAt"),
		DoingTotalMs: r.millis("doingTotalMs"),
		DoingStartAt: r.timestamp("doingStartAt"),
	}
	if created := r.timestamp("createdAt"); created != nil {
		t.CreatedAt = *created
	}

	if !t.Status.Valid() {
		t.Status = model.StatusTodo
	}
	t.Completed = t.Status == model.StatusDone
	switch {
	case !t.Completed:
		t.CompletedAt = nil
	case t.CompletedAt == nil && !t.CreatedAt.IsZero():
		t.CompletedAt = timePtr(t.CreatedAt)
	}
	if t.Status != model.StatusDoing {
		t.DoingStartAt = nil
	}
	return t
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func nonNil(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}
