package model

import (
	"fmt"
	"time"
)

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// Statuses lists every column in board order.
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone}

// Valid reports whether s is one of the three board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want todo, doing or done)", s)
	}
	return st, nil
}

// Task is a single card on the board. The JSON field names are the
// persisted format and must not change.
type Task struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Status       Status     `json:"status"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	DoingTotalMs int64      `json:"doingTotalMs"`
	DoingStartAt *time.Time `json:"doingStartAt"`
}

// Open reports whether the task has a running doing interval.
func (t Task) Open() bool {
	return t.DoingStartAt != nil
}
