package models

import (
	"strconv"
	"time"
)

// Todo represents a todo item owned by exactly one user.
type Todo struct {
	ID        int64  `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// URL is the path the item's edit and delete forms post to.
func (t Todo) URL() string {
	return "/" + strconv.FormatInt(t.ID, 10)
}

// Filter selects a subset of an owner's items for display.
type Filter string

const (
	FilterNone      Filter = ""
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter returns the filter named by s; unknown tokens map to FilterNone.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterActive, FilterCompleted:
		return Filter(s)
	default:
		return FilterNone
	}
}

// Match reports whether t belongs in the filtered view.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Path is the view the filter is rendered at.
func (f Filter) Path() string {
	return "/" + string(f)
}

// TodoList is an owner's (possibly filtered) items plus counts over the
// unfiltered set.
type TodoList struct {
	Todos          []Todo
	Filter         Filter
	ActiveCount    int
	CompletedCount int
}

// Total is the number of items the owner has, regardless of filter.
func (l TodoList) Total() int {
	return l.ActiveCount + l.CompletedCount
}

// CreateTodoRequest is the body of POST /. Completed is nil when the field was
// absent; any present value means completed.
type CreateTodoRequest struct {
	Title     string
	Completed *bool
}

// UpdateTodoRequest is the body of POST /:id.
type UpdateTodoRequest struct {
	Title     string
	Completed *bool
}

// Flag resolves an optional checkbox value: present means true.
func Flag(b *bool) bool {
	return b != nil && *b
}

// Event actions published on the change feed.
const (
	ActionCreated          = "created"
	ActionUpdated          = "updated"
	ActionDeleted          = "deleted"
	ActionToggledAll       = "toggled_all"
	ActionClearedCompleted = "cleared_completed"
)

// TodoEvent is the message payload published after a successful mutation.
type TodoEvent struct {
	Action     string    `json:"action"`
	OwnerID    string    `json:"owner_id"`
	TodoID     int64     `json:"todo_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Completed  *bool     `json:"completed,omitempty"`
	Affected   int64     `json:"affected"`
	OccurredAt time.Time `json:"occurred_at"`
}
