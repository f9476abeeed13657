package model

import "time"

// Priority is the urgency label of a todo. It only influences sort order.
type Priority string

// Priority constants.
const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort position of the priority (lower sorts first).
// Unknown or empty values rank with none.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Todo is a single reminder belonging to a TodoList.
type Todo struct {
	ID        string     `json:"id" yaml:"id" db:"id"`
	ListID    string     `json:"listId" yaml:"listId" db:"list_id"`
	Title     string     `json:"title" yaml:"title" db:"title"`
	Completed bool       `json:"completed" yaml:"completed" db:"completed"`
	DueDate   *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty" db:"due_date"`
	Priority  Priority   `json:"priority" yaml:"priority" db:"priority"`
	Notes     string     `json:"notes,omitempty" yaml:"notes,omitempty" db:"notes"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt" db:"created_at"`
	UserID    string     `json:"userId" yaml:"userId" db:"user_id"`
}

// HasDueDate reports whether the todo is scheduled.
func (t Todo) HasDueDate() bool { return t.DueDate != nil && !t.DueDate.IsZero() }

// TodoList is a user-defined category grouping todos.
type TodoList struct {
	ID     string `json:"id" yaml:"id" db:"id"`
	Name   string `json:"name" yaml:"name" db:"name"`
	Color  string `json:"color" yaml:"color" db:"color"`
	UserID string `json:"userId" yaml:"userId" db:"user_id"`
}
