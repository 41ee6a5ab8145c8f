package domain

import (
	"strings"
	"time"
)

// Task represents a unit of work inside a project.
// This is a pure domain model without database-specific concerns.
type Task struct {
	ID        int64
	UserID    int64
	ProjectID int64
	Name      string
	CreatedAt time.Time
}

// NewTask creates a new Task with the given name.
func NewTask(userID, projectID int64, name string) Task {
	return Task{
		UserID:    userID,
		ProjectID: projectID,
		Name:      strings.TrimSpace(name),
	}
}

// IsValid checks if the task has valid data.
func (t Task) IsValid() bool {
	return t.Name != "" && t.ProjectID > 0
}

// String returns the task name for display purposes.
func (t Task) String() string {
	return t.Name
}
