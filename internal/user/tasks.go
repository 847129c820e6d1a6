package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

// AddTask appends a new, not yet completed task and returns it
func (u *User) AddTask(title, description string, now time.Time) Task {
	t := Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
	}
	u.Tasks = append(u.Tasks, t)
	return t
}

// RemoveTask drops the task with the given id. It reports whether a task was removed;
// an unknown id leaves the list as it was.
func (u *User) RemoveTask(id uuid.UUID) bool {
	kept := make([]Task, 0, len(u.Tasks))
	for _, t := range u.Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(u.Tasks)
	u.Tasks = kept
	return removed
}

// ToggleTask flips the completed flag of the task with the given id
func (u *User) ToggleTask(id uuid.UUID) (*Task, error) {
	for i := range u.Tasks {
		if u.Tasks[i].ID == id {
			u.Tasks[i].Completed = !u.Tasks[i].Completed
			return &u.Tasks[i], nil
		}
	}
	return nil, ErrTaskNotFound
}
