package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/user"
)

// Service edits the task list embedded in a user. Every change loads the
// user and writes the whole list back, so concurrent edits of one user's
// list are last-write-wins.
type Service struct {
	store user.Store
	now   func() time.Time
}

func NewService(store user.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add appends a new open task
func (s *Service) Add(ctx context.Context, userID uuid.UUID, title, description string) (user.Task, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return user.Task{}, fmt.Errorf("failed to get user: %w", err)
	}

	t := u.AddTask(title, description, s.now())

	if err := s.store.Save(ctx, u); err != nil {
		return user.Task{}, fmt.Errorf("failed to save tasks: %w", err)
	}

	return t, nil
}

// Remove deletes the task with taskID. An unknown id is not an error.
func (s *Service) Remove(ctx context.Context, userID, taskID uuid.UUID) error {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	u.RemoveTask(taskID)

	if err := s.store.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}

	return nil
}

// Toggle flips the completed flag of the task with taskID. It returns
// user.ErrTaskNotFound when the user has no such task.
func (s *Service) Toggle(ctx context.Context, userID, taskID uuid.UUID) (*user.Task, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	t, err := u.ToggleTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to save tasks: %w", err)
	}

	return t, nil
}
