package service

import (
	"context"
	"errors"
	"time"

	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/chetan-code/taskdesk/internal/repository"
)

// TaskInput holds the user-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	ProjectID   *uint
}

func (s *Service) ListTasks(ctx context.Context, f repository.TaskFilter) ([]models.Task, error) {
	return s.repo.ListTasks(ctx, f)
}

// CreateTask stores a new open task owned by userID.
func (s *Service) CreateTask(ctx context.Context, userID uint, in TaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, invalid("Please, write a title")
	}

	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		UserID:      userID,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		if err := checkProject(ctx, tx, userID, in.ProjectID); err != nil {
			return err
		}
		return tx.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, writeError("create task", err)
	}
	return task, nil
}

// OwnedTask returns task id when userID owns it, ErrForbidden otherwise.
func (s *Service) OwnedTask(ctx context.Context, userID, id uint) (*models.Task, error) {
	return ownedTask(ctx, s.repo, userID, id)
}

// EditTask overwrites title, description, due date and project of a task owned by userID.
func (s *Service) EditTask(ctx context.Context, userID, id uint, in TaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, invalid("Please, write a title")
	}

	var task *models.Task
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		var err error
		task, err = ownedTask(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := checkProject(ctx, tx, userID, in.ProjectID); err != nil {
			return err
		}
		task.Title = in.Title
		task.Description = in.Description
		task.DueDate = in.DueDate
		task.ProjectID = in.ProjectID
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, writeError("edit task", err)
	}
	return task, nil
}

// SetCompleted moves a task owned by userID between the open and completed states.
func (s *Service) SetCompleted(ctx context.Context, userID, id uint, completed bool) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		if _, err := ownedTask(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.SetTaskCompleted(ctx, id, completed)
	})
	return writeError("set task completed", err)
}

func (s *Service) DeleteTask(ctx context.Context, userID, id uint) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repo) error {
		if _, err := ownedTask(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.DeleteTask(ctx, id)
	})
	return writeError("delete task", err)
}

func ownedTask(ctx context.Context, r *repository.Repo, userID, id uint) (*models.Task, error) {
	task, err := r.TaskByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}
	return task, nil
}

// checkProject rejects a project id that does not belong to userID.
func checkProject(ctx context.Context, r *repository.Repo, userID uint, projectID *uint) error {
	if projectID == nil {
		return nil
	}
	p, err := r.ProjectByID(ctx, *projectID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && p.UserID != userID) {
		return invalid("Please, choose one of your projects")
	}
	return err
}

// writeError passes domain errors through and wraps everything else as a PersistenceError.
func writeError(op string, err error) error {
	var verr *ValidationError
	if err == nil || errors.Is(err, ErrForbidden) || errors.As(err, &verr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
