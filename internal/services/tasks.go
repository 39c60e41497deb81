package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"todo-api/internal/apperrors"
	"todo-api/internal/models"
	"todo-api/internal/repositories"
)

const maxTitleLength = 200

type TaskService interface {
	Create(ctx context.Context, ownerID uint, title, description string) (*models.Task, error)
	ListForOwner(ctx context.Context, ownerID uint) ([]models.Task, error)
	UpdateByID(ctx context.Context, taskID uint, patch models.TaskPatch) (*models.Task, error)
	DeleteByID(ctx context.Context, taskID uint) error
}

type TaskServiceImpl struct {
	tasks repositories.TaskStore
}

func NewTaskService(tasks repositories.TaskStore) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks}
}

func (s *TaskServiceImpl) Create(ctx context.Context, ownerID uint, title, description string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	task, err := s.tasks.CreateTask(ctx, ownerID, title, description)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return task, nil
}

// ListForOwner never checks that the owner exists; an empty slice is a valid
// answer.
func (s *TaskServiceImpl) ListForOwner(ctx context.Context, ownerID uint) ([]models.Task, error) {
	tasks, err := s.tasks.FindTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskServiceImpl) UpdateByID(ctx context.Context, taskID uint, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	// The task may have been deleted since the ownership check ran.
	if err := s.ensureExists(ctx, taskID); err != nil {
		return nil, err
	}

	task, err := s.tasks.UpdateTask(ctx, taskID, patch)
	if err != nil {
		return nil, taskStoreError(err)
	}
	return task, nil
}

func (s *TaskServiceImpl) DeleteByID(ctx context.Context, taskID uint) error {
	if err := s.ensureExists(ctx, taskID); err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		return taskStoreError(err)
	}
	return nil
}

func (s *TaskServiceImpl) ensureExists(ctx context.Context, taskID uint) error {
	if _, err := s.tasks.FindTaskByID(ctx, taskID); err != nil {
		return taskStoreError(err)
	}
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.InvalidInput("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return apperrors.InvalidInput("title", "title must be at most 200 characters")
	}
	return nil
}

func taskStoreError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("task not found")
	}
	return apperrors.Internal(err)
}
