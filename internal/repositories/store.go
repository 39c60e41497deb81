package repositories

import (
	"context"
	"errors"

	"todo-api/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("unique constraint violated")
)

type UserStore interface {
	// FindUserByEmail returns ErrNotFound when no user has the email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser returns ErrConflict when the email is already taken.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, ownerID uint, title, description string) (*models.Task, error)
	FindTasksByOwner(ctx context.Context, ownerID uint) ([]models.Task, error)
	FindTaskByID(ctx context.Context, id uint) (*models.Task, error)
	UpdateTask(ctx context.Context, id uint, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id uint) error
}

type Store interface {
	UserStore
	TaskStore
}
