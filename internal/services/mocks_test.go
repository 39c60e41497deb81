package services

import (
	"context"
	"errors"

	"todo-api/internal/models"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockUserStore struct {
	findUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	createUserFunc      func(ctx context.Context, username, email, passwordHash string) (*models.User, error)
}

func (m *mockUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findUserByEmailFunc != nil {
		return m.findUserByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, username, email, passwordHash)
	}
	return nil, errors.New("not implemented")
}

type mockTaskStore struct {
	createTaskFunc       func(ctx context.Context, ownerID uint, title, description string) (*models.Task, error)
	findTasksByOwnerFunc func(ctx context.Context, ownerID uint) ([]models.Task, error)
	findTaskByIDFunc     func(ctx context.Context, id uint) (*models.Task, error)
	updateTaskFunc       func(ctx context.Context, id uint, patch models.TaskPatch) (*models.Task, error)
	deleteTaskFunc       func(ctx context.Context, id uint) error
}

func (m *mockTaskStore) CreateTask(ctx context.Context, ownerID uint, title, description string) (*models.Task, error) {
	if m.createTaskFunc != nil {
		return m.createTaskFunc(ctx, ownerID, title, description)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskStore) FindTasksByOwner(ctx context.Context, ownerID uint) ([]models.Task, error) {
	if m.findTasksByOwnerFunc != nil {
		return m.findTasksByOwnerFunc(ctx, ownerID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskStore) FindTaskByID(ctx context.Context, id uint) (*models.Task, error) {
	if m.findTaskByIDFunc != nil {
		return m.findTaskByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskStore) UpdateTask(ctx context.Context, id uint, patch models.TaskPatch) (*models.Task, error) {
	if m.updateTaskFunc != nil {
		return m.updateTaskFunc(ctx, id, patch)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, id uint) error {
	if m.deleteTaskFunc != nil {
		return m.deleteTaskFunc(ctx, id)
	}
	return errors.New("not implemented")
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Verify(plain, digest string) bool { return digest == "hashed:"+plain }
