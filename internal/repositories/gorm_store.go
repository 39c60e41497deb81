package repositories

import (
	"context"
	"errors"
	"fmt"

	"todo-api/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translate(err, "create user")
	}
	return &user, nil
}

func (s *GormStore) CreateTask(ctx context.Context, ownerID uint, title, description string) (*models.Task, error) {
	task := models.Task{
		UserID:      ownerID,
		Title:       title,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, translate(err, "create task")
	}
	return &task, nil
}

func (s *GormStore) FindTasksByOwner(ctx context.Context, ownerID uint) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id").Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "find tasks by owner")
	}
	return tasks, nil
}

func (s *GormStore) FindTaskByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err, "find task")
	}
	return &task, nil
}

// UpdateTask loads and saves inside one transaction so a concurrent delete
// surfaces as ErrNotFound instead of a silent no-op.
func (s *GormStore) UpdateTask(ctx context.Context, id uint, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}
		if patch.IsEmpty() {
			return nil
		}
		patch.Apply(&task)
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, translate(err, "update task")
	}
	return &task, nil
}

func (s *GormStore) DeleteTask(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete task")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// isUniqueViolation also recognizes raw postgres errors from a gorm.DB
// opened without TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
