package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"todo-api/internal/apperrors"
	"todo-api/internal/models"
	"todo-api/internal/repositories"

	"github.com/go-playground/validator/v10"
)

const (
	maxUsernameLength = 50
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

type AuthResult struct {
	User  *models.User
	Token string
}

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type AuthServiceImpl struct {
	users    repositories.UserStore
	hasher   PasswordHasher
	tokens   *TokenCodec
	validate *validator.Validate
}

func NewAuthService(users repositories.UserStore, hasher PasswordHasher, tokens *TokenCodec) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthServiceImpl) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	if err := s.validateSignup(username, email, password); err != nil {
		return nil, err
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.DuplicateEmail(nil)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, apperrors.Internal(err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// A concurrent signup can pass the lookup above; the unique index decides.
	user, err := s.users.CreateUser(ctx, username, email, hashed)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperrors.DuplicateEmail(err)
		}
		return nil, apperrors.Internal(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	if email == "" {
		return nil, apperrors.InvalidInput("email", "email is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password", "password is required")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.Internal(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) validateSignup(username, email, password string) error {
	if username == "" {
		return apperrors.InvalidInput("username", "username is required")
	}
	if email == "" {
		return apperrors.InvalidInput("email", "email is required")
	}
	if password == "" {
		return apperrors.InvalidInput("password", "password is required")
	}

	if utf8.RuneCountInString(username) > maxUsernameLength {
		return apperrors.InvalidInput("username", "username must be at most 50 characters")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return apperrors.InvalidInput("email", "email must be a valid address")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperrors.InvalidInput("password", "password must be at least 6 characters long")
	}
	if len(password) > maxPasswordBytes {
		return apperrors.InvalidInput("password", "password must be at most 72 bytes")
	}

	return nil
}
