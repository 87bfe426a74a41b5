package services

import (
	"context"
	"errors"
	"strings"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProfileInput holds the fields a user may change on their own account.
type ProfileInput struct {
	FullName string `json:"fullName" validate:"omitempty,max=150"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type UserService struct {
	repo     repositories.UserRepository
	validate *validator.Validate
}

func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo, validate: validator.New()}
}

// ListUsers returns every account without password hashes.
func (s *UserService) ListUsers(ctx context.Context, auth models.AuthContext) ([]models.User, error) {
	if err := RequireAdmin(auth); err != nil {
		return nil, err
	}
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, &BackendError{Op: "list users", Err: err}
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, auth models.AuthContext) (*models.User, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	return s.get(ctx, auth.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, auth models.AuthContext, input ProfileInput) (*models.User, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationFailed(err, "")
	}
	user, err := s.get(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	user.FullName = strings.TrimSpace(input.FullName)
	user.Phone = strings.TrimSpace(input.Phone)
	return s.save(ctx, user)
}

// SetRole changes another account's role. Takes effect on the user's next login.
func (s *UserService) SetRole(ctx context.Context, auth models.AuthContext, userID, role string) (*models.User, error) {
	if err := RequireAdmin(auth); err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, &ValidationError{Message: "role must be 'user' or 'admin'"}
	}
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	return s.save(ctx, user)
}

func (s *UserService) get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &BackendError{Op: "get user", Err: err}
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &BackendError{Op: "update user", Err: err}
	}
	return user, nil
}
