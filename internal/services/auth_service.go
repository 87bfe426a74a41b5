package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token validation.
type AuthService struct {
	userRepo   repositories.UserRepository
	validate   *validator.Validate
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService. A zero ttl defaults to 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		validate:   validator.New(),
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: ttl,
	}
}

// RegisterUser registers a new user with the user role and a hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = models.RoleUser
	if err := s.validate.Struct(user); err != nil {
		return validationFailed(err, "")
	}
	return s.createUser(ctx, user)
}

// EnsureAdmin creates an admin account unless the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return &BackendError{Op: "get user", Err: err}
	}
	admin := &models.User{Email: email, Password: password, Role: models.RoleAdmin, FullName: "Administrator"}
	if err := s.validate.Struct(admin); err != nil {
		return validationFailed(err, "")
	}
	if err := s.createUser(ctx, admin); err != nil {
		return err
	}
	zap.L().Info("admin account seeded", zap.String("email", email))
	return nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return fmt.Errorf("%w: '%s'", ErrEmailTaken, user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return &BackendError{Op: "create user", Err: err}
	}
	return nil
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, &BackendError{Op: "get user", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.Password = ""
	return tokenString, user, nil
}

// ValidateToken parses a JWT and returns the caller identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (models.AuthContext, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return models.AuthContext{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.AuthContext{}, errors.New("invalid token")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return models.AuthContext{}, errors.New("invalid token: missing user_id")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return models.AuthContext{UserID: userID, Email: email, Role: role}, nil
}
