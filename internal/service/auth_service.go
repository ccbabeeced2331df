package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/pkg/jwt"

	"gorm.io/gorm"
)

var ErrWrongPassword = errors.New("current password is incorrect")

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService is the session boundary in front of the engine: it turns
// credentials into a token and a token back into an active user.
type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	ChangePassword(ctx context.Context, user *model.User, in ChangePasswordInput) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*LoginResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate(in); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr(err, "user")
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(in.Password) {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResponse{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, storageErr(err, "user")
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, user *model.User, in ChangePasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}
	if !user.CheckPassword(in.OldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(in.NewPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return storageErr(s.userRepo.UpdatePassword(ctx, user.ID, user.Password), "user")
}
