package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/hash"
	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/mykafka"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/token"
	"github.com/elitestore/backend/internal/transport"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	Producer  *mykafka.Producer
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return nil, "", fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, "", fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: user already exists", ErrValidation)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	role := "customer"
	if req.Role == "admin" {
		role = "admin"
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	signed, err := token.Sign(user.ID, s.JWTSecret, token.DefaultTTL)
	if err != nil {
		return nil, "", err
	}

	publishEvent(ctx, s.Producer, "user_events", user.ID.String(), map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return user, signed, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*models.User, string, error) {
	email := NormalizeEmail(req.Email)

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: account is inactive", ErrUnauthorized)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	signed, err := token.Sign(user.ID, s.JWTSecret, token.DefaultTTL)
	if err != nil {
		return nil, "", err
	}

	publishEvent(ctx, s.Producer, "user_events", user.ID.String(), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return user, signed, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserWithFavorites(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != user.Email {
			if !emailRe.MatchString(email) {
				return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
			}
			if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%w: email already in use", ErrValidation)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		user.Address = *req.Address
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", ErrValidation)
	}
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return err
	}

	if !hash.CheckPassword(user.PasswordHash, current) {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}

	passwordHash, err := hash.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash

	return s.Repo.SaveUser(ctx, user)
}

func (s *AuthService) AddFavorite(ctx context.Context, userID, productID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, err
	}

	if err := s.Repo.AddFavorite(ctx, user, product); err != nil {
		return nil, err
	}
	return s.Repo.GetUserWithFavorites(ctx, userID)
}

func (s *AuthService) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, err
	}

	if err := s.Repo.RemoveFavorite(ctx, user, product); err != nil {
		return nil, err
	}
	return s.Repo.GetUserWithFavorites(ctx, userID)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
