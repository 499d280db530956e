package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/storage"
)

// WelcomeSender sends the registration email.
type WelcomeSender interface {
	SendWelcomeNotification(ctx context.Context, user models.User) error
}

// UserService maintains the accounts whose saved searches drive fan-out.
type UserService interface {
	// Register validates and upserts user. A welcome email is sent the first
	// time an account is stored; failures to send it are logged only.
	Register(ctx context.Context, user *models.User) (*models.User, error)

	// Get returns the user identified by id.
	Get(ctx context.Context, id string) (*models.User, error)
}

type userService struct {
	repo    storage.UserStore
	welcome WelcomeSender
	logger  *slog.Logger
}

// NewUserService returns a UserService backed by repo. welcome may be nil.
func NewUserService(repo storage.UserStore, welcome WelcomeSender, logger *slog.Logger) UserService {
	return &userService{repo: repo, welcome: welcome, logger: logger}
}

func (s *userService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, &ValidationError{Message: "user is required"}
	}
	user.Email = strings.TrimSpace(user.Email)
	user.FullName = strings.TrimSpace(user.FullName)

	if user.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(user.Email, "@") {
		return nil, &ValidationError{Field: "email", Message: fmt.Sprintf("invalid email %q", user.Email)}
	}
	switch user.Role {
	case "":
		user.Role = models.RoleUser
	case models.RoleUser, models.RoleAgent, models.RoleAdmin:
	default:
		return nil, &ValidationError{Field: "role", Message: "must be user, agent or admin"}
	}
	for _, search := range user.SavedSearches {
		if err := search.Validate(); err != nil {
			return nil, &ValidationError{Field: "saved_searches", Message: err.Error()}
		}
	}

	isNew := user.ID == ""
	if !isNew {
		_, err := s.repo.FindUserByID(ctx, user.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			isNew = true
		case err != nil:
			return nil, fmt.Errorf("looking up user: %w", err)
		}
	}

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	s.logger.Info("user saved", "user_id", user.ID, "role", user.Role,
		"saved_searches", len(user.SavedSearches), "new", isNew)

	if isNew && s.welcome != nil {
		if err := s.welcome.SendWelcomeNotification(ctx, *user); err != nil {
			s.logger.Error("welcome notification failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return user, nil
}
