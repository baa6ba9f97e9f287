package service

import (
	"context"
	"fmt"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/models"
)

// UserService bootstraps local user records for externally issued identities
type UserService struct {
	log   *logger.Logger
	users UserStore
}

func NewUserService(log *logger.Logger, users UserStore) *UserService {
	return &UserService{log: log.With("service", "UserService"), users: users}
}

// AuthCallbackResult is returned once the caller has a user row
type AuthCallbackResult struct {
	Success bool `json:"success"`
}

// AuthCallback makes sure the caller has a user row. Concurrent first calls
// are safe: the insert ignores a conflicting primary key.
func (s *UserService) AuthCallback(ctx context.Context, id auth.Identity) (*AuthCallbackResult, error) {
	if !id.Complete() {
		return nil, ErrUnauthenticated
	}

	_, err := s.users.GetByID(ctx, id.UserID)
	switch {
	case err == nil:
		return &AuthCallbackResult{Success: true}, nil
	case !isNotFound(err):
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	created, err := s.users.CreateIfNotExists(ctx, &models.User{ID: id.UserID, Email: id.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created {
		s.log.Info("user created", "user_id", id.UserID)
	}

	return &AuthCallbackResult{Success: true}, nil
}
