package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

type UserService struct {
	repository UserRepository
}

func NewUserService(repository UserRepository) *UserService {
	return &UserService{repository: repository}
}

// EnsureUser registers the user on first contact. A user deactivated after
// blocking the bot is reactivated when they write again.
func (s *UserService) EnsureUser(ctx context.Context, userID, chatID int64) error {
	active, err := s.repository.IsActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user active: %w", err)
	}
	if active {
		return nil
	}

	if _, err := s.repository.Save(ctx, entities.NewUser(userID, chatID)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
