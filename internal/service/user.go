package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cloudsupply/storebot/internal/model"
	"github.com/cloudsupply/storebot/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Identify resolves the chat peer to a stored user, creating the record on
// first contact and refreshing the name fields on every subsequent one.
func (s *UserService) Identify(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	user, err := s.userRepo.GetOrCreate(ctx, &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	})
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.userRepo.Count(ctx)
}

func (s *UserService) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.SetBanned(ctx, id, banned); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}
