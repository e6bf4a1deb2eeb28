package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	profiles repository.ProfileStore
	logger   *zap.Logger
}

func NewUserService(profiles repository.ProfileStore, logger *zap.Logger) *UserService {
	return &UserService{
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterTelegramUser returns the profile linked to telegramID, creating a
// student profile on first contact.
func (s *UserService) RegisterTelegramUser(ctx context.Context, telegramID int64, firstName, lastName string) (*model.Profile, error) {
	existing, err := s.profiles.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check existing profile: %w", err)
	}

	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		name = fmt.Sprintf("telegram:%d", telegramID)
	}

	profile := &model.Profile{
		Name:       name,
		Role:       model.RoleStudent,
		TelegramID: &telegramID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("New student registered",
		zap.String("profile_id", profile.ID.String()),
		zap.Int64("telegram_id", telegramID),
	)

	return profile, nil
}

// GetByTelegramID returns model.ErrNotFound for unknown accounts
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Profile, error) {
	return s.profiles.GetByTelegramID(ctx, telegramID)
}

// Tutor returns the deployment's tutor
func (s *UserService) Tutor(ctx context.Context) (*model.Profile, error) {
	return s.profiles.FindTutor(ctx)
}

// EnsureTutor makes sure the tutor profile linked to telegramID exists.
// An account already registered as a student is rejected.
func (s *UserService) EnsureTutor(ctx context.Context, telegramID int64, name string) (*model.Profile, error) {
	existing, err := s.profiles.GetByTelegramID(ctx, telegramID)
	switch {
	case err == nil && existing.IsTutor():
		return existing, nil
	case err == nil:
		return nil, model.NewValidationError("telegram_id", "belongs to a student profile")
	case !errors.Is(err, model.ErrNotFound):
		return nil, fmt.Errorf("check existing profile: %w", err)
	}

	tutor, err := s.profiles.FindTutor(ctx)
	if err == nil {
		return nil, model.NewValidationError("role", fmt.Sprintf("tutor %s already exists", tutor.ID))
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("find tutor: %w", err)
	}

	profile := &model.Profile{
		Name:       name,
		Role:       model.RoleTutor,
		TelegramID: &telegramID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create tutor profile: %w", err)
	}

	s.logger.Info("Tutor profile created",
		zap.String("profile_id", profile.ID.String()),
		zap.Int64("telegram_id", telegramID),
	)
	return profile, nil
}
