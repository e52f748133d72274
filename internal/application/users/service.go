package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

// Service manages user records; identity comes from an external auth provider
// so creation is an upsert keyed on uid.
type Service struct {
	DB *gorm.DB
}

// Create registers a user if the uid is new. Returns the user and whether a
// row was created.
func (s *Service) Create(ctx context.Context, uid, email string, displayName *string) (*domain.User, bool, error) {
	if uid == "" || email == "" {
		return nil, false, fmt.Errorf("%w: uid and email are required", ErrValidation)
	}
	if !validation.IsValidEmail(email) {
		return nil, false, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	var existing domain.User
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user := domain.User{UID: uid, Email: email, DisplayName: displayName}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// Settings is the user-tunable subset.
type Settings struct {
	DriftThreshold *float64 `json:"drift_threshold"`
}

func (s *Service) GetSettings(ctx context.Context, uid string) (*Settings, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	var user domain.User
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Settings{DriftThreshold: user.DriftThreshold}, nil
}

func (s *Service) UpdateSettings(ctx context.Context, uid string, settings Settings) (*domain.User, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	var user domain.User
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.DriftThreshold = settings.DriftThreshold
	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
