package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/usersvc/usersvc/common/dbutil"
	"github.com/usersvc/usersvc/pkg/metrics"
	"github.com/usersvc/usersvc/pkg/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no user matches the requested ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when a create or update would reuse an
	// email held by another user.
	ErrEmailExists = errors.New("email already exists")
)

// DefaultListLimit is the page size used when callers pass no limit.
const DefaultListLimit = 10

// UserService defines user record operations.
type UserService interface {
	Start() error
	Stop() error
	CreateUser(ctx context.Context, name, email string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error)
	UpdateUser(ctx context.Context, id uint, name, email *string) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// Service implements UserService
type Service struct {
	logger *zap.Logger
	db     *gorm.DB
}

// NewService creates a new UserService
func NewService(logger *zap.Logger, db *gorm.DB) (UserService, error) {
	return &Service{
		logger: logger,
		db:     db,
	}, nil
}

// Start starts the users service
func (s *Service) Start() error {
	s.logger.Info("Users service started")
	return nil
}

// Stop stops the users service
func (s *Service) Stop() error {
	s.logger.Info("Users service stopped")
	return nil
}

// CreateUser stores a new user and returns it with its assigned ID
func (s *Service) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	// Check if email already exists
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	user := &models.User{
		Name:  name,
		Email: email,
	}

	// The unique index settles concurrent creates that pass the check above
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(dbutil.WrapError(err), dbutil.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.UsersCreated.Inc()
	s.logger.Info("User created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// GetUser gets a user by ID
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := dbutil.FindOne[models.User](s.db.WithContext(ctx).Where("id = ?", id))
	if err != nil {
		if errors.Is(err, dbutil.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetUserByEmail gets a user by email
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := dbutil.FindOne[models.User](s.db.WithContext(ctx).Where("email = ?", email))
	if err != nil {
		if errors.Is(err, dbutil.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users, newest first, plus the unpaged total
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	// Count users
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	// Find users; id breaks ties between equal timestamps
	var users []*models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find users: %w", err)
	}

	return users, count, nil
}

// UpdateUser applies a partial update; nil fields keep their stored values
func (s *Service) UpdateUser(ctx context.Context, id uint, name, email *string) (*models.User, error) {
	// Find user
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if email != nil && *email != user.Email {
		// Check if the new email is held by another user
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ? AND id <> ?", *email, id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return nil, ErrEmailExists
		}
		user.Email = *email
	}
	if name != nil {
		user.Name = *name
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		if errors.Is(dbutil.WrapError(err), dbutil.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return &user, nil
}

// DeleteUser removes a user record
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	metrics.UsersDeleted.Inc()
	s.logger.Info("User deleted", zap.Uint("id", id))
	return nil
}
