package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/user"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		ImageURL:  req.ImageURL,
		Timezone:  "UTC",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, clerkID, email, username, imageURL string) error {
	if err := s.store.UpdateUserProfile(ctx, clerkID, email, username, imageURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (s *UserService) SetTimezone(ctx context.Context, clerkID, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", timezone)
	}
	if err := s.store.UpdateUserTimezone(ctx, clerkID, timezone); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	return nil
}

func (s *UserService) RegisterDevice(ctx context.Context, clerkID, deviceToken string) error {
	if err := s.store.UpdateUserDeviceToken(ctx, clerkID, deviceToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// SetPremiumByEmail flips the entitlement tier; driven by the Stripe
// subscription webhook.
func (s *UserService) SetPremiumByEmail(ctx context.Context, email string, premium bool) error {
	if err := s.store.SetPremiumByEmail(ctx, email, premium); err != nil {
		return fmt.Errorf("failed to update premium status: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	if err := s.store.DeleteUserByClerkID(ctx, clerkID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
