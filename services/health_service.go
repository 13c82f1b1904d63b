package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"momentumAPI/internal/health"
	"momentumAPI/internal/store"
)

// HealthService ingests device-synced metric samples and serves as the
// engine's metric provider by summing the samples inside a day window.
type HealthService struct {
	store store.Store
}

func NewHealthService(st store.Store) *HealthService {
	return &HealthService{store: st}
}

func (s *HealthService) SyncSamples(ctx context.Context, clerkID string, req *health.SyncRequest) (int, error) {
	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to load user: %w", err)
	}

	valid := make([]health.SyncSample, 0, len(req.Samples))
	for _, sample := range req.Samples {
		if !sample.Metric.Valid() || sample.RecordedAt.IsZero() {
			continue
		}
		valid = append(valid, sample)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := s.store.InsertHealthSamples(ctx, user.ID, valid); err != nil {
		return 0, fmt.Errorf("failed to store health samples: %w", err)
	}
	return len(valid), nil
}

// Sample implements health.Provider.
func (s *HealthService) Sample(ctx context.Context, userID uuid.UUID, metric health.Metric, window health.Window) (float64, error) {
	return s.store.SumHealthSamples(ctx, userID, metric, window)
}
