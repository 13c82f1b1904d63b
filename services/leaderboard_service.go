package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/leaderboard"
)

const leaderboardPageSize = 20

type LeaderboardService struct {
	store store.Store
}

func NewLeaderboardService(st store.Store) *LeaderboardService {
	return &LeaderboardService{store: st}
}

// GetLeaderboard returns a score-descending page of entries plus the caller's
// own ranked row, which may fall outside the page.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string, challengeID uuid.UUID, page int) (*leaderboard.Leaderboard, error) {
	if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if page < 1 {
		page = 1
	}

	entries, total, err := s.store.Leaderboard(ctx, challengeID, page, leaderboardPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	result := &leaderboard.Leaderboard{
		Entries:    entries,
		TotalUsers: total,
	}

	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err == nil {
		position, err := s.store.LeaderboardEntry(ctx, challengeID, user.ID)
		if err == nil {
			result.UserPosition = position
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load user position: %w", err)
		}
	}

	return result, nil
}
