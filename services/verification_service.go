package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/clock"
	"momentumAPI/internal/health"
	"momentumAPI/internal/scoring"
	"momentumAPI/internal/store"
	"momentumAPI/internal/types/event"
	"momentumAPI/internal/types/leaderboard"
	"momentumAPI/internal/verification"
)

type VerifyStatus string

const (
	// StatusCompleted: the day was verified and recorded.
	StatusCompleted VerifyStatus = "completed"
	// StatusAlreadyVerified: today was already recorded. Idempotent no-op.
	StatusAlreadyVerified VerifyStatus = "already_verified"
	// StatusGoalNotMet: verification ran but the goal was not reached.
	StatusGoalNotMet VerifyStatus = "goal_not_met"
)

type VerifyResult struct {
	Status VerifyStatus       `json:"status"`
	Reason string             `json:"reason,omitempty"`
	Entry  *leaderboard.Entry `json:"entry,omitempty"`
}

// EventPublisher is the fire-and-forget sink for domain events.
type EventPublisher interface {
	Publish(e event.Event)
}

// metricTimeout bounds a single metric provider call; expiry is reported as
// provider-unavailable, which callers may retry.
const metricTimeout = 10 * time.Second

// VerificationService is the daily verification orchestrator. Per (challenge,
// user, calendar day) the state machine is NotVerified -> Verified; the only
// state mutation is the single transaction that appends the ledger day,
// recomputes streaks and score from the post-append history, and writes the
// leaderboard entry.
type VerificationService struct {
	store   store.Store
	metrics health.Provider
	clock   clock.Clock
	events  EventPublisher
}

func NewVerificationService(st store.Store, metrics health.Provider, clk clock.Clock, events EventPublisher) *VerificationService {
	return &VerificationService{
		store:   st,
		metrics: metrics,
		clock:   clk,
		events:  events,
	}
}

func (s *VerificationService) VerifyToday(ctx context.Context, clerkID string, challengeID uuid.UUID, evidence verification.Evidence) (*VerifyResult, error) {
	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	participating, err := s.store.IsParticipant(ctx, challengeID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if !participating {
		return nil, ErrNotParticipant
	}

	now := s.clock.Now()
	if ch.IsExpired(now) {
		return nil, ErrChallengeExpired
	}

	loc := user.Location()
	day := clock.LocalDay(now, loc)

	done, err := s.store.HasCompletedOn(ctx, challengeID, user.ID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to check today's progress: %w", err)
	}
	if done {
		return &VerifyResult{Status: StatusAlreadyVerified}, nil
	}

	window := health.Window{Start: clock.StartOfLocalDay(now, loc), End: now}
	sample := func(ctx context.Context, metric health.Metric) (float64, error) {
		sampleCtx, cancel := context.WithTimeout(ctx, metricTimeout)
		defer cancel()
		return s.metrics.Sample(sampleCtx, user.ID, metric, window)
	}

	outcome, err := verification.Evaluate(ctx, ch, evidence, sample)
	if err != nil {
		// ProviderUnavailable, InvalidEvidence, InvalidConfiguration: no
		// state changed, the caller decides whether a retry makes sense.
		return nil, err
	}
	if !outcome.Success {
		return &VerifyResult{Status: StatusGoalNotMet, Reason: outcome.Reason}, nil
	}

	var entry *leaderboard.Entry
	alreadyRecorded := false

	record := func(tx store.Tx) error {
		inserted, err := tx.InsertProgressDay(ctx, challengeID, user.ID, day)
		if err != nil {
			return err
		}
		if !inserted {
			alreadyRecorded = true
			return nil
		}

		days, err := tx.ProgressDays(ctx, challengeID, user.ID)
		if err != nil {
			return err
		}

		current, longest := scoring.Streaks(days)
		entry = &leaderboard.Entry{
			ChallengeID:   challengeID,
			UserID:        user.ID,
			Username:      user.Username,
			DaysCompleted: len(days),
			CurrentStreak: current,
			LongestStreak: longest,
			Score:         scoring.Score(len(days), current, longest, ch.Difficulty),
			LastUpdated:   now,
		}
		return tx.UpsertLeaderboardEntry(ctx, entry)
	}

	for attempt := 0; ; attempt++ {
		err = s.store.Atomic(ctx, record)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrConflict) && attempt < txRetries-1 {
			continue
		}
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if alreadyRecorded {
		// Lost the race to a concurrent call that verified the same day.
		return &VerifyResult{Status: StatusAlreadyVerified}, nil
	}

	if s.events != nil {
		s.events.Publish(event.Event{
			Type:           event.TypeDailyCompletionRecorded,
			ChallengeID:    challengeID,
			ChallengeTitle: ch.Title,
			UserID:         user.ID,
			Username:       user.Username,
			CurrentStreak:  entry.CurrentStreak,
			Score:          entry.Score,
		})
	}

	return &VerifyResult{Status: StatusCompleted, Entry: entry}, nil
}
