package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"momentumAPI/internal/clock"
	"momentumAPI/internal/store"
	"momentumAPI/internal/types/challenge"
)

// ChallengeService owns the challenge lifecycle: create, join, leave. The
// capacity and entitlement checks run inside one transaction with the
// participant write so concurrent joins cannot oversubscribe a challenge.
type ChallengeService struct {
	store         store.Store
	clock         clock.Clock
	freeTierLimit int
}

func NewChallengeService(st store.Store, clk clock.Clock, freeTierLimit int) *ChallengeService {
	return &ChallengeService{
		store:         st,
		clock:         clk,
		freeTierLimit: freeTierLimit,
	}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	creator, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if req.DurationDays < 1 || req.DurationDays > 365 {
		return nil, fmt.Errorf("duration must be between 1 and 365 days")
	}
	if req.MaxParticipants < 1 {
		return nil, fmt.Errorf("max participants must be positive")
	}

	ch := &challenge.Challenge{
		ID:                 uuid.New(),
		Title:              req.Title,
		Description:        req.Description,
		ChallengeType:      req.ChallengeType,
		Difficulty:         req.Difficulty,
		VerificationMethod: req.VerificationMethod,
		Metric:             req.Metric,
		Goal:               req.Goal,
		GoalMinutes:        req.GoalMinutes,
		TargetLat:          req.TargetLat,
		TargetLon:          req.TargetLon,
		RadiusMeters:       req.RadiusMeters,
		MaxParticipants:    req.MaxParticipants,
		DurationDays:       req.DurationDays,
		StartDate:          s.clock.Now(),
		IsOfficial:         false,
		CreatorID:          creator.ID,
		CreatedAt:          s.clock.Now(),
	}

	if err := s.store.CreateChallenge(ctx, ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	ch, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context, filter store.ChallengeFilter) ([]*challenge.Challenge, error) {
	return s.store.ListChallenges(ctx, filter)
}

// Join adds the user to the challenge. Already-joined is a no-op success.
// Capacity is checked against the participant count read in the same
// transaction; the entitlement cap counts the free-tier user's non-expired
// participations at join time.
func (s *ChallengeService) Join(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	now := s.clock.Now()

	join := func(tx store.Tx) error {
		ch, err := tx.GetChallenge(ctx, challengeID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}

		joined, err := tx.IsParticipant(ctx, challengeID, user.ID)
		if err != nil {
			return err
		}
		if joined {
			return nil
		}

		if ch.IsExpired(now) {
			return ErrChallengeExpired
		}
		if ch.ParticipantCount >= ch.MaxParticipants {
			return ErrCapacityExceeded
		}

		if !user.IsPremium {
			active, err := tx.CountActiveParticipations(ctx, user.ID, now)
			if err != nil {
				return err
			}
			if active >= s.freeTierLimit {
				return ErrEntitlementExceeded
			}
		}

		return tx.AddParticipant(ctx, challengeID, user.ID)
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.store.Atomic(ctx, join)
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return ErrConcurrentModification
}

// Leave removes the user from the challenge; absent is a no-op.
func (s *ChallengeService) Leave(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	user, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	leave := func(tx store.Tx) error {
		if _, err := tx.GetChallenge(ctx, challengeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}
		return tx.RemoveParticipant(ctx, challengeID, user.ID)
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.store.Atomic(ctx, leave)
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return ErrConcurrentModification
}

func generateShareLink(challengeID uuid.UUID) string {
	return fmt.Sprintf("momentum://challenge/join/%s", challengeID)
}

// Invite builds a deep link plus QR PNG for sharing a challenge.
func (s *ChallengeService) Invite(ctx context.Context, challengeID uuid.UUID) (*challenge.InviteResponse, error) {
	if _, err := s.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}

	link := generateShareLink(challengeID)
	pngBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &challenge.InviteResponse{
		ChallengeID:  challengeID,
		ShareLink:    link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
