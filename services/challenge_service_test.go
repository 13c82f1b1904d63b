package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/challenge"
)

func TestCreateChallengeValidation(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)
	u := seedUser(t, st, false)

	cases := []struct {
		name string
		req  challenge.CreateChallengeRequest
	}{
		{"missing title", challenge.CreateChallengeRequest{DurationDays: 30, MaxParticipants: 10}},
		{"zero duration", challenge.CreateChallengeRequest{Title: "x", DurationDays: 0, MaxParticipants: 10}},
		{"duration too long", challenge.CreateChallengeRequest{Title: "x", DurationDays: 400, MaxParticipants: 10}},
		{"zero capacity", challenge.CreateChallengeRequest{Title: "x", DurationDays: 30, MaxParticipants: 0}},
	}
	for _, c := range cases {
		if _, err := svc.CreateChallenge(context.Background(), u.ClerkID, &c.req); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}

	ch, err := svc.CreateChallenge(context.Background(), u.ClerkID, &challenge.CreateChallengeRequest{
		Title:              "Morning Runs",
		ChallengeType:      challenge.TypeFitness,
		Difficulty:         challenge.DifficultyEasy,
		VerificationMethod: challenge.MethodCheckbox,
		DurationDays:       14,
		MaxParticipants:    50,
	})
	if err != nil {
		t.Fatalf("valid create failed: %v", err)
	}
	if ch.IsOfficial {
		t.Error("user-created challenges must not be official")
	}
	if ch.CreatorID != u.ID {
		t.Error("creator not recorded")
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)

	u := seedUser(t, st, false)
	ch := seedChallenge(t, st, now, nil)

	if err := svc.Join(context.Background(), u.ClerkID, ch.ID); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if err := svc.Join(context.Background(), u.ClerkID, ch.ID); err != nil {
		t.Fatalf("repeat join should be a no-op, got %v", err)
	}

	got, err := st.GetChallenge(context.Background(), ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ParticipantCount != 1 {
		t.Fatalf("expected 1 participant, got %d", got.ParticipantCount)
	}
}

func TestJoinEnforcesCapacity(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)

	first := seedUser(t, st, false)
	second := seedUser(t, st, false)
	ch := seedChallenge(t, st, now, func(c *challenge.Challenge) {
		c.MaxParticipants = 1
	})

	if err := svc.Join(context.Background(), first.ClerkID, ch.ID); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if err := svc.Join(context.Background(), second.ClerkID, ch.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	// The member who got in may still re-join without error.
	if err := svc.Join(context.Background(), first.ClerkID, ch.ID); err != nil {
		t.Fatalf("member re-join failed: %v", err)
	}
}

func TestJoinEnforcesFreeTierLimit(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)

	free := seedUser(t, st, false)
	premium := seedUser(t, st, true)

	var challenges []*challenge.Challenge
	for i := 0; i < 4; i++ {
		challenges = append(challenges, seedChallenge(t, st, now, nil))
	}

	for i := 0; i < 3; i++ {
		if err := svc.Join(context.Background(), free.ClerkID, challenges[i].ID); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	if err := svc.Join(context.Background(), free.ClerkID, challenges[3].ID); !errors.Is(err, ErrEntitlementExceeded) {
		t.Fatalf("expected ErrEntitlementExceeded, got %v", err)
	}

	for _, ch := range challenges {
		if err := svc.Join(context.Background(), premium.ClerkID, ch.ID); err != nil {
			t.Fatalf("premium join failed: %v", err)
		}
	}
}

func TestJoinRejectsExpiredChallenge(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)

	u := seedUser(t, st, false)
	ch := seedChallenge(t, st, now.AddDate(0, 0, -40), nil)

	if err := svc.Join(context.Background(), u.ClerkID, ch.ID); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestLeaveIsNoOpWhenAbsent(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)

	u := seedUser(t, st, false)
	ch := seedChallenge(t, st, now, nil)

	if err := svc.Leave(context.Background(), u.ClerkID, ch.ID); err != nil {
		t.Fatalf("leave of non-member should be a no-op, got %v", err)
	}

	if err := svc.Join(context.Background(), u.ClerkID, ch.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Leave(context.Background(), u.ClerkID, ch.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	joined, err := st.IsParticipant(context.Background(), ch.ID, u.ID)
	if err != nil || joined {
		t.Fatalf("expected user gone, joined=%v err=%v", joined, err)
	}
}

func TestLeaveFreesEntitlementSlot(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 1)

	u := seedUser(t, st, false)
	first := seedChallenge(t, st, now, nil)
	second := seedChallenge(t, st, now, nil)

	if err := svc.Join(context.Background(), u.ClerkID, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Join(context.Background(), u.ClerkID, second.ID); !errors.Is(err, ErrEntitlementExceeded) {
		t.Fatalf("expected ErrEntitlementExceeded, got %v", err)
	}
	if err := svc.Leave(context.Background(), u.ClerkID, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Join(context.Background(), u.ClerkID, second.ID); err != nil {
		t.Fatalf("join after leaving should succeed, got %v", err)
	}
}

func TestJoinUnknownChallenge(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)
	u := seedUser(t, st, false)

	if err := svc.Join(context.Background(), u.ClerkID, uuid.New()); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestInvite(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc := NewChallengeService(st, fixedClock{now}, 3)
	ch := seedChallenge(t, st, now, nil)

	invite, err := svc.Invite(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if !strings.Contains(invite.ShareLink, ch.ID.String()) {
		t.Errorf("share link %q does not reference the challenge", invite.ShareLink)
	}
	if invite.QrCodeBase64 == "" {
		t.Error("expected a QR code payload")
	}

	if _, err := svc.Invite(context.Background(), uuid.New()); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}
