package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/challenge"
	"momentumAPI/internal/types/event"
)

func TestSweepResetsOfficialChallenge(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	sweeper := NewSweeper(st, fixedClock{now}, nil)

	u := seedUser(t, st, false)
	ch := seedChallenge(t, st, now.AddDate(0, 0, -40), func(c *challenge.Challenge) {
		c.IsOfficial = true
	})
	joinDirect(t, st, ch.ID, u.ID)

	if err := sweeper.SweepExpired(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got, err := st.GetChallenge(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("official challenge must survive the sweep: %v", err)
	}
	if !got.StartDate.Equal(now) {
		t.Errorf("expected start date reset to %v, got %v", now, got.StartDate)
	}
	if got.ParticipantCount != 0 {
		t.Errorf("expected participants cleared, got %d", got.ParticipantCount)
	}
	if got.IsExpired(now) {
		t.Error("reset challenge must no longer be expired")
	}
}

func TestSweepRetiresCommunityChallenge(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	events := &captureEvents{}
	sweeper := NewSweeper(st, fixedClock{now}, events)

	finisher := seedUser(t, st, false)
	quitter := seedUser(t, st, false)
	ch := seedChallenge(t, st, now.AddDate(0, 0, -10), func(c *challenge.Challenge) {
		c.DurationDays = 7
	})
	joinDirect(t, st, ch.ID, finisher.ID)
	joinDirect(t, st, ch.ID, quitter.ID)

	// The finisher completed every day of the 7 day run, the quitter only two.
	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		for i := 0; i < 7; i++ {
			day := time.Date(2026, 8, 21+i, 0, 0, 0, 0, time.UTC)
			if _, err := tx.InsertProgressDay(context.Background(), ch.ID, finisher.ID, day); err != nil {
				return err
			}
			if i < 2 {
				if _, err := tx.InsertProgressDay(context.Background(), ch.ID, quitter.ID, day); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	if err := sweeper.SweepExpired(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, err := st.GetChallenge(context.Background(), ch.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected community challenge deleted, got %v", err)
	}

	gotFinisher, err := st.GetUserByID(context.Background(), finisher.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotFinisher.CompletedChallenges != 1 {
		t.Errorf("expected finisher credited once, got %d", gotFinisher.CompletedChallenges)
	}

	gotQuitter, err := st.GetUserByID(context.Background(), quitter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuitter.CompletedChallenges != 0 {
		t.Errorf("expected quitter not credited, got %d", gotQuitter.CompletedChallenges)
	}

	if events.count() != 1 {
		t.Fatalf("expected 1 completion event, got %d", events.count())
	}
	events.mu.Lock()
	e := events.events[0]
	events.mu.Unlock()
	if e.Type != event.TypeChallengeCompleted || e.UserID != finisher.ID {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestSweepLeavesActiveChallengesAlone(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	sweeper := NewSweeper(st, fixedClock{now}, nil)

	ch := seedChallenge(t, st, now.AddDate(0, 0, -5), nil) // 30 day duration, still running

	if err := sweeper.SweepExpired(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, err := st.GetChallenge(context.Background(), ch.ID); err != nil {
		t.Fatalf("active challenge must survive: %v", err)
	}
}

func TestSeedOfficialChallengesIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clk := fixedClock{now}

	if err := SeedOfficialChallenges(context.Background(), st, clk); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := SeedOfficialChallenges(context.Background(), st, clk); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	official := true
	challenges, err := st.ListChallenges(context.Background(), store.ChallengeFilter{Official: &official})
	if err != nil {
		t.Fatal(err)
	}
	if len(challenges) != len(officialChallenges) {
		t.Fatalf("expected %d official challenges, got %d", len(officialChallenges), len(challenges))
	}
	for _, ch := range challenges {
		if !ch.IsOfficial {
			t.Errorf("challenge %q not marked official", ch.Title)
		}
	}
}
