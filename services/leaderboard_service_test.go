package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/leaderboard"
	"momentumAPI/internal/types/user"

	"github.com/google/uuid"
)

func TestLeaderboardPagingAndPosition(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := NewLeaderboardService(st)

	ch := seedChallenge(t, st, now, nil)

	// 25 ranked entries; the caller sits at the bottom, off the first page.
	caller := &user.User{ID: uuid.New(), ClerkID: "clerk_caller", Username: "caller", Timezone: "UTC"}
	if err := st.CreateUser(context.Background(), caller); err != nil {
		t.Fatal(err)
	}

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		for i := 0; i < 24; i++ {
			entry := &leaderboard.Entry{
				ChallengeID: ch.ID,
				UserID:      uuid.New(),
				Username:    fmt.Sprintf("user%d", i),
				Score:       1000 - i,
				LastUpdated: now.Add(-time.Duration(i) * time.Minute),
			}
			if err := tx.UpsertLeaderboardEntry(context.Background(), entry); err != nil {
				return err
			}
		}
		return tx.UpsertLeaderboardEntry(context.Background(), &leaderboard.Entry{
			ChallengeID: ch.ID,
			UserID:      caller.ID,
			Username:    caller.Username,
			Score:       1,
			LastUpdated: now,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	lb, err := svc.GetLeaderboard(context.Background(), caller.ClerkID, ch.ID, 1)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}

	if len(lb.Entries) != 20 {
		t.Errorf("expected a 20 entry page, got %d", len(lb.Entries))
	}
	if lb.TotalUsers != 25 {
		t.Errorf("expected 25 total users, got %d", lb.TotalUsers)
	}
	if lb.Entries[0].Score != 1000 || lb.Entries[0].Rank != 1 {
		t.Errorf("expected top entry score 1000 rank 1, got %d rank %d", lb.Entries[0].Score, lb.Entries[0].Rank)
	}
	if lb.UserPosition == nil {
		t.Fatal("expected the caller's own position")
	}
	if lb.UserPosition.Rank != 25 {
		t.Errorf("expected caller rank 25, got %d", lb.UserPosition.Rank)
	}

	second, err := svc.GetLeaderboard(context.Background(), caller.ClerkID, ch.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Entries) != 5 {
		t.Errorf("expected 5 entries on page 2, got %d", len(second.Entries))
	}
}

func TestLeaderboardUnknownChallenge(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewLeaderboardService(st)

	if _, err := svc.GetLeaderboard(context.Background(), "clerk_x", uuid.New(), 1); err == nil {
		t.Fatal("expected an error for an unknown challenge")
	}
}
