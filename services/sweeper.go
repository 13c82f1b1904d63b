package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"momentumAPI/internal/clock"
	"momentumAPI/internal/store"
	"momentumAPI/internal/types/event"
)

// Sweeper periodically retires expired challenges. Official challenges reset
// in place (participants and progress cleared, start date moved to now);
// community challenges credit every participant who completed the full
// duration, then get deleted. Each challenge is handled in its own
// transaction, so a sweep racing a verification ends with last writer wins.
type Sweeper struct {
	store  store.Store
	clock  clock.Clock
	events EventPublisher
	cron   *cron.Cron
}

func NewSweeper(st store.Store, clk clock.Clock, events EventPublisher) *Sweeper {
	return &Sweeper{
		store:  st,
		clock:  clk,
		events: events,
	}
}

// Start schedules the hourly sweep.
func (s *Sweeper) Start() {
	s.cron = cron.New()
	s.cron.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.SweepExpired(ctx); err != nil {
			log.Printf("Challenge sweep failed: %v", err)
		}
	})
	s.cron.Start()
	log.Println("Challenge sweeper scheduled hourly")
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) SweepExpired(ctx context.Context) error {
	now := s.clock.Now()

	expired, err := s.store.ListExpiredChallenges(ctx, now)
	if err != nil {
		return err
	}

	for _, ch := range expired {
		var completers []uuid.UUID

		sweep := func(tx store.Tx) error {
			// Re-read inside the transaction; an official challenge may have
			// been reset by an overlapping sweep run already.
			current, err := tx.GetChallenge(ctx, ch.ID)
			if err != nil {
				return err
			}
			if !current.IsExpired(now) {
				return nil
			}

			if current.IsOfficial {
				return tx.ResetChallenge(ctx, ch.ID, now)
			}

			counts, err := tx.ProgressCounts(ctx, ch.ID)
			if err != nil {
				return err
			}
			for userID, days := range counts {
				if days >= current.DurationDays {
					if err := tx.CreditCompletedChallenge(ctx, userID); err != nil {
						return err
					}
					completers = append(completers, userID)
				}
			}
			return tx.DeleteChallenge(ctx, ch.ID)
		}

		err := s.store.Atomic(ctx, sweep)
		if err != nil {
			// ErrNotFound included: another sweep got there first.
			log.Printf("Sweep of challenge %s failed: %v", ch.ID, err)
			continue
		}

		if ch.IsOfficial {
			log.Printf("Reset official challenge %s (%s)", ch.ID, ch.Title)
			continue
		}
		log.Printf("Retired community challenge %s (%s), %d completers", ch.ID, ch.Title, len(completers))

		if s.events == nil {
			continue
		}
		for _, userID := range completers {
			username := ""
			if u, err := s.store.GetUserByID(ctx, userID); err == nil {
				username = u.Username
			}
			s.events.Publish(event.Event{
				Type:           event.TypeChallengeCompleted,
				ChallengeID:    ch.ID,
				ChallengeTitle: ch.Title,
				UserID:         userID,
				Username:       username,
			})
		}
	}
	return nil
}
