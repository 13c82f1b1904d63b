package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"momentumAPI/internal/clock"
	"momentumAPI/internal/store"
	"momentumAPI/internal/types/challenge"
)

// officialChallenges is the built-in seed set. Official challenges never die;
// the sweeper resets them in place when they expire.
var officialChallenges = []challenge.Challenge{
	{
		Title:              "30-Day Fitness",
		Description:        "Complete daily workouts for 30 days",
		ChallengeType:      challenge.TypeFitness,
		Difficulty:         challenge.DifficultyMedium,
		VerificationMethod: challenge.MethodMetricThreshold,
		Metric:             "steps",
		Goal:               10000,
		MaxParticipants:    1500,
		DurationDays:       30,
	},
	{
		Title:              "Learn a Language",
		Description:        "Master 100 new words in a month",
		ChallengeType:      challenge.TypeEducation,
		Difficulty:         challenge.DifficultyHard,
		VerificationMethod: challenge.MethodManualNumeric,
		Goal:               10,
		MaxParticipants:    2000,
		DurationDays:       30,
	},
	{
		Title:              "Meditation Challenge",
		Description:        "Meditate for 10 minutes daily",
		ChallengeType:      challenge.TypeLifestyle,
		Difficulty:         challenge.DifficultyEasy,
		VerificationMethod: challenge.MethodTimer,
		GoalMinutes:        10,
		MaxParticipants:    3000,
		DurationDays:       21,
	},
	{
		Title:              "Coding Sprint",
		Description:        "Build a simple app in 7 days",
		ChallengeType:      challenge.TypeEducation,
		Difficulty:         challenge.DifficultyHard,
		VerificationMethod: challenge.MethodCheckbox,
		MaxParticipants:    500,
		DurationDays:       7,
	},
	{
		Title:              "Reading Marathon",
		Description:        "Read 5 books in a month",
		ChallengeType:      challenge.TypeEducation,
		Difficulty:         challenge.DifficultyMedium,
		VerificationMethod: challenge.MethodManualNumeric,
		Goal:               20,
		MaxParticipants:    1200,
		DurationDays:       30,
	},
}

// SeedOfficialChallenges inserts any official challenge missing from the
// store. Safe to run on every boot.
func SeedOfficialChallenges(ctx context.Context, st store.Store, clk clock.Clock) error {
	official := true
	existing, err := st.ListChallenges(ctx, store.ChallengeFilter{Official: &official})
	if err != nil {
		return fmt.Errorf("failed to list official challenges: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, ch := range existing {
		present[ch.Title] = true
	}

	for _, seed := range officialChallenges {
		if present[seed.Title] {
			continue
		}
		ch := seed
		ch.ID = uuid.New()
		ch.IsOfficial = true
		ch.StartDate = clk.Now()
		ch.CreatedAt = clk.Now()
		if err := st.CreateChallenge(ctx, &ch); err != nil {
			return fmt.Errorf("failed to seed challenge %q: %w", ch.Title, err)
		}
		log.Printf("Seeded official challenge %q", ch.Title)
	}
	return nil
}
