package scoring

import (
	"math"
	"sort"
	"time"

	"momentumAPI/internal/types/challenge"
)

// Streaks derives the current and longest streak from the full completion
// history. Days are calendar days (midnight-normalized); duplicates are
// tolerated. The current streak is the consecutive run ending at the most
// recent day; the longest is the maximum run anywhere in the history. Always
// recomputed from scratch, never carried forward incrementally, so the stored
// leaderboard values are only a cache of this function.
func Streaks(days []time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	sorted := make([]time.Time, 0, len(days))
	seen := make(map[time.Time]bool, len(days))
	for _, d := range days {
		d = d.Truncate(24 * time.Hour)
		if !seen[d] {
			seen[d] = true
			sorted = append(sorted, d)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Sub(sorted[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// Current streak: walk from the most recent day until the first gap.
	current = 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Sub(sorted[i]) == 24*time.Hour {
			current++
		} else {
			break
		}
	}

	return current, longest
}

// Score is the leaderboard score formula. Base points per day completed, a
// bonus per current-streak day and a smaller one per longest-streak day,
// scaled by challenge difficulty and floored to an int.
func Score(daysCompleted, currentStreak, longestStreak int, difficulty challenge.Difficulty) int {
	base := daysCompleted*10 + currentStreak*5 + longestStreak*2

	var multiplier float64
	switch difficulty {
	case challenge.DifficultyEasy:
		multiplier = 1.0
	case challenge.DifficultyMedium:
		multiplier = 1.2
	case challenge.DifficultyHard:
		multiplier = 1.5
	default:
		multiplier = 1.0
	}

	return int(math.Floor(float64(base) * multiplier))
}
