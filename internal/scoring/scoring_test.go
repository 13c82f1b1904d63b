package scoring

import (
	"testing"
	"time"

	"momentumAPI/internal/types/challenge"
)

func day(offset int) time.Time {
	base := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestStreaksEmpty(t *testing.T) {
	current, longest := Streaks(nil)
	if current != 0 || longest != 0 {
		t.Fatalf("expected 0/0 for empty history, got %d/%d", current, longest)
	}
}

func TestStreaksSingleDay(t *testing.T) {
	current, longest := Streaks([]time.Time{day(0)})
	if current != 1 || longest != 1 {
		t.Fatalf("expected 1/1, got %d/%d", current, longest)
	}
}

func TestStreaksConsecutiveRun(t *testing.T) {
	// Three consecutive days ending today, plus an isolated older day.
	days := []time.Time{day(0), day(-1), day(-2), day(-5)}

	current, longest := Streaks(days)
	if current != 3 {
		t.Errorf("expected current streak 3, got %d", current)
	}
	if longest != 3 {
		t.Errorf("expected longest streak 3, got %d", longest)
	}
}

func TestStreaksGapResetsCurrent(t *testing.T) {
	// A three day run in the past, then a gap, then a single recent day. The
	// current streak only counts the run ending at the most recent day.
	days := []time.Time{day(-7), day(-6), day(-5), day(0)}

	current, longest := Streaks(days)
	if current != 1 {
		t.Errorf("expected current streak 1, got %d", current)
	}
	if longest != 3 {
		t.Errorf("expected longest streak 3, got %d", longest)
	}
}

func TestStreaksToleratesDuplicatesAndOrder(t *testing.T) {
	days := []time.Time{day(-1), day(0), day(0), day(-2), day(-1)}

	current, longest := Streaks(days)
	if current != 3 || longest != 3 {
		t.Fatalf("expected 3/3, got %d/%d", current, longest)
	}
}

func TestScoreMultipliers(t *testing.T) {
	// base = 10*10 + 3*5 + 5*2 = 125
	cases := []struct {
		difficulty challenge.Difficulty
		want       int
	}{
		{challenge.DifficultyEasy, 125},
		{challenge.DifficultyMedium, 150},
		{challenge.DifficultyHard, 187}, // 187.5 floored
		{challenge.Difficulty("unknown"), 125},
	}

	for _, c := range cases {
		got := Score(10, 3, 5, c.difficulty)
		if got != c.want {
			t.Errorf("Score(10, 3, 5, %s) = %d, want %d", c.difficulty, got, c.want)
		}
	}
}

func TestScoreZeroHistory(t *testing.T) {
	if got := Score(0, 0, 0, challenge.DifficultyHard); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
