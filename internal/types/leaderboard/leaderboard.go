package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ChallengeID   uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	DaysCompleted int       `json:"days_completed" db:"days_completed"`
	CurrentStreak int       `json:"current_streak" db:"current_streak"`
	LongestStreak int       `json:"longest_streak" db:"longest_streak"`
	Score         int       `json:"score" db:"score"`
	Rank          int       `json:"rank" db:"rank"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

type Leaderboard struct {
	Entries      []*Entry `json:"entries"`
	UserPosition *Entry   `json:"user_position"`
	TotalUsers   int      `json:"total_users"`
}
