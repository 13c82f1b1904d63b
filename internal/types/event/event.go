package event

import "github.com/google/uuid"

type Type string

const (
	TypeDailyCompletionRecorded Type = "daily_completion_recorded"
	TypeChallengeCompleted      Type = "challenge_completed"
)

// Event is a domain event handed to the fire-and-forget sink after state has
// already been committed. Consumers must not assume delivery.
type Event struct {
	Type           Type
	ChallengeID    uuid.UUID
	ChallengeTitle string
	UserID         uuid.UUID
	Username       string
	CurrentStreak  int
	Score          int
}
