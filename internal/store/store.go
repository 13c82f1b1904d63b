package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/health"
	"momentumAPI/internal/types/activity"
	"momentumAPI/internal/types/challenge"
	"momentumAPI/internal/types/leaderboard"
	"momentumAPI/internal/types/user"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by Atomic when the transaction lost a
	// serialization race. Callers retry the whole read-modify-write.
	ErrConflict = errors.New("transaction conflict")
)

type ChallengeFilter struct {
	Official *bool
	Type     challenge.ChallengeType
}

// Tx is the view of the store inside an Atomic block. Everything executed
// through it commits or rolls back as one unit.
type Tx interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error)
	AddParticipant(ctx context.Context, challengeID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, challengeID, userID uuid.UUID) error
	CountActiveParticipations(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	ProgressDays(ctx context.Context, challengeID, userID uuid.UUID) ([]time.Time, error)
	ProgressCounts(ctx context.Context, challengeID uuid.UUID) (map[uuid.UUID]int, error)
	InsertProgressDay(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (inserted bool, err error)
	UpsertLeaderboardEntry(ctx context.Context, entry *leaderboard.Entry) error
	ResetChallenge(ctx context.Context, challengeID uuid.UUID, startDate time.Time) error
	DeleteChallenge(ctx context.Context, challengeID uuid.UUID) error
	CreditCompletedChallenge(ctx context.Context, userID uuid.UUID) error
}

// Store is the persistence boundary for the challenge engine. The Postgres
// implementation backs production; the in-memory one backs deterministic
// tests. Atomic runs fn in a serializable transaction and surfaces
// ErrConflict on races.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	CreateChallenge(ctx context.Context, ch *challenge.Challenge) error
	ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*challenge.Challenge, error)
	ListExpiredChallenges(ctx context.Context, now time.Time) ([]*challenge.Challenge, error)
	IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error)
	HasCompletedOn(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (bool, error)

	Leaderboard(ctx context.Context, challengeID uuid.UUID, page, pageSize int) ([]*leaderboard.Entry, int, error)
	LeaderboardEntry(ctx context.Context, challengeID, userID uuid.UUID) (*leaderboard.Entry, error)

	InsertActivity(ctx context.Context, a *activity.Activity) error
	RecentActivities(ctx context.Context, limit int) ([]*activity.Activity, error)

	CreateUser(ctx context.Context, u *user.User) error
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateUserProfile(ctx context.Context, clerkID, email, username, imageURL string) error
	UpdateUserTimezone(ctx context.Context, clerkID, timezone string) error
	UpdateUserDeviceToken(ctx context.Context, clerkID, token string) error
	SetPremiumByEmail(ctx context.Context, email string, premium bool) error
	DeleteUserByClerkID(ctx context.Context, clerkID string) error

	InsertHealthSamples(ctx context.Context, userID uuid.UUID, samples []health.SyncSample) error
	SumHealthSamples(ctx context.Context, userID uuid.UUID, metric health.Metric, window health.Window) (float64, error)
}
