package challenge

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeType string

const (
	TypeFitness       ChallengeType = "fitness"
	TypeEducation     ChallengeType = "education"
	TypeLifestyle     ChallengeType = "lifestyle"
	TypeMiscellaneous ChallengeType = "miscellaneous"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// VerificationMethod selects how a daily completion is proven. The
// method-specific config fields below (Metric, Goal, GoalMinutes, Target*,
// RadiusMeters) are only meaningful for the matching method.
type VerificationMethod string

const (
	MethodMetricThreshold VerificationMethod = "metric_threshold"
	MethodManualNumeric   VerificationMethod = "manual_numeric"
	MethodManualText      VerificationMethod = "manual_text"
	MethodCheckbox        VerificationMethod = "checkbox"
	MethodTimer           VerificationMethod = "timer"
	MethodLocation        VerificationMethod = "location"
	MethodPhoto           VerificationMethod = "photo"
	MethodFile            VerificationMethod = "file"
	MethodSocialPost      VerificationMethod = "social_post"
)

const DefaultLocationRadiusMeters = 100.0

type Challenge struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	Title              string             `json:"title" db:"title"`
	Description        string             `json:"description" db:"description"`
	ChallengeType      ChallengeType      `json:"challenge_type" db:"challenge_type"`
	Difficulty         Difficulty         `json:"difficulty" db:"difficulty"`
	VerificationMethod VerificationMethod `json:"verification_method" db:"verification_method"`
	Metric             string             `json:"metric,omitempty" db:"metric"`
	Goal               float64            `json:"goal,omitempty" db:"goal"`
	GoalMinutes        int                `json:"goal_minutes,omitempty" db:"goal_minutes"`
	TargetLat          float64            `json:"target_lat,omitempty" db:"target_lat"`
	TargetLon          float64            `json:"target_lon,omitempty" db:"target_lon"`
	RadiusMeters       float64            `json:"radius_meters,omitempty" db:"radius_meters"`
	MaxParticipants    int                `json:"max_participants" db:"max_participants"`
	DurationDays       int                `json:"duration_days" db:"duration_days"`
	StartDate          time.Time          `json:"start_date" db:"start_date"`
	IsOfficial         bool               `json:"is_official" db:"is_official"`
	CreatorID          uuid.UUID          `json:"creator_id" db:"creator_id"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`

	ParticipantCount int `json:"participant_count" db:"participant_count"`
}

// EndDate is the first instant at which the challenge counts as expired.
func (c *Challenge) EndDate() time.Time {
	return c.StartDate.Add(time.Duration(c.DurationDays) * 24 * time.Hour)
}

func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.EndDate())
}

type CreateChallengeRequest struct {
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	ChallengeType      ChallengeType      `json:"challenge_type"`
	Difficulty         Difficulty         `json:"difficulty"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	Metric             string             `json:"metric"`
	Goal               float64            `json:"goal"`
	GoalMinutes        int                `json:"goal_minutes"`
	TargetLat          float64            `json:"target_lat"`
	TargetLon          float64            `json:"target_lon"`
	RadiusMeters       float64            `json:"radius_meters"`
	MaxParticipants    int                `json:"max_participants"`
	DurationDays       int                `json:"duration_days"`
}

type InviteResponse struct {
	ChallengeID  uuid.UUID `json:"challenge_id"`
	ShareLink    string    `json:"share_link"`
	QrCodeBase64 string    `json:"qr_code_base64"`
}
