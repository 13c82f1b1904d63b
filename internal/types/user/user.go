package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	ClerkID             string    `json:"clerk_id" db:"clerk_id"`
	Email               string    `json:"email" db:"email"`
	Username            string    `json:"username" db:"username"`
	ImageURL            string    `json:"image_url" db:"image_url"`
	IsPremium           bool      `json:"is_premium" db:"is_premium"`
	Timezone            string    `json:"timezone" db:"timezone"`
	DeviceToken         string    `json:"-" db:"device_token"`
	CompletedChallenges int       `json:"completed_challenges" db:"completed_challenges"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Location returns the user's IANA timezone, falling back to UTC when the
// stored value is empty or invalid.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CreateUserRequest struct {
	ClerkID  string `json:"clerk_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token"`
}
