package activity

import (
	"time"

	"github.com/google/uuid"
)

type Activity struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Username    string    `json:"username" db:"username"`
	Description string    `json:"description" db:"description"`
	IconName    string    `json:"icon_name" db:"icon_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
