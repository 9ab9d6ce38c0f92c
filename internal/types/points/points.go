package points

import (
	"time"

	"github.com/google/uuid"
)

type UserPoints struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	TotalPoints  int       `json:"total_points" db:"total_points"`
	CurrentLevel int       `json:"current_level" db:"current_level"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PointsTransaction is the append-only audit trail of every award.
// Rows are never updated or deleted.
type PointsTransaction struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Points     int        `json:"points" db:"points"`
	Reason     string     `json:"reason" db:"reason"`
	SourceID   *uuid.UUID `json:"source_id,omitempty" db:"source_id"`
	SourceType *string    `json:"source_type,omitempty" db:"source_type"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type AwardResult struct {
	Success     bool `json:"success"`
	LevelUp     bool `json:"level_up"`
	NewLevel    int  `json:"new_level"`
	TotalPoints int  `json:"total_points"`
}
