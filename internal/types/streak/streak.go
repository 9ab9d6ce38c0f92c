package streak

import (
	"time"

	"github.com/google/uuid"
)

// DailyStreak is one row per user per calendar day. Rows are append-only
// and never mutated after creation.
type DailyStreak struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Date        time.Time `json:"date" db:"date"`
	StreakCount int       `json:"streak_count" db:"streak_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type RecordResult struct {
	Success     bool `json:"success"`
	StreakCount int  `json:"streak_count"`
}

type CalendarDay struct {
	Date      time.Time `json:"date"`
	CheckedIn bool      `json:"checked_in"`
	IsToday   bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
