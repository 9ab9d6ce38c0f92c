package notification

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryMeal        Category = "meal"
	CategoryWater       Category = "water"
	CategoryExercise    Category = "exercise"
	CategorySleep       Category = "sleep"
	CategoryAchievement Category = "achievement"
	CategorySystem      Category = "system"
)

// RotationOrder is the fixed cyclic order the rotation job walks through.
var RotationOrder = []Category{
	CategoryMeal,
	CategoryWater,
	CategoryExercise,
	CategorySleep,
	CategoryAchievement,
	CategorySystem,
}

// NextCategory returns the category after c, wrapping from system back to
// meal. An unknown cursor value restarts the cycle at meal.
func NextCategory(c Category) Category {
	for i, cat := range RotationOrder {
		if cat == c {
			return RotationOrder[(i+1)%len(RotationOrder)]
		}
	}
	return RotationOrder[0]
}

type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Category  Category   `json:"category" db:"category"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Data      map[string]any `json:"data" db:"data"`
	ReadAt    *time.Time `json:"read_at" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID   uuid.UUID      `json:"user_id"`
	Category Category       `json:"category"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
}

// RotationState is the persisted singleton cursor for the round-robin job.
type RotationState struct {
	ID          int       `json:"id" db:"id"`
	CurrentType Category  `json:"current_type" db:"current_type"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type Preferences struct {
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	PushEnabled  bool          `json:"push_enabled" db:"push_enabled"`
	DeviceTokens []DeviceToken `json:"device_tokens"`
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}
