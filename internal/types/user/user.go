package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `json:"id" db:"id"`
	ClerkID          string    `json:"clerk_id" db:"clerk_id"`
	Email            string    `json:"email" db:"email"`
	Username         string    `json:"username" db:"username"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	ImageURL         string    `json:"image_url" db:"image_url"`
	EmailVerified    bool      `json:"email_verified" db:"email_verified"`
	DietaryPref      string    `json:"dietary_preference" db:"dietary_preference"`
	DailyCalorieGoal int       `json:"daily_calorie_goal" db:"daily_calorie_goal"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
