package meal

import (
	"time"

	"github.com/google/uuid"
)

type Meal struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Calories    int       `json:"calories" db:"calories"`
	ProteinG    float64   `json:"protein_g" db:"protein_g"`
	CarbsG      float64   `json:"carbs_g" db:"carbs_g"`
	FatG        float64   `json:"fat_g" db:"fat_g"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	Tags        []string  `json:"tags" db:"tags"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Favorite struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	MealID    uuid.UUID `json:"meal_id" db:"meal_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type FavoriteMeal struct {
	Meal
	FavoritedAt time.Time `json:"favorited_at"`
}
