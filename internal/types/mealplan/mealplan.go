package mealplan

import (
	"time"

	"github.com/google/uuid"

	"nutriQuestAPI/internal/types/meal"
)

type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotSnack     Slot = "snack"
)

func ValidSlot(s Slot) bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return true
	}
	return false
}

type PlanEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Date      time.Time  `json:"date" db:"date"`
	Slot      Slot       `json:"slot" db:"slot"`
	MealID    uuid.UUID  `json:"meal_id" db:"meal_id"`
	Eaten     bool       `json:"eaten" db:"eaten"`
	EatenAt   *time.Time `json:"eaten_at" db:"eaten_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type PlanEntryWithMeal struct {
	PlanEntry
	Meal *meal.Meal `json:"meal"`
}

type DayPlan struct {
	Date    time.Time            `json:"date"`
	Entries []*PlanEntryWithMeal `json:"entries"`
}

type UpsertEntryRequest struct {
	Date   string `json:"date"`
	Slot   Slot   `json:"slot"`
	MealID string `json:"meal_id"`
}

// ShareSession is a short-lived QR deep link that lets another user
// import this plan.
type ShareSession struct {
	SessionID    uuid.UUID `json:"session_id"`
	ShareToken   string    `json:"share_token"`
	ShareLink    string    `json:"share_link"`
	QrCodeBase64 string    `json:"qr_code_base64"`
	ExpiresAt    time.Time `json:"expires_at"`
}
