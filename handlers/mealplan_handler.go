package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"nutriQuestAPI/internal/types/mealplan"
	"nutriQuestAPI/internal/types/points"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/services"
)

const mealEatenRewardPoints = 5

type MealPlanHandler struct {
	mealPlanService     *services.MealPlanService
	streakService       *services.StreakService
	gamificationService *services.GamificationService
}

func NewMealPlanHandler(mealPlanService *services.MealPlanService, streakService *services.StreakService, gamificationService *services.GamificationService) *MealPlanHandler {
	return &MealPlanHandler{
		mealPlanService:     mealPlanService,
		streakService:       streakService,
		gamificationService: gamificationService,
	}
}

func parsePlanDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// PUT /api/v1/meal-plan - Set the meal for a (date, slot) cell
func (h *MealPlanHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req mealplan.UpsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := parsePlanDate(req.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	if !mealplan.ValidSlot(req.Slot) {
		respondWithError(w, http.StatusBadRequest, "Invalid slot")
		return
	}
	mealID, err := uuid.Parse(req.MealID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid meal ID")
		return
	}

	entry, err := h.mealPlanService.UpsertEntry(ctx, clerkID, date, req.Slot, mealID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// DELETE /api/v1/meal-plan?date=&slot=
func (h *MealPlanHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	date, err := parsePlanDate(r.URL.Query().Get("date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	slot := mealplan.Slot(r.URL.Query().Get("slot"))
	if !mealplan.ValidSlot(slot) {
		respondWithError(w, http.StatusBadRequest, "Invalid slot")
		return
	}

	if err := h.mealPlanService.RemoveEntry(ctx, clerkID, date, slot); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Plan entry removed"})
}

// POST /api/v1/meal-plan/eaten - Mark a planned meal as eaten
//
// Eating a planned meal counts as the day's activity: it records the
// streak and, on the first activity of the day, awards points.
func (h *MealPlanHandler) MarkEaten(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Date string        `json:"date"`
		Slot mealplan.Slot `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := parsePlanDate(req.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	if !mealplan.ValidSlot(req.Slot) {
		respondWithError(w, http.StatusBadRequest, "Invalid slot")
		return
	}

	entry, err := h.mealPlanService.MarkEaten(ctx, clerkID, date, req.Slot)
	if err != nil {
		if err.Error() == "no plan entry found for the specified date and slot" {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streakResult, err := h.streakService.RecordDailyStreak(ctx, clerkID)
	if err != nil {
		log.Printf("MarkEaten: failed to record streak: %v", err)
	}

	var award *points.AwardResult
	if streakResult != nil && streakResult.Success {
		award, err = h.gamificationService.AwardPoints(ctx, clerkID, mealEatenRewardPoints, "Planned meal eaten", &entry.ID, strPtr("meal_plan_entry"))
		if err != nil {
			log.Printf("MarkEaten: failed to award points: %v", err)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"entry":  entry,
		"streak": streakResult,
		"award":  award,
	})
}

// GET /api/v1/meal-plan/day?date=
func (h *MealPlanHandler) GetDayPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	raw := r.URL.Query().Get("date")
	var date time.Time
	var err error
	if raw == "" {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	} else if date, err = parsePlanDate(raw); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	plan, err := h.mealPlanService.GetDayPlan(ctx, clerkID, date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, plan)
}

// GET /api/v1/meal-plan/week?start=
func (h *MealPlanHandler) GetWeekPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	raw := r.URL.Query().Get("start")
	var start time.Time
	var err error
	if raw == "" {
		now := time.Now().UTC().Truncate(24 * time.Hour)
		// Monday of the current week.
		offset := (int(now.Weekday()) + 6) % 7
		start = now.AddDate(0, 0, -offset)
	} else if start, err = parsePlanDate(raw); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD")
		return
	}

	entries, err := h.mealPlanService.GetWeekPlan(ctx, clerkID, start)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"week_start": start.Format("2006-01-02"),
		"entries":    entries,
	})
}

// POST /api/v1/meal-plan/share - Generate a share QR session
func (h *MealPlanHandler) CreateShareSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	session, err := h.mealPlanService.CreateShareSession(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// POST /api/v1/meal-plan/share/import - Import a shared plan by token
func (h *MealPlanHandler) ImportSharedPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		ShareToken string `json:"share_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShareToken == "" {
		respondWithError(w, http.StatusBadRequest, "share_token is required")
		return
	}

	imported, err := h.mealPlanService.ImportSharedPlan(ctx, clerkID, req.ShareToken)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"imported_entries": imported})
}

func strPtr(s string) *string { return &s }
