package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"nutriQuestAPI/internal/types/points"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/services"
)

const checkInRewardPoints = 10

type GamificationHandler struct {
	gamificationService *services.GamificationService
	streakService       *services.StreakService
}

func NewGamificationHandler(gamificationService *services.GamificationService, streakService *services.StreakService) *GamificationHandler {
	return &GamificationHandler{
		gamificationService: gamificationService,
		streakService:       streakService,
	}
}

// GET /api/v1/gamification/points - Current ledger state
func (h *GamificationHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	up, err := h.gamificationService.GetUserPoints(ctx, clerkID)
	if err != nil {
		log.Printf("GetPoints: %v", err)
		respondWithJSON(w, http.StatusOK, &points.UserPoints{TotalPoints: 0, CurrentLevel: 1})
		return
	}

	respondWithJSON(w, http.StatusOK, up)
}

// GET /api/v1/gamification/points/history - Recent audit trail
func (h *GamificationHandler) GetPointsHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.gamificationService.GetPointsHistory(ctx, clerkID, limit)
	if err != nil {
		log.Printf("GetPointsHistory: %v", err)
		respondWithJSON(w, http.StatusOK, []*points.PointsTransaction{})
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}

// POST /api/v1/gamification/check-in - Daily check-in
//
// Records today's streak row and, when this is the first check-in of the
// day, awards check-in points.
func (h *GamificationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.streakService.RecordDailyStreak(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var award *points.AwardResult
	if result.Success {
		award, err = h.gamificationService.AwardPoints(ctx, clerkID, checkInRewardPoints, "Daily check-in", nil, nil)
		if err != nil {
			if errors.Is(err, services.ErrInvalidAmount) {
				respondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Printf("CheckIn: failed to award points: %v", err)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"streak": result,
		"award":  award,
	})
}

// GET /api/v1/gamification/streak - Current streak count
func (h *GamificationHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	count, err := h.streakService.GetCurrentStreak(ctx, clerkID)
	if err != nil {
		log.Printf("GetStreak: %v", err)
		respondWithJSON(w, http.StatusOK, map[string]int{"streak_count": 0})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"streak_count": count})
}

// GET /api/v1/gamification/streak/calendar?year=&month= - Monthly check-in map
func (h *GamificationHandler) GetStreakCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	now := time.Now().UTC()
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	cal, err := h.streakService.GetStreakCalendar(ctx, clerkID, year, month)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}
