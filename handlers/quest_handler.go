package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nutriQuestAPI/internal/types/points"
	"nutriQuestAPI/internal/types/quest"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/services"
)

type QuestHandler struct {
	questService        *services.QuestService
	gamificationService *services.GamificationService
}

func NewQuestHandler(questService *services.QuestService, gamificationService *services.GamificationService) *QuestHandler {
	return &QuestHandler{
		questService:        questService,
		gamificationService: gamificationService,
	}
}

// GET /api/v1/quests - Quest catalog
func (h *QuestHandler) ListQuests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	quests, err := h.questService.ListQuests(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, quests)
}

// GET /api/v1/quests/active - The caller's in-flight quests with progress
func (h *QuestHandler) GetActiveQuests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	active, err := h.questService.GetActiveQuests(ctx, clerkID)
	if err != nil {
		log.Printf("GetActiveQuests: %v", err)
		respondWithJSON(w, http.StatusOK, []*quest.UserQuestWithProgress{})
		return
	}

	respondWithJSON(w, http.StatusOK, active)
}

// POST /api/v1/quests/{questId}/start
func (h *QuestHandler) StartQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	questID, err := uuid.Parse(mux.Vars(r)["questId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quest ID")
		return
	}

	uq, err := h.questService.StartQuest(ctx, clerkID, questID)
	if err != nil {
		if err.Error() == "quest not found" {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, uq)
}

// POST /api/v1/quests/{questId}/steps - Complete the next step
//
// Body: {"step_index": n}. On full completion the quest's reward points
// are credited here; the quest engine itself never touches the ledger.
func (h *QuestHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	questID, err := uuid.Parse(mux.Vars(r)["questId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quest ID")
		return
	}

	var req struct {
		StepIndex int `json:"step_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.questService.CompleteQuestStep(ctx, clerkID, questID, req.StepIndex)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var award *points.AwardResult
	if result.Success && result.Completed {
		q, qErr := h.questService.GetQuest(ctx, questID)
		if qErr != nil {
			log.Printf("CompleteStep: failed to load quest for reward: %v", qErr)
		} else if q.RewardPoints > 0 {
			sourceType := "quest"
			award, qErr = h.gamificationService.AwardPoints(ctx, clerkID, q.RewardPoints, "Quest completed: "+q.Title, &questID, &sourceType)
			if qErr != nil {
				log.Printf("CompleteStep: failed to award quest reward: %v", qErr)
			}
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"award":  award,
	})
}

// POST /api/v1/quests/daily - Assign today's daily quests if none are active
func (h *QuestHandler) GenerateDailyQuests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	assigned, err := h.questService.GenerateDailyQuests(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"assigned": assigned})
}
