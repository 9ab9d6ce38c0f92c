package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"nutriQuestAPI/internal/types/meal"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/services"
)

type MealHandler struct {
	mealService *services.MealService
}

func NewMealHandler(mealService *services.MealService) *MealHandler {
	return &MealHandler{mealService: mealService}
}

// GET /api/v1/meals?category=&search=&limit=
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("search")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	meals, err := h.mealService.ListMeals(ctx, category, search, limit)
	if err != nil {
		log.Printf("ListMeals: %v", err)
		respondWithJSON(w, http.StatusOK, []*meal.Meal{})
		return
	}

	respondWithJSON(w, http.StatusOK, meals)
}

// GET /api/v1/meals/{mealId}
func (h *MealHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mealID, err := uuid.Parse(mux.Vars(r)["mealId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid meal ID")
		return
	}

	m, err := h.mealService.GetMeal(ctx, mealID)
	if err != nil {
		if err.Error() == "meal not found" {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// POST /api/v1/meals/{mealId}/favorite
func (h *MealHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	mealID, err := uuid.Parse(mux.Vars(r)["mealId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid meal ID")
		return
	}

	if err := h.mealService.AddFavorite(ctx, clerkID, mealID); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Meal added to favorites"})
}

// DELETE /api/v1/meals/{mealId}/favorite
func (h *MealHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	mealID, err := uuid.Parse(mux.Vars(r)["mealId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid meal ID")
		return
	}

	if err := h.mealService.RemoveFavorite(ctx, clerkID, mealID); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Meal removed from favorites"})
}

// GET /api/v1/meals/favorites
func (h *MealHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	favorites, err := h.mealService.GetFavorites(ctx, clerkID)
	if err != nil {
		log.Printf("GetFavorites: %v", err)
		respondWithJSON(w, http.StatusOK, []*meal.FavoriteMeal{})
		return
	}

	respondWithJSON(w, http.StatusOK, favorites)
}
