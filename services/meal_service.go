package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/meal"
)

type MealService struct {
	db *pgxpool.Pool
}

func NewMealService(db *pgxpool.Pool) *MealService {
	return &MealService{db: db}
}

const mealColumns = `id, name, description, category, calories, protein_g, carbs_g, fat_g, image_url, tags, is_active, created_at`

func scanMeal(row pgx.Row) (*meal.Meal, error) {
	m := &meal.Meal{}
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Category,
		&m.Calories,
		&m.ProteinG,
		&m.CarbsG,
		&m.FatG,
		&m.ImageURL,
		&m.Tags,
		&m.IsActive,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMeals returns active catalog meals, optionally filtered by category
// and a case-insensitive name search.
func (s *MealService) ListMeals(ctx context.Context, category, search string, limit int) ([]*meal.Meal, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT ` + mealColumns + `
	FROM meals
	WHERE is_active = true
		AND ($1 = '' OR category = $1)
		AND ($2 = '' OR name ILIKE $3)
	ORDER BY name
	LIMIT $4
	`

	searchPattern := "%" + strings.TrimSpace(search) + "%"
	rows, err := s.db.Query(ctx, query, category, strings.TrimSpace(search), searchPattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meals: %w", err)
	}
	defer rows.Close()

	var meals []*meal.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	if meals == nil {
		meals = []*meal.Meal{}
	}

	return meals, nil
}

func (s *MealService) GetMeal(ctx context.Context, mealID uuid.UUID) (*meal.Meal, error) {
	m, err := scanMeal(s.db.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, mealID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("meal not found")
		}
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return m, nil
}

// AddFavorite is idempotent; favoriting an already-favorited meal is a
// no-op.
func (s *MealService) AddFavorite(ctx context.Context, clerkID string, mealID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if _, err := s.GetMeal(ctx, mealID); err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO favorites (id, user_id, meal_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, meal_id) DO NOTHING
	`, uuid.New(), userID, mealID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *MealService) RemoveFavorite(ctx context.Context, clerkID string, mealID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND meal_id = $2
	`, userID, mealID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("favorite not found")
	}
	return nil
}

func (s *MealService) GetFavorites(ctx context.Context, clerkID string) ([]*meal.FavoriteMeal, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT m.id, m.name, m.description, m.category, m.calories, m.protein_g, m.carbs_g, m.fat_g,
		m.image_url, m.tags, m.is_active, m.created_at, f.created_at AS favorited_at
	FROM favorites f
	JOIN meals m ON m.id = f.meal_id
	WHERE f.user_id = $1
	ORDER BY f.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*meal.FavoriteMeal
	for rows.Next() {
		fm := &meal.FavoriteMeal{}
		err := rows.Scan(
			&fm.ID,
			&fm.Name,
			&fm.Description,
			&fm.Category,
			&fm.Calories,
			&fm.ProteinG,
			&fm.CarbsG,
			&fm.FatG,
			&fm.ImageURL,
			&fm.Tags,
			&fm.IsActive,
			&fm.CreatedAt,
			&fm.FavoritedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, fm)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	if favorites == nil {
		favorites = []*meal.FavoriteMeal{}
	}

	return favorites, nil
}
