package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"

	"nutriQuestAPI/internal/types/meal"
	"nutriQuestAPI/internal/types/mealplan"
)

type MealPlanService struct {
	db *pgxpool.Pool
}

func NewMealPlanService(db *pgxpool.Pool) *MealPlanService {
	return &MealPlanService{db: db}
}

func generateShareLink(token string) string {
	return fmt.Sprintf("nutriquest://meal_plan?shareToken=%s", token)
}

// UpsertEntry plans a meal into a (date, slot) cell, replacing whatever
// was planned there before.
func (s *MealPlanService) UpsertEntry(ctx context.Context, clerkID string, date time.Time, slot mealplan.Slot, mealID uuid.UUID) (*mealplan.PlanEntry, error) {
	if !mealplan.ValidSlot(slot) {
		return nil, fmt.Errorf("invalid meal slot: %s", slot)
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	INSERT INTO meal_plan_entries (id, user_id, date, slot, meal_id, eaten, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
	ON CONFLICT (user_id, date, slot)
	DO UPDATE SET meal_id = $5, eaten = false, eaten_at = NULL, updated_at = NOW()
	RETURNING id, user_id, date, slot, meal_id, eaten, eaten_at, created_at, updated_at
	`

	entry := &mealplan.PlanEntry{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, date, slot, mealID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Date,
		&entry.Slot,
		&entry.MealID,
		&entry.Eaten,
		&entry.EatenAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to plan meal: %w", err)
	}

	return entry, nil
}

func (s *MealPlanService) RemoveEntry(ctx context.Context, clerkID string, date time.Time, slot mealplan.Slot) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM meal_plan_entries
		WHERE user_id = $1 AND date = $2 AND slot = $3
	`, userID, date, slot)
	if err != nil {
		return fmt.Errorf("failed to remove plan entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no plan entry found for the specified date and slot")
	}
	return nil
}

// MarkEaten flags a planned meal as eaten. The handler treats this as the
// qualifying daily check-in: it records the streak and awards meal points
// on top of this call.
func (s *MealPlanService) MarkEaten(ctx context.Context, clerkID string, date time.Time, slot mealplan.Slot) (*mealplan.PlanEntry, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	UPDATE meal_plan_entries
	SET eaten = true, eaten_at = NOW(), updated_at = NOW()
	WHERE user_id = $1 AND date = $2 AND slot = $3
	RETURNING id, user_id, date, slot, meal_id, eaten, eaten_at, created_at, updated_at
	`

	entry := &mealplan.PlanEntry{}
	err = s.db.QueryRow(ctx, query, userID, date, slot).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Date,
		&entry.Slot,
		&entry.MealID,
		&entry.Eaten,
		&entry.EatenAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no plan entry found for the specified date and slot")
		}
		return nil, fmt.Errorf("failed to mark meal eaten: %w", err)
	}

	return entry, nil
}

// GetDayPlan lists the entries for one day with their meals attached.
func (s *MealPlanService) GetDayPlan(ctx context.Context, clerkID string, date time.Time) (*mealplan.DayPlan, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	entries, err := s.entriesBetween(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}

	return &mealplan.DayPlan{Date: date, Entries: entries}, nil
}

// GetWeekPlan lists entries for the seven days starting at weekStart.
func (s *MealPlanService) GetWeekPlan(ctx context.Context, clerkID string, weekStart time.Time) ([]*mealplan.PlanEntryWithMeal, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.entriesBetween(ctx, userID, weekStart, weekStart.AddDate(0, 0, 6))
}

func (s *MealPlanService) entriesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*mealplan.PlanEntryWithMeal, error) {
	query := `
	SELECT
		p.id, p.user_id, p.date, p.slot, p.meal_id, p.eaten, p.eaten_at, p.created_at, p.updated_at,
		m.id, m.name, m.description, m.category, m.calories, m.protein_g, m.carbs_g, m.fat_g,
		m.image_url, m.tags, m.is_active, m.created_at
	FROM meal_plan_entries p
	JOIN meals m ON m.id = p.meal_id
	WHERE p.user_id = $1 AND p.date >= $2 AND p.date <= $3
	ORDER BY p.date, p.slot
	`

	rows, err := s.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan entries: %w", err)
	}
	defer rows.Close()

	var entries []*mealplan.PlanEntryWithMeal
	for rows.Next() {
		e := &mealplan.PlanEntryWithMeal{}
		m := &meal.Meal{}
		err := rows.Scan(
			&e.ID, &e.UserID, &e.Date, &e.Slot, &e.MealID, &e.Eaten, &e.EatenAt, &e.CreatedAt, &e.UpdatedAt,
			&m.ID, &m.Name, &m.Description, &m.Category, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG,
			&m.ImageURL, &m.Tags, &m.IsActive, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		e.Meal = m
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan entries: %w", err)
	}

	if entries == nil {
		entries = []*mealplan.PlanEntryWithMeal{}
	}

	return entries, nil
}

// CreateShareSession mints a QR deep link other users can scan to import
// this week's plan. Tokens expire after 72 hours.
func (s *MealPlanService) CreateShareSession(ctx context.Context, clerkID string) (*mealplan.ShareSession, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found with clerk_id: %s", clerkID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	shareToken := uuid.New().String()
	// UTC keeps DB and server expiry comparisons consistent.
	expiresAt := time.Now().UTC().Add(72 * time.Hour)

	var sessionID uuid.UUID
	err = s.db.QueryRow(ctx, `
		INSERT INTO meal_plan_shares (id, owner_id, share_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, uuid.New(), userID, shareToken, expiresAt).Scan(&sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create share session: %w", err)
	}

	shareLink := generateShareLink(shareToken)
	png, err := qrcode.Encode(shareLink, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	return &mealplan.ShareSession{
		SessionID:    sessionID,
		ShareToken:   shareToken,
		ShareLink:    shareLink,
		QrCodeBase64: base64.StdEncoding.EncodeToString(png),
		ExpiresAt:    expiresAt,
	}, nil
}

// ImportSharedPlan copies the owner's current week into the scanning
// user's plan, skipping cells the importer already filled.
func (s *MealPlanService) ImportSharedPlan(ctx context.Context, clerkID string, shareToken string) (int, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("user not found: %w", err)
	}

	var ownerID uuid.UUID
	err = s.db.QueryRow(ctx, `
		SELECT owner_id FROM meal_plan_shares
		WHERE share_token = $1 AND expires_at > NOW()
	`, shareToken).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("share link is invalid or expired")
		}
		return 0, fmt.Errorf("failed to resolve share token: %w", err)
	}

	if ownerID == userID {
		return 0, fmt.Errorf("cannot import your own plan")
	}

	result, err := s.db.Exec(ctx, `
		INSERT INTO meal_plan_entries (id, user_id, date, slot, meal_id, eaten, created_at, updated_at)
		SELECT gen_random_uuid(), $1, date, slot, meal_id, false, NOW(), NOW()
		FROM meal_plan_entries
		WHERE user_id = $2
			AND date >= DATE_TRUNC('week', CURRENT_DATE)
			AND date < DATE_TRUNC('week', CURRENT_DATE) + INTERVAL '7 days'
		ON CONFLICT (user_id, date, slot) DO NOTHING
	`, userID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to import shared plan: %w", err)
	}

	return int(result.RowsAffected()), nil
}
