package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/points"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/utils"
)

type GamificationService struct {
	db *pgxpool.Pool
}

func NewGamificationService(db *pgxpool.Pool) *GamificationService {
	return &GamificationService{db: db}
}

var ErrInvalidAmount = errors.New("point amount must be a positive integer")

// AwardPoints adds amount to the user's lifetime total and recomputes the
// derived level inside one transaction. The increment happens server-side
// so concurrent awards to the same user cannot lose updates. An audit row
// is appended in the same transaction.
func (s *GamificationService) AwardPoints(ctx context.Context, clerkID string, amount int, reason string, sourceID *uuid.UUID, sourceType *string) (*points.AwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Atomic increment; a missing ledger row is created lazily with the
	// award as its first total.
	var oldLevel, newTotal int
	err = tx.QueryRow(ctx, `
		INSERT INTO user_points (user_id, total_points, current_level, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = user_points.total_points + $2,
			updated_at = NOW()
		RETURNING current_level, total_points
	`, userID, amount).Scan(&oldLevel, &newTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to update points: %w", err)
	}

	newLevel := utils.LevelFromPoints(newTotal)
	if newLevel != oldLevel {
		_, err = tx.Exec(ctx, `
			UPDATE user_points SET current_level = $2, updated_at = NOW()
			WHERE user_id = $1
		`, userID, newLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO points_transactions (id, user_id, points, reason, source_id, source_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, uuid.New(), userID, amount, reason, sourceID, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to record points transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit points award: %w", err)
	}

	middleware.RecordPointsAwarded(reason, amount)

	if newLevel > oldLevel {
		log.Printf("AwardPoints: user %s leveled up to %d (%d points)", userID, newLevel, newTotal)
	}

	return &points.AwardResult{
		Success:     true,
		LevelUp:     newLevel > oldLevel,
		NewLevel:    newLevel,
		TotalPoints: newTotal,
	}, nil
}

// GetUserPoints returns the ledger row, or zero values when the user has
// never been awarded points.
func (s *GamificationService) GetUserPoints(ctx context.Context, clerkID string) (*points.UserPoints, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT id, user_id, total_points, current_level, created_at, updated_at
	FROM user_points
	WHERE user_id = $1
	`

	up := &points.UserPoints{}
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&up.ID,
		&up.UserID,
		&up.TotalPoints,
		&up.CurrentLevel,
		&up.CreatedAt,
		&up.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lazy ledger: no award yet means zero points at level 1.
			return &points.UserPoints{UserID: userID, TotalPoints: 0, CurrentLevel: 1}, nil
		}
		return nil, fmt.Errorf("failed to get user points: %w", err)
	}

	return up, nil
}

func (s *GamificationService) GetPointsHistory(ctx context.Context, clerkID string, limit int) ([]*points.PointsTransaction, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT id, user_id, points, reason, source_id, source_type, created_at
	FROM points_transactions
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points history: %w", err)
	}
	defer rows.Close()

	var history []*points.PointsTransaction
	for rows.Next() {
		tx := &points.PointsTransaction{}
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Points,
			&tx.Reason,
			&tx.SourceID,
			&tx.SourceType,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan points transaction: %w", err)
		}
		history = append(history, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points history: %w", err)
	}

	if history == nil {
		history = []*points.PointsTransaction{}
	}

	return history, nil
}
