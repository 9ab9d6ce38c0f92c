package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/streak"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// streakDay truncates to the UTC calendar day. The whole tracker keys on
// UTC dates so server restarts and client timezones cannot split a day.
func streakDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordDailyStreak inserts today's row, continuing yesterday's count or
// resetting to 1 after a gap. Idempotent per calendar day: a second call
// on the same day returns Success=false with the existing count.
func (s *StreakService) RecordDailyStreak(ctx context.Context, clerkID string) (*streak.RecordResult, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	today := streakDay(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	var existing int
	err = s.db.QueryRow(ctx, `
		SELECT streak_count FROM daily_streaks
		WHERE user_id = $1 AND date = $2
	`, userID, today).Scan(&existing)
	if err == nil {
		return &streak.RecordResult{Success: false, StreakCount: existing}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check today's streak: %w", err)
	}

	newCount := 1
	var prevCount int
	err = s.db.QueryRow(ctx, `
		SELECT streak_count FROM daily_streaks
		WHERE user_id = $1 AND date = $2
	`, userID, yesterday).Scan(&prevCount)
	if err == nil {
		newCount = prevCount + 1
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check yesterday's streak: %w", err)
	}

	// ON CONFLICT guards the race where two requests pass the existence
	// check for the same day; the loser reads back the winner's row.
	tag, err := s.db.Exec(ctx, `
		INSERT INTO daily_streaks (id, user_id, date, streak_count, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, date) DO NOTHING
	`, uuid.New(), userID, today, newCount)
	if err != nil {
		return nil, fmt.Errorf("failed to insert streak: %w", err)
	}

	if tag.RowsAffected() == 0 {
		err = s.db.QueryRow(ctx, `
			SELECT streak_count FROM daily_streaks
			WHERE user_id = $1 AND date = $2
		`, userID, today).Scan(&existing)
		if err != nil {
			return nil, fmt.Errorf("failed to read concurrent streak row: %w", err)
		}
		return &streak.RecordResult{Success: false, StreakCount: existing}, nil
	}

	return &streak.RecordResult{Success: true, StreakCount: newCount}, nil
}

// GetCurrentStreak returns the count of the most recent row, 0 when the
// user has never checked in.
func (s *StreakService) GetCurrentStreak(ctx context.Context, clerkID string) (int, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("user not found: %w", err)
	}

	var count int
	err = s.db.QueryRow(ctx, `
		SELECT streak_count FROM daily_streaks
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT 1
	`, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current streak: %w", err)
	}

	return count, nil
}

func (s *StreakService) GetStreakCalendar(ctx context.Context, clerkID string, year int, month int) (*streak.CalendarResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	query := `
	SELECT date FROM daily_streaks
	WHERE user_id = $1
		AND date >= $2
		AND date <= $3
	ORDER BY date
	`

	rows, err := s.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch streak calendar: %w", err)
	}
	defer rows.Close()

	dayMap := make(map[string]bool)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dayMap[date.Format("2006-01-02")] = true
	}

	var days []*streak.CalendarDay
	today := streakDay(time.Now()).Format("2006-01-02")

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		days = append(days, &streak.CalendarDay{
			Date:      d,
			CheckedIn: dayMap[dateStr],
			IsToday:   dateStr == today,
		})
	}

	return &streak.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}
