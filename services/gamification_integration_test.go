package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"nutriQuestAPI/internal/types/user"
	"nutriQuestAPI/utils"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func createTestUser(t *testing.T, db *pgxpool.Pool) string {
	t.Helper()

	clerkID := "test_" + uuid.New().String()
	svc := NewUserService(db)
	_, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    fmt.Sprintf("%s@example.com", clerkID),
		Username: clerkID,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	t.Cleanup(func() {
		svc.DeleteUserByClerkID(context.Background(), clerkID)
	})
	return clerkID
}

func TestAwardPointsFlow(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewGamificationService(db)
	ctx := context.Background()

	result, err := svc.AwardPoints(ctx, clerkID, 50, "test award", nil, nil)
	if err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if !result.Success {
		t.Error("expected Success on first award")
	}
	if result.TotalPoints != 50 {
		t.Errorf("TotalPoints = %d, want 50", result.TotalPoints)
	}

	// Crossing the first threshold bumps the level within the same call.
	result, err = svc.AwardPoints(ctx, clerkID, 60, "test award", nil, nil)
	if err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if result.TotalPoints != 110 {
		t.Errorf("TotalPoints = %d, want 110", result.TotalPoints)
	}
	if !result.LevelUp {
		t.Error("expected LevelUp crossing the first threshold")
	}
	if want := utils.LevelFromPoints(110); result.NewLevel != want {
		t.Errorf("NewLevel = %d, want %d", result.NewLevel, want)
	}

	up, err := svc.GetUserPoints(ctx, clerkID)
	if err != nil {
		t.Fatalf("GetUserPoints: %v", err)
	}
	if up.TotalPoints != 110 || up.CurrentLevel != result.NewLevel {
		t.Errorf("stored state {%d, %d} does not match award result {110, %d}",
			up.TotalPoints, up.CurrentLevel, result.NewLevel)
	}

	history, err := svc.GetPointsHistory(ctx, clerkID, 10)
	if err != nil {
		t.Fatalf("GetPointsHistory: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history length = %d, want 2", len(history))
	}
}

func TestAwardPointsRejectsNonPositive(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewGamificationService(db)

	for _, amount := range []int{0, -5} {
		if _, err := svc.AwardPoints(context.Background(), clerkID, amount, "bad", nil, nil); err == nil {
			t.Errorf("AwardPoints(%d) succeeded, want error", amount)
		}
	}
}

func TestDailyStreakSameDayIdempotent(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewStreakService(db)
	ctx := context.Background()

	first, err := svc.RecordDailyStreak(ctx, clerkID)
	if err != nil {
		t.Fatalf("RecordDailyStreak: %v", err)
	}
	if !first.Success || first.StreakCount != 1 {
		t.Errorf("first check-in = {%v, %d}, want {true, 1}", first.Success, first.StreakCount)
	}

	second, err := svc.RecordDailyStreak(ctx, clerkID)
	if err != nil {
		t.Fatalf("RecordDailyStreak: %v", err)
	}
	if second.Success {
		t.Error("second same-day check-in reported Success")
	}
	if second.StreakCount != 1 {
		t.Errorf("second check-in StreakCount = %d, want 1", second.StreakCount)
	}

	count, err := svc.GetCurrentStreak(ctx, clerkID)
	if err != nil {
		t.Fatalf("GetCurrentStreak: %v", err)
	}
	if count != 1 {
		t.Errorf("GetCurrentStreak = %d, want 1", count)
	}
}

func seedStreakRow(t *testing.T, db *pgxpool.Pool, clerkID string, daysAgo, count int) {
	t.Helper()

	var userID uuid.UUID
	if err := db.QueryRow(context.Background(), `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID); err != nil {
		t.Fatalf("failed to resolve test user: %v", err)
	}

	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	_, err := db.Exec(context.Background(), `
		INSERT INTO daily_streaks (id, user_id, date, streak_count, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), userID, day, count)
	if err != nil {
		t.Fatalf("failed to seed streak row: %v", err)
	}
}

func TestDailyStreakContinuesFromYesterday(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewStreakService(db)

	seedStreakRow(t, db, clerkID, 1, 4)

	result, err := svc.RecordDailyStreak(context.Background(), clerkID)
	if err != nil {
		t.Fatalf("RecordDailyStreak: %v", err)
	}
	if !result.Success {
		t.Error("check-in after yesterday's row reported Success=false")
	}
	if result.StreakCount != 5 {
		t.Errorf("StreakCount = %d, want 5", result.StreakCount)
	}
}

func TestDailyStreakResetsAfterGap(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewStreakService(db)

	// Last check-in two days ago: the chain is broken.
	seedStreakRow(t, db, clerkID, 2, 7)

	result, err := svc.RecordDailyStreak(context.Background(), clerkID)
	if err != nil {
		t.Fatalf("RecordDailyStreak: %v", err)
	}
	if !result.Success {
		t.Error("check-in after a gap reported Success=false")
	}
	if result.StreakCount != 1 {
		t.Errorf("StreakCount = %d, want 1", result.StreakCount)
	}
}

func TestStreakCalendarMarksToday(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	svc := NewStreakService(db)
	ctx := context.Background()

	if _, err := svc.RecordDailyStreak(ctx, clerkID); err != nil {
		t.Fatalf("RecordDailyStreak: %v", err)
	}

	now := time.Now().UTC()
	cal, err := svc.GetStreakCalendar(ctx, clerkID, now.Year(), int(now.Month()))
	if err != nil {
		t.Fatalf("GetStreakCalendar: %v", err)
	}

	found := false
	for _, d := range cal.Days {
		if d.Date.UTC().Day() == now.Day() && d.CheckedIn {
			found = true
		}
	}
	if !found {
		t.Error("today's check-in missing from calendar")
	}
}
