package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/quest"
)

func createTestQuest(t *testing.T, db *pgxpool.Pool, steps int) uuid.UUID {
	t.Helper()

	questID := uuid.New()
	kind := quest.KindStepped
	var stepList []quest.Step
	for i := 0; i < steps; i++ {
		stepList = append(stepList, quest.Step{Index: i, Title: "step"})
	}
	if steps == 0 {
		kind = quest.KindSimple
	}
	stepsJSON, _ := json.Marshal(stepList)

	_, err := db.Exec(context.Background(), `
		INSERT INTO quests (id, title, description, kind, steps, reward_points, difficulty, duration_days, is_daily, created_at)
		VALUES ($1, 'Test quest', 'integration fixture', $2, $3, 25, 'easy', 1, false, NOW())
	`, questID, kind, stepsJSON)
	if err != nil {
		t.Fatalf("failed to insert test quest: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM user_quests WHERE quest_id = $1`, questID)
		db.Exec(context.Background(), `DELETE FROM quests WHERE id = $1`, questID)
	})
	return questID
}

func TestStartQuestIdempotent(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	questID := createTestQuest(t, db, 3)
	svc := NewQuestService(db)
	ctx := context.Background()

	first, err := svc.StartQuest(ctx, clerkID, questID)
	if err != nil {
		t.Fatalf("StartQuest: %v", err)
	}
	second, err := svc.StartQuest(ctx, clerkID, questID)
	if err != nil {
		t.Fatalf("second StartQuest: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("second start returned a different assignment: %s vs %s", first.ID, second.ID)
	}
	if second.CurrentStep != 0 || second.Completed {
		t.Errorf("second start disturbed progress: step %d, completed %v", second.CurrentStep, second.Completed)
	}
}

func TestCompleteQuestStepOrdering(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	questID := createTestQuest(t, db, 2)
	svc := NewQuestService(db)
	ctx := context.Background()

	if _, err := svc.StartQuest(ctx, clerkID, questID); err != nil {
		t.Fatalf("StartQuest: %v", err)
	}

	// Out-of-order step is rejected without advancing.
	res, err := svc.CompleteQuestStep(ctx, clerkID, questID, 1)
	if err != nil {
		t.Fatalf("CompleteQuestStep: %v", err)
	}
	if res.Success {
		t.Error("out-of-order step completion succeeded")
	}

	res, err = svc.CompleteQuestStep(ctx, clerkID, questID, 0)
	if err != nil {
		t.Fatalf("CompleteQuestStep: %v", err)
	}
	if !res.Success || res.Completed {
		t.Errorf("first step result = {%v, %v}, want {true, false}", res.Success, res.Completed)
	}

	// Replaying a done step is a no-op.
	res, err = svc.CompleteQuestStep(ctx, clerkID, questID, 0)
	if err != nil {
		t.Fatalf("CompleteQuestStep: %v", err)
	}
	if res.Success {
		t.Error("replayed step completion succeeded")
	}

	res, err = svc.CompleteQuestStep(ctx, clerkID, questID, 1)
	if err != nil {
		t.Fatalf("CompleteQuestStep: %v", err)
	}
	if !res.Success || !res.Completed {
		t.Errorf("final step result = {%v, %v}, want {true, true}", res.Success, res.Completed)
	}

	// Completed assignments stay completed.
	res, err = svc.CompleteQuestStep(ctx, clerkID, questID, 1)
	if err != nil {
		t.Fatalf("CompleteQuestStep: %v", err)
	}
	if res.Success {
		t.Error("step completion on a finished quest succeeded")
	}
	if !res.Completed {
		t.Error("finished quest no longer reports Completed")
	}
}
