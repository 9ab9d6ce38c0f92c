package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/quest"
)

type QuestService struct {
	db *pgxpool.Pool
}

func NewQuestService(db *pgxpool.Pool) *QuestService {
	return &QuestService{db: db}
}

const questColumns = `id, title, description, kind, steps, reward_points, difficulty, duration_days, is_daily, created_at`

func scanQuest(row pgx.Row) (*quest.Quest, error) {
	q := &quest.Quest{}
	var stepsJSON []byte
	err := row.Scan(
		&q.ID,
		&q.Title,
		&q.Description,
		&q.Kind,
		&stepsJSON,
		&q.RewardPoints,
		&q.Difficulty,
		&q.DurationDays,
		&q.IsDaily,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &q.Steps); err != nil {
			return nil, fmt.Errorf("failed to decode quest steps: %w", err)
		}
	}
	return q, nil
}

func (s *QuestService) GetQuest(ctx context.Context, questID uuid.UUID) (*quest.Quest, error) {
	q, err := scanQuest(s.db.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, questID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quest not found")
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return q, nil
}

func (s *QuestService) ListQuests(ctx context.Context) ([]*quest.Quest, error) {
	rows, err := s.db.Query(ctx, `SELECT `+questColumns+` FROM quests ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quests: %w", err)
	}
	defer rows.Close()

	var quests []*quest.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest: %w", err)
		}
		quests = append(quests, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quests: %w", err)
	}

	if quests == nil {
		quests = []*quest.Quest{}
	}

	return quests, nil
}

// StartQuest assigns a quest to the user. Idempotent: a second start for
// the same (user, quest) pair returns the existing assignment.
func (s *QuestService) StartQuest(ctx context.Context, clerkID string, questID uuid.UUID) (*quest.UserQuest, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Verify the template exists before creating an assignment.
	if _, err := s.GetQuest(ctx, questID); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_quests (id, user_id, quest_id, current_step, completed, started_at)
		VALUES ($1, $2, $3, 0, false, NOW())
		ON CONFLICT (user_id, quest_id) DO NOTHING
	`, uuid.New(), userID, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to start quest: %w", err)
	}

	uq := &quest.UserQuest{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, quest_id, current_step, completed, started_at, completed_at
		FROM user_quests
		WHERE user_id = $1 AND quest_id = $2
	`, userID, questID).Scan(
		&uq.ID,
		&uq.UserID,
		&uq.QuestID,
		&uq.CurrentStep,
		&uq.Completed,
		&uq.StartedAt,
		&uq.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest assignment: %w", err)
	}

	return uq, nil
}

// CompleteQuestStep marks the step at stepIndex done and advances
// current_step. Steps complete strictly in order; an out-of-order or
// out-of-range index is rejected with Success=false rather than an error.
// Completing the last step flips the assignment to completed and stamps
// completed_at exactly once. Points are NOT awarded here: the caller owns
// the ledger interaction.
func (s *QuestService) CompleteQuestStep(ctx context.Context, clerkID string, questID uuid.UUID, stepIndex int) (*quest.StepResult, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	q, err := s.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	stepCount := q.StepCount()

	if stepIndex < 0 || stepIndex >= stepCount {
		return &quest.StepResult{Success: false, Completed: false}, nil
	}

	var currentStep int
	var completed bool
	err = s.db.QueryRow(ctx, `
		SELECT current_step, completed FROM user_quests
		WHERE user_id = $1 AND quest_id = $2
	`, userID, questID).Scan(&currentStep, &completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &quest.StepResult{Success: false, Completed: false}, nil
		}
		return nil, fmt.Errorf("failed to load quest assignment: %w", err)
	}

	if completed || stepIndex != currentStep {
		return &quest.StepResult{Success: false, Completed: completed}, nil
	}

	isLast := stepIndex == stepCount-1

	// The WHERE guard makes current_step strictly forward even when two
	// completions race; the loser matches zero rows.
	tag, err := s.db.Exec(ctx, `
		UPDATE user_quests
		SET current_step = $3,
			completed = $4,
			completed_at = CASE WHEN $4 THEN NOW() ELSE completed_at END
		WHERE user_id = $1 AND quest_id = $2
			AND current_step = $5 AND completed = false
	`, userID, questID, stepIndex+1, isLast, currentStep)
	if err != nil {
		return nil, fmt.Errorf("failed to complete quest step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &quest.StepResult{Success: false, Completed: false}, nil
	}

	if isLast {
		log.Printf("CompleteQuestStep: user %s completed quest %s", userID, questID)
	}

	return &quest.StepResult{Success: true, Completed: isLast}, nil
}

// GenerateDailyQuests assigns 3 random daily quests, but only when the
// user has no active assignments. It is not additive on top of an
// existing active set.
func (s *QuestService) GenerateDailyQuests(ctx context.Context, clerkID string) (bool, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return false, fmt.Errorf("user not found: %w", err)
	}

	var activeCount int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_quests
		WHERE user_id = $1 AND completed = false
	`, userID).Scan(&activeCount)
	if err != nil {
		return false, fmt.Errorf("failed to count active quests: %w", err)
	}
	if activeCount > 0 {
		return false, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id FROM quests
		WHERE is_daily = true
		ORDER BY RANDOM()
		LIMIT 3
	`)
	if err != nil {
		return false, fmt.Errorf("failed to pick daily quests: %w", err)
	}
	defer rows.Close()

	var questIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return false, fmt.Errorf("failed to scan quest id: %w", err)
		}
		questIDs = append(questIDs, id)
	}
	if err = rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating daily quests: %w", err)
	}

	for _, id := range questIDs {
		if _, err := s.StartQuest(ctx, clerkID, id); err != nil {
			log.Printf("GenerateDailyQuests: failed to start quest %s for user %s: %v", id, userID, err)
		}
	}

	return len(questIDs) > 0, nil
}

// GetActiveQuests lists incomplete assignments annotated with derived
// progress.
func (s *QuestService) GetActiveQuests(ctx context.Context, clerkID string) ([]*quest.UserQuestWithProgress, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		uq.id, uq.user_id, uq.quest_id, uq.current_step, uq.completed, uq.started_at, uq.completed_at,
		q.id, q.title, q.description, q.kind, q.steps, q.reward_points, q.difficulty, q.duration_days, q.is_daily, q.created_at
	FROM user_quests uq
	JOIN quests q ON q.id = uq.quest_id
	WHERE uq.user_id = $1 AND uq.completed = false
	ORDER BY uq.started_at
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active quests: %w", err)
	}
	defer rows.Close()

	var active []*quest.UserQuestWithProgress
	for rows.Next() {
		item := &quest.UserQuestWithProgress{Quest: &quest.Quest{}}
		var stepsJSON []byte
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.QuestID,
			&item.CurrentStep,
			&item.Completed,
			&item.StartedAt,
			&item.CompletedAt,
			&item.Quest.ID,
			&item.Quest.Title,
			&item.Quest.Description,
			&item.Quest.Kind,
			&stepsJSON,
			&item.Quest.RewardPoints,
			&item.Quest.Difficulty,
			&item.Quest.DurationDays,
			&item.Quest.IsDaily,
			&item.Quest.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active quest: %w", err)
		}
		if len(stepsJSON) > 0 {
			if err := json.Unmarshal(stepsJSON, &item.Quest.Steps); err != nil {
				return nil, fmt.Errorf("failed to decode quest steps: %w", err)
			}
		}
		item.Progress = quest.ProgressFor(item.CurrentStep, item.Quest.StepCount())
		active = append(active, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active quests: %w", err)
	}

	if active == nil {
		active = []*quest.UserQuestWithProgress{}
	}

	return active, nil
}
