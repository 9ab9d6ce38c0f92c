package quest

import (
	"time"

	"github.com/google/uuid"
)

type QuestKind string

const (
	// KindStepped quests carry an ordered, non-empty step list.
	KindStepped QuestKind = "stepped"
	// KindSimple quests have a single implicit completion criterion.
	KindSimple QuestKind = "simple"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Step struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Quest is a shared read-only template. Per-user progress lives on
// UserQuest; templates are never mutated by assignment activity.
type Quest struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Kind         QuestKind  `json:"kind" db:"kind"`
	Steps        []Step     `json:"steps" db:"steps"`
	RewardPoints int        `json:"reward_points" db:"reward_points"`
	Difficulty   Difficulty `json:"difficulty" db:"difficulty"`
	DurationDays int        `json:"duration_days" db:"duration_days"`
	IsDaily      bool       `json:"is_daily" db:"is_daily"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// StepCount is the completion target. Simple quests count as one step.
func (q *Quest) StepCount() int {
	if q.Kind == KindSimple {
		return 1
	}
	return len(q.Steps)
}

type UserQuest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	QuestID     uuid.UUID  `json:"quest_id" db:"quest_id"`
	CurrentStep int        `json:"current_step" db:"current_step"`
	Completed   bool       `json:"completed" db:"completed"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

type Progress struct {
	Current    int     `json:"current"`
	Target     int     `json:"target"`
	Percentage float64 `json:"percentage"`
}

type UserQuestWithProgress struct {
	UserQuest
	Quest    *Quest   `json:"quest"`
	Progress Progress `json:"progress"`
}

type StepResult struct {
	Success   bool `json:"success"`
	Completed bool `json:"completed"`
}

// ProgressFor derives the UI progress annotation from an assignment and
// its template's step count.
func ProgressFor(currentStep, stepCount int) Progress {
	if stepCount <= 0 {
		stepCount = 1
	}
	return Progress{
		Current:    currentStep,
		Target:     stepCount,
		Percentage: float64(currentStep) / float64(stepCount) * 100,
	}
}
