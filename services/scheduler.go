package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scheduler owns the background jobs: the notification category rotation,
// the once-a-day digest, and daily quest assignment.
type Scheduler struct {
	db           *pgxpool.Pool
	notifService *NotificationService
	questService *QuestService
	sched        gocron.Scheduler
}

func NewScheduler(db *pgxpool.Pool, notifService *NotificationService, questService *QuestService) *Scheduler {
	return &Scheduler{
		db:           db,
		notifService: notifService,
		questService: questService,
	}
}

func (s *Scheduler) Start() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] Failed to create scheduler: %v", err)
		return
	}
	s.sched = sched
	sched.Start()

	// Every 4 hours: send the current rotation category to every user and
	// advance the cursor. Six invocations walk the full category cycle.
	_, err = sched.NewJob(
		gocron.DurationJob(4*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := s.notifService.RunRotation(ctx); err != nil {
				log.Printf("[Scheduler] Rotation job failed: %v", err)
			}
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to schedule rotation job: %v", err)
	}

	// Every 24 hours: full six-category digest. The job-log gate inside
	// RunDailyDigest keeps a second same-day invocation a no-op.
	_, err = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := s.notifService.RunDailyDigest(ctx); err != nil {
				log.Printf("[Scheduler] Daily digest job failed: %v", err)
			}
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to schedule digest job: %v", err)
	}

	// Every 6 hours: hand 3 fresh daily quests to users whose active set
	// is empty. GenerateDailyQuests itself refuses to stack on top of an
	// existing active set, so frequent runs are safe.
	_, err = sched.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(s.assignDailyQuests),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to schedule daily quest job: %v", err)
	}

	log.Println("[Scheduler] Background jobs started")
}

func (s *Scheduler) assignDailyQuests() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT u.clerk_id
		FROM users u
		WHERE NOT EXISTS (
			SELECT 1 FROM user_quests uq
			WHERE uq.user_id = u.id AND uq.completed = false
		)
	`)
	if err != nil {
		log.Printf("[Scheduler] Failed to list users without active quests: %v", err)
		return
	}
	defer rows.Close()

	assigned := 0
	var clerkIDs []string
	for rows.Next() {
		var clerkID string
		if err := rows.Scan(&clerkID); err != nil {
			log.Printf("[Scheduler] Failed to scan user: %v", err)
			continue
		}
		clerkIDs = append(clerkIDs, clerkID)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[Scheduler] Error iterating users: %v", err)
		return
	}
	rows.Close()

	for _, clerkID := range clerkIDs {
		ok, err := s.questService.GenerateDailyQuests(ctx, clerkID)
		if err != nil {
			log.Printf("[Scheduler] Failed to generate daily quests for %s: %v", clerkID, err)
			continue
		}
		if ok {
			assigned++
		}
	}

	if assigned > 0 {
		log.Printf("[Scheduler] Assigned daily quests to %d users", assigned)
	}
}

func (s *Scheduler) Stop() {
	if s.sched != nil {
		if err := s.sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] Shutdown error: %v", err)
		}
	}
}
