package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutriQuestAPI/internal/types/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the real FCM provider from main.go.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// CreateNotification persists a notification and queues it for push
// delivery.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	dataJSON, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
	INSERT INTO notifications (id, user_id, category, title, body, data, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, user_id, category, title, body, read_at, created_at
	`

	notif := &notification.Notification{Data: req.Data}
	err = s.db.QueryRow(ctx, query,
		uuid.New(), req.UserID, req.Category, req.Title, req.Body, dataJSON,
	).Scan(
		&notif.ID,
		&notif.UserID,
		&notif.Category,
		&notif.Title,
		&notif.Body,
		&notif.ReadAt,
		&notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	prefs, err := s.GetPreferencesByUserID(ctx, req.UserID)
	if err != nil {
		log.Printf("CreateNotification: failed to load preferences for %s: %v", req.UserID, err)
		return notif, nil
	}
	s.dispatcher.DispatchNotification(ctx, notif, prefs)

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.ListResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT id, user_id, category, title, body, data, read_at, created_at
	FROM notifications
	WHERE user_id = $1
		AND ($2 = false OR read_at IS NULL)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`

	rows, err := s.db.Query(ctx, query, userID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Title, &n.Body, &dataJSON, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				log.Printf("GetNotifications: failed to decode data for %s: %v", n.ID, err)
			}
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	if notifications == nil {
		notifications = []*notification.Notification{}
	}

	unread, err := s.unreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &notification.ListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) unreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("user not found: %w", err)
	}
	return s.unreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE id = $1
			AND read_at IS NULL
			AND user_id = (SELECT id FROM users WHERE clerk_id = $2)
	`, notificationID, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE read_at IS NULL
			AND user_id = (SELECT id FROM users WHERE clerk_id = $1)
	`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1
			AND user_id = (SELECT id FROM users WHERE clerk_id = $2)
	`, notificationID, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, token, platform string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token) DO UPDATE SET platform = $3
	`, userID, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) GetPreferencesByUserID(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{UserID: userID, PushEnabled: true}

	err := s.db.QueryRow(ctx, `
		SELECT push_enabled FROM notification_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.PushEnabled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT token, platform FROM device_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		prefs.DeviceTokens = append(prefs.DeviceTokens, t)
	}

	return prefs, rows.Err()
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, clerkID string, pushEnabled bool) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, push_enabled, updated_at)
		SELECT id, $2, NOW() FROM users WHERE clerk_id = $1
		ON CONFLICT (user_id) DO UPDATE SET push_enabled = $2, updated_at = NOW()
	`, clerkID, pushEnabled)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

// renderTemplate replaces {key} placeholders with values from data.
func renderTemplate(tmpl string, data map[string]any) string {
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return out
}

// GetRotationState reads the singleton cursor row, seeding it at the
// start of the cycle when missing.
func (s *NotificationService) GetRotationState(ctx context.Context) (*notification.RotationState, error) {
	state := &notification.RotationState{}
	err := s.db.QueryRow(ctx, `
		SELECT id, current_type, updated_at FROM notification_rotation_state WHERE id = 1
	`).Scan(&state.ID, &state.CurrentType, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = s.db.QueryRow(ctx, `
				INSERT INTO notification_rotation_state (id, current_type, updated_at)
				VALUES (1, $1, NOW())
				ON CONFLICT (id) DO UPDATE SET current_type = notification_rotation_state.current_type
				RETURNING id, current_type, updated_at
			`, notification.RotationOrder[0]).Scan(&state.ID, &state.CurrentType, &state.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to seed rotation state: %w", err)
			}
			return state, nil
		}
		return nil, fmt.Errorf("failed to get rotation state: %w", err)
	}
	return state, nil
}

// advanceRotation moves the cursor from expected to its successor.
// Compare-and-swap on the expected previous value: a concurrent worker
// that already advanced makes this a no-op.
func (s *NotificationService) advanceRotation(ctx context.Context, expected notification.Category) (bool, error) {
	next := notification.NextCategory(expected)
	tag, err := s.db.Exec(ctx, `
		UPDATE notification_rotation_state
		SET current_type = $2, updated_at = NOW()
		WHERE id = 1 AND current_type = $1
	`, expected, next)
	if err != nil {
		return false, fmt.Errorf("failed to advance rotation cursor: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *NotificationService) pickTemplate(ctx context.Context, category notification.Category) (title, body string, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT title_template, body_template
		FROM notification_templates
		WHERE category = $1
		ORDER BY RANDOM()
		LIMIT 1
	`, category).Scan(&title, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", fmt.Errorf("no templates for category %s", category)
		}
		return "", "", fmt.Errorf("failed to pick template: %w", err)
	}
	return title, body, nil
}

// RunRotation sends one notification of the current rotation category to
// every user, then advances the cursor. Re-running the job before the
// next tick double-sends; only the daily digest carries a same-day guard.
func (s *NotificationService) RunRotation(ctx context.Context) error {
	state, err := s.GetRotationState(ctx)
	if err != nil {
		return err
	}
	category := state.CurrentType

	rows, err := s.db.Query(ctx, `SELECT id, username FROM users`)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	sent := 0
	for rows.Next() {
		var userID uuid.UUID
		var username string
		if err := rows.Scan(&userID, &username); err != nil {
			log.Printf("RunRotation: failed to scan user: %v", err)
			continue
		}

		title, body, err := s.pickTemplate(ctx, category)
		if err != nil {
			log.Printf("RunRotation: %v", err)
			continue
		}

		data := map[string]any{"username": username}
		_, err = s.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   userID,
			Category: category,
			Title:    renderTemplate(title, data),
			Body:     renderTemplate(body, data),
			Data:     data,
		})
		if err != nil {
			log.Printf("RunRotation: failed to notify user %s: %v", userID, err)
			continue
		}
		sent++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating users: %w", err)
	}

	advanced, err := s.advanceRotation(ctx, category)
	if err != nil {
		return err
	}
	if !advanced {
		log.Printf("RunRotation: cursor already advanced past %s by another worker", category)
	}

	log.Printf("RunRotation: sent %d %s notifications", sent, category)
	return nil
}

// RunDailyDigest sends one notification per category to every user, at
// most once per UTC calendar day. The job-log insert is the gate: losing
// the ON CONFLICT race means another worker has today covered.
func (s *NotificationService) RunDailyDigest(ctx context.Context) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO notification_job_log (job_name, run_date, ran_at)
		VALUES ('daily_digest', CURRENT_DATE, NOW())
		ON CONFLICT (job_name, run_date) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to record digest run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Println("RunDailyDigest: already ran today, skipping")
		return nil
	}

	rows, err := s.db.Query(ctx, `SELECT id, username FROM users`)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	sent := 0
	for rows.Next() {
		var userID uuid.UUID
		var username string
		if err := rows.Scan(&userID, &username); err != nil {
			log.Printf("RunDailyDigest: failed to scan user: %v", err)
			continue
		}

		data := map[string]any{"username": username}
		for _, category := range notification.RotationOrder {
			title, body, err := s.pickTemplate(ctx, category)
			if err != nil {
				log.Printf("RunDailyDigest: %v", err)
				continue
			}
			_, err = s.CreateNotification(ctx, &notification.CreateNotificationRequest{
				UserID:   userID,
				Category: category,
				Title:    renderTemplate(title, data),
				Body:     renderTemplate(body, data),
				Data:     data,
			})
			if err != nil {
				log.Printf("RunDailyDigest: failed to notify user %s: %v", userID, err)
				continue
			}
			sent++
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating users: %w", err)
	}

	log.Printf("RunDailyDigest: sent %d notifications", sent)
	return nil
}

// cleanupOldNotifications deletes read notifications older than 90 days.
func (s *NotificationService) cleanupOldNotifications(ctx context.Context) {
	result, err := s.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE read_at IS NOT NULL
		  AND read_at < NOW() - INTERVAL '90 days'
	`)
	if err != nil {
		log.Printf("Failed to cleanup old notifications: %v", err)
		return
	}

	if n := result.RowsAffected(); n > 0 {
		log.Printf("Cleaned up %d old notifications", n)
	}
}
