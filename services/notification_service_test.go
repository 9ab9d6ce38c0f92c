package services

import (
	"context"
	"testing"

	"nutriQuestAPI/internal/types/notification"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]any
		want string
	}{
		{
			name: "single placeholder",
			tmpl: "You hit a {days}-day streak!",
			data: map[string]any{"days": 7},
			want: "You hit a 7-day streak!",
		},
		{
			name: "multiple placeholders",
			tmpl: "{name}, time for {meal}",
			data: map[string]any{"name": "Alex", "meal": "lunch"},
			want: "Alex, time for lunch",
		},
		{
			name: "missing key left as-is",
			tmpl: "Hello {name}",
			data: map[string]any{},
			want: "Hello {name}",
		},
		{
			name: "nil data",
			tmpl: "Plain message",
			data: nil,
			want: "Plain message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderTemplate(tt.tmpl, tt.data); got != tt.want {
				t.Errorf("renderTemplate(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestCreateNotificationRejectsUnencodableData(t *testing.T) {
	svc := NewNotificationService(nil)
	defer svc.Stop()

	// Channels cannot be JSON-encoded; the failure surfaces before any
	// database access.
	_, err := svc.CreateNotification(context.Background(), &notification.CreateNotificationRequest{
		Data: map[string]any{"ch": make(chan int)},
	})
	if err == nil {
		t.Fatal("expected an error for unencodable notification data")
	}
}
