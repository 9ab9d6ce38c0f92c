package services

import (
	"context"
	"testing"
)

func TestPreferencesLookupByUserID(t *testing.T) {
	db := setupTestDB(t)
	clerkID := createTestUser(t, db)
	userSvc := NewUserService(db)
	notifSvc := NewNotificationService(db)
	defer notifSvc.Stop()
	ctx := context.Background()

	u, err := userSvc.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("GetUserByClerkID: %v", err)
	}

	// The profile's id column is the same key the preferences table uses.
	prefs, err := notifSvc.GetPreferencesByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetPreferencesByUserID: %v", err)
	}
	if prefs.UserID != u.ID {
		t.Errorf("preferences UserID = %s, want %s", prefs.UserID, u.ID)
	}

	if err := notifSvc.UpdatePreferences(ctx, clerkID, false); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	prefs, err = notifSvc.GetPreferencesByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetPreferencesByUserID after update: %v", err)
	}
	if prefs.PushEnabled {
		t.Error("push still enabled after opting out")
	}
}
