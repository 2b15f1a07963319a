package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/torunhut/api/internal/domain"
)

func newSettingsFixture(t *testing.T, repo *fakeSettingsRepo) SettingsService {
	t.Helper()
	svc, err := NewSettingsService(SettingsServiceDeps{
		Settings: repo,
		Defaults: domain.Settings{
			StoreName:              "Torun Hut",
			LocalDeliveryCharge:    0,
			NationalDeliveryCharge: 100,
			PreorderEnabled:        true,
		},
		Clock: func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}
	return svc
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	repo := &fakeSettingsRepo{getErr: repoNotFound()}
	svc := newSettingsFixture(t, repo)

	settings, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.NationalDeliveryCharge != 100 {
		t.Fatalf("national charge = %d, want default 100", settings.NationalDeliveryCharge)
	}
	if settings.StoreName != "Torun Hut" {
		t.Fatalf("store name = %q, want default", settings.StoreName)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	repo := &fakeSettingsRepo{settings: domain.Settings{
		StoreName:              "Torun Hut",
		NationalDeliveryCharge: 100,
		LocalDeliveryCharge:    0,
	}}
	svc := newSettingsFixture(t, repo)

	announcement := "Eid sale is live"
	national := int64(120)
	updated, err := svc.UpdateSettings(context.Background(), UpdateSettingsCommand{
		AnnouncementText:       &announcement,
		NationalDeliveryCharge: &national,
		ActorID:                "uid-admin",
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.AnnouncementText != announcement {
		t.Fatalf("announcement = %q, want %q", updated.AnnouncementText, announcement)
	}
	if updated.NationalDeliveryCharge != 120 {
		t.Fatalf("national charge = %d, want 120", updated.NationalDeliveryCharge)
	}
	// Untouched fields carry over.
	if updated.StoreName != "Torun Hut" {
		t.Fatalf("store name = %q, want unchanged", updated.StoreName)
	}
	if updated.UpdatedBy != "uid-admin" {
		t.Fatalf("updatedBy = %q, want actor", updated.UpdatedBy)
	}
}

func TestUpdateSettingsRejectsNegativeCharge(t *testing.T) {
	svc := newSettingsFixture(t, &fakeSettingsRepo{})
	bad := int64(-5)
	_, err := svc.UpdateSettings(context.Background(), UpdateSettingsCommand{LocalDeliveryCharge: &bad})
	if !errors.Is(err, ErrSettingsInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}
