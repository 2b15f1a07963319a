package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/repositories"
)

const (
	settingsCollection = "settings"
	// The storefront keeps exactly one settings document.
	settingsDocID = "store"
)

type settingsDocument struct {
	StoreName              string    `firestore:"storeName,omitempty"`
	AnnouncementText       string    `firestore:"announcementText,omitempty"`
	PreorderEnabled        bool      `firestore:"preorderEnabled"`
	LocalDeliveryCharge    int64     `firestore:"localDeliveryCharge"`
	NationalDeliveryCharge int64     `firestore:"nationalDeliveryCharge"`
	VerifyClientPricing    bool      `firestore:"verifyClientPricing"`
	UpdatedAt              time.Time `firestore:"updatedAt"`
	UpdatedBy              string    `firestore:"updatedBy,omitempty"`
}

// SettingsRepository owns the storefront settings singleton in Firestore.
type SettingsRepository struct {
	settings *pfirestore.Collection[settingsDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		settings: pfirestore.NewCollection[settingsDocument](provider, settingsCollection, nil),
	}, nil
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	if r == nil || r.settings == nil {
		return domain.Settings{}, errors.New("settings repository not initialised")
	}
	doc, err := r.settings.Get(ctx, settingsDocID)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{
		StoreName:              doc.Data.StoreName,
		AnnouncementText:       doc.Data.AnnouncementText,
		PreorderEnabled:        doc.Data.PreorderEnabled,
		LocalDeliveryCharge:    doc.Data.LocalDeliveryCharge,
		NationalDeliveryCharge: doc.Data.NationalDeliveryCharge,
		VerifyClientPricing:    doc.Data.VerifyClientPricing,
		UpdatedAt:              doc.Data.UpdatedAt,
		UpdatedBy:              doc.Data.UpdatedBy,
	}, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if r == nil || r.settings == nil {
		return domain.Settings{}, errors.New("settings repository not initialised")
	}
	doc := settingsDocument{
		StoreName:              settings.StoreName,
		AnnouncementText:       settings.AnnouncementText,
		PreorderEnabled:        settings.PreorderEnabled,
		LocalDeliveryCharge:    settings.LocalDeliveryCharge,
		NationalDeliveryCharge: settings.NationalDeliveryCharge,
		VerifyClientPricing:    settings.VerifyClientPricing,
		UpdatedAt:              settings.UpdatedAt,
		UpdatedBy:              settings.UpdatedBy,
	}
	if _, err := r.settings.Set(ctx, settingsDocID, doc); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}
