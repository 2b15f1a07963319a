package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

var (
	// ErrSettingsInvalidInput indicates an invalid settings payload.
	ErrSettingsInvalidInput = errors.New("settings service: invalid input")
	// ErrSettingsUnavailable indicates the service cannot reach its backend.
	ErrSettingsUnavailable = errors.New("settings service: unavailable")
)

// SettingsServiceDeps wires the settings service dependencies.
type SettingsServiceDeps struct {
	Settings repositories.SettingsRepository
	// Defaults seed the singleton before an admin first saves it.
	Defaults domain.Settings
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
}

type settingsService struct {
	settings repositories.SettingsRepository
	defaults domain.Settings
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewSettingsService constructs a SettingsService enforcing dependency validation.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service: settings repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}

	clock := deps.Clock
	return &settingsService{
		settings: deps.Settings,
		defaults: deps.Defaults,
		now:      func() time.Time { return clock().UTC() },
		logger:   deps.Logger,
	}, nil
}

// GetSettings returns the singleton, falling back to configured defaults when
// no document has been saved yet.
func (s *settingsService) GetSettings(ctx context.Context) (Settings, error) {
	if s == nil || s.settings == nil {
		return Settings{}, ErrSettingsUnavailable
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if isRepoNotFound(err) {
			return s.defaults, nil
		}
		return Settings{}, ErrSettingsUnavailable
	}
	return settings, nil
}

// UpdateSettings applies a partial update: only the fields the caller set are
// written, everything else carries over.
func (s *settingsService) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (Settings, error) {
	if s == nil || s.settings == nil {
		return Settings{}, ErrSettingsUnavailable
	}
	if cmd.LocalDeliveryCharge != nil && *cmd.LocalDeliveryCharge < 0 {
		return Settings{}, fmt.Errorf("%w: local delivery charge cannot be negative", ErrSettingsInvalidInput)
	}
	if cmd.NationalDeliveryCharge != nil && *cmd.NationalDeliveryCharge < 0 {
		return Settings{}, fmt.Errorf("%w: national delivery charge cannot be negative", ErrSettingsInvalidInput)
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}

	if cmd.StoreName != nil {
		current.StoreName = *cmd.StoreName
	}
	if cmd.AnnouncementText != nil {
		current.AnnouncementText = *cmd.AnnouncementText
	}
	if cmd.PreorderEnabled != nil {
		current.PreorderEnabled = *cmd.PreorderEnabled
	}
	if cmd.LocalDeliveryCharge != nil {
		current.LocalDeliveryCharge = *cmd.LocalDeliveryCharge
	}
	if cmd.NationalDeliveryCharge != nil {
		current.NationalDeliveryCharge = *cmd.NationalDeliveryCharge
	}
	if cmd.VerifyClientPricing != nil {
		current.VerifyClientPricing = *cmd.VerifyClientPricing
	}
	current.UpdatedAt = s.now()
	current.UpdatedBy = cmd.ActorID

	saved, err := s.settings.Save(ctx, current)
	if err != nil {
		return Settings{}, ErrSettingsUnavailable
	}
	s.logger(ctx, "settings.updated", map[string]any{"actorID": cmd.ActorID})
	return saved, nil
}
