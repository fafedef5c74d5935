package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vivolive/models"

	log "github.com/sirupsen/logrus"
)

// settingsCacheTTL bounds how stale a cached settings document can get on
// nodes that did not serve the admin update.
const settingsCacheTTL = 30 * time.Second

// settingsService implements the SettingsService interface with a small
// read-through cache, so transaction paths do not hit the singleton row on
// every draw.
type settingsService struct {
	uowFactory UnitOfWorkFactory

	mu       sync.RWMutex
	cached   *models.GameSettings
	cachedAt time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(uowFactory UnitOfWorkFactory) SettingsService {
	return &settingsService{uowFactory: uowFactory}
}

// Current returns the live settings, substituting defaults when the
// document was never written.
func (s *settingsService) Current(ctx context.Context) (models.GameSettings, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.cachedAt) < settingsCacheTTL {
		settings := *s.cached
		s.mu.RUnlock()
		return settings, nil
	}
	s.mu.RUnlock()

	settings, err := s.load(ctx)
	if err != nil {
		// Serve the stale copy rather than failing a transaction
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.cached != nil {
			log.WithError(err).Warn("Serving stale game settings")
			return *s.cached, nil
		}
		return models.GameSettings{}, err
	}

	s.mu.Lock()
	s.cached = &settings
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return settings, nil
}

func (s *settingsService) load(ctx context.Context) (models.GameSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return models.GameSettings{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stored, err := uow.GameSettingsRepository().Get(ctx)
	if err != nil {
		return models.GameSettings{}, fmt.Errorf("failed to load game settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return models.GameSettings{}, commitFailed(err)
	}

	if stored == nil {
		log.WithError(ErrConfigurationMissing).Warn("Serving default game settings")
		return models.DefaultGameSettings(), nil
	}
	return *stored, nil
}

// Update validates and persists new settings; admin only. The cache warms
// with the stored copy so the node that served the admin sees it at once.
func (s *settingsService) Update(ctx context.Context, adminID string, settings models.GameSettings) (*models.GameSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	admin, err := uow.UserRepository().GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil {
		return nil, ErrUserNotFound
	}
	if !admin.IsAdmin {
		return nil, ErrNotAdmin
	}

	if err := uow.GameSettingsRepository().Save(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to save game settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	s.mu.Lock()
	s.cached = &settings
	s.cachedAt = time.Now()
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"adminId": adminID,
		"version": settings.Version,
	}).Info("Game settings updated")

	return &settings, nil
}
