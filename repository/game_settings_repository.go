package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

// GameSettingsRepository implements the service.GameSettingsRepository
// interface over the singleton settings row.
type GameSettingsRepository struct {
	q queryable
}

// NewGameSettingsRepository creates a new game settings repository
func NewGameSettingsRepository(db *database.DB) *GameSettingsRepository {
	return &GameSettingsRepository{q: db.Pool}
}

// newGameSettingsRepositoryWithTx creates a new game settings repository with a transaction
func newGameSettingsRepositoryWithTx(tx queryable) *GameSettingsRepository {
	return &GameSettingsRepository{q: tx}
}

// Get retrieves the settings document, or nil if never written
func (r *GameSettingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	query := `SELECT settings, version FROM game_settings WHERE id = 1`

	var settingsJSON []byte
	var version int64
	err := r.q.QueryRow(ctx, query).Scan(&settingsJSON, &version)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game settings: %w", err)
	}

	var settings models.GameSettings
	if err := json.Unmarshal(settingsJSON, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game settings: %w", err)
	}
	settings.Version = version

	return &settings, nil
}

// Save upserts the settings document and bumps its version. The version
// written back into the argument is the stored one, so callers can cache
// against it.
func (r *GameSettingsRepository) Save(ctx context.Context, settings *models.GameSettings) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal game settings: %w", err)
	}

	query := `
		INSERT INTO game_settings (id, settings, version)
		VALUES (1, $1, 1)
		ON CONFLICT (id) DO UPDATE SET
			settings = EXCLUDED.settings,
			version = game_settings.version + 1,
			updated_at = NOW()
		RETURNING version
	`

	if err := r.q.QueryRow(ctx, query, settingsJSON).Scan(&settings.Version); err != nil {
		return fmt.Errorf("failed to save game settings: %w", err)
	}

	return nil
}
