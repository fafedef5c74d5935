package repository

import (
	"context"
	"fmt"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, custom_id, name, avatar, coins, wealth, charm,
	is_admin, is_banned, frame, active_bubble, name_style,
	owned_items, created_at, updated_at`

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.CustomID,
		&user.Name,
		&user.Avatar,
		&user.Coins,
		&user.Wealth,
		&user.Charm,
		&user.IsAdmin,
		&user.IsBanned,
		&user.Frame,
		&user.ActiveBubble,
		&user.NameStyle,
		&user.OwnedItems,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.OwnedItems == nil {
		user.OwnedItems = []string{}
	}
	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	return user, nil
}

// GetByIDs retrieves multiple users at once. Missing IDs are silently
// omitted from the result.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Create creates a new user with the initial coin balance. The custom ID
// is assigned by the custom_id sequence.
func (r *UserRepository) Create(ctx context.Context, id string, name string, initialCoins int64) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, coins)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, id, name, initialCoins))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", id, err)
	}

	return user, nil
}

// AddCoins adds to a user's spendable balance atomically
func (r *UserRepository) AddCoins(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET coins = coins + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to add coins for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// DeductCoins deducts from a user's balance atomically, failing if
// insufficient funds
func (r *UserRepository) DeductCoins(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// Update only if the user holds at least the amount
	query := `
		UPDATE users
		SET coins = coins - $1, updated_at = NOW()
		WHERE id = $2 AND coins >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to deduct coins for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish missing user from insufficient balance
		var coins int64
		err := r.q.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1`, id).Scan(&coins)
		if err == pgx.ErrNoRows {
			return fmt.Errorf("user %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to check balance for user %s: %w", id, err)
		}
		return fmt.Errorf("insufficient coins: user %s has %d, needs %d", id, coins, amount)
	}

	return nil
}

// AddWealth bumps the lifetime coins-spent counter
func (r *UserRepository) AddWealth(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET wealth = wealth + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to add wealth for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// AddCharm bumps the lifetime gift-value-received counter
func (r *UserRepository) AddCharm(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET charm = charm + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to add charm for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// UpdateProfile applies a partial profile update. Nil fields are left
// untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
		    avatar = COALESCE($2, avatar),
		    frame = COALESCE($3, frame),
		    name_style = COALESCE($4, name_style),
		    updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query, patch.Name, patch.Avatar, patch.Frame, patch.NameStyle, id)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// AddOwnedItem appends a store item to the user's inventory, ignoring
// duplicates.
func (r *UserRepository) AddOwnedItem(ctx context.Context, id string, itemID string) error {
	query := `
		UPDATE users
		SET owned_items = array_append(owned_items, $1), updated_at = NOW()
		WHERE id = $2 AND NOT ($1 = ANY(owned_items))
	`

	_, err := r.q.Exec(ctx, query, itemID, id)
	if err != nil {
		return fmt.Errorf("failed to add owned item %s for user %s: %w", itemID, id, err)
	}

	return nil
}

// SetActiveBubble equips a chat bubble cosmetic
func (r *UserRepository) SetActiveBubble(ctx context.Context, id string, bubble string) error {
	query := `
		UPDATE users
		SET active_bubble = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, bubble, id)
	if err != nil {
		return fmt.Errorf("failed to set active bubble for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// SetBanned toggles the ban flag
func (r *UserRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	query := `
		UPDATE users
		SET is_banned = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, banned, id)
	if err != nil {
		return fmt.Errorf("failed to set banned for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}

// GetTopByWealth returns the wealth ranking
func (r *UserRepository) GetTopByWealth(ctx context.Context, limit int) ([]*models.User, error) {
	return r.getTop(ctx, "wealth", limit)
}

// GetTopByCharm returns the charm ranking
func (r *UserRepository) GetTopByCharm(ctx context.Context, limit int) ([]*models.User, error) {
	return r.getTop(ctx, "charm", limit)
}

func (r *UserRepository) getTop(ctx context.Context, column string, limit int) ([]*models.User, error) {
	// column is one of the two fixed ranking fields, never user input
	query := `SELECT ` + userColumns + ` FROM users ORDER BY ` + column + ` DESC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users by %s: %w", column, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
