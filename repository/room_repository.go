package repository

import (
	"context"
	"fmt"

	"vivolive/database"
	"vivolive/models"

	"github.com/jackc/pgx/v5"
)

// RoomRepository implements the service.RoomRepository interface
type RoomRepository struct {
	q queryable
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{q: db.Pool}
}

// newRoomRepositoryWithTx creates a new room repository with a transaction
func newRoomRepositoryWithTx(tx queryable) *RoomRepository {
	return &RoomRepository{q: tx}
}

// Create persists a new room
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, title, host_id, background, is_locked, listeners)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		room.ID, room.Title, room.HostID, room.Background, room.IsLocked, room.Listeners,
	).Scan(&room.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", room.ID, err)
	}

	return nil
}

// GetByID retrieves a room with its speakers, or nil if absent
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT id, title, host_id, background, is_locked, listeners, created_at
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.q.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Title,
		&room.HostID,
		&room.Background,
		&room.IsLocked,
		&room.Listeners,
		&room.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}

	speakers, err := r.loadSpeakers(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Speakers = speakers

	return &room, nil
}

// GetAll returns all live rooms with speakers loaded
func (r *RoomRepository) GetAll(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, title, host_id, background, is_locked, listeners, created_at
		FROM rooms
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room
		err := rows.Scan(
			&room.ID,
			&room.Title,
			&room.HostID,
			&room.Background,
			&room.IsLocked,
			&room.Listeners,
			&room.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, room := range rooms {
		speakers, err := r.loadSpeakers(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		room.Speakers = speakers
	}

	return rooms, nil
}

// Update persists room-level fields
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET title = $1, background = $2, is_locked = $3, listeners = $4
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		room.Title, room.Background, room.IsLocked, room.Listeners, room.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", room.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s not found", room.ID)
	}

	return nil
}

// AddListeners adjusts the approximate listener counter, clamped at zero
func (r *RoomRepository) AddListeners(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE rooms
		SET listeners = GREATEST(listeners + $1, 0)
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust listeners for room %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s not found", id)
	}

	return nil
}

// UpsertSpeaker seats a user. Any prior seat the user holds in the room is
// freed first, so a reseat is a single call; the (room_id, seat_index)
// primary key rejects a claim on an occupied seat.
func (r *RoomRepository) UpsertSpeaker(ctx context.Context, roomID string, speaker models.Speaker) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM room_speakers WHERE room_id = $1 AND user_id = $2`,
		roomID, speaker.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to free prior seat for user %s in room %s: %w", speaker.UserID, roomID, err)
	}

	query := `
		INSERT INTO room_speakers (
			room_id, seat_index, user_id, name, avatar, frame,
			name_style, charm, active_emoji, is_muted
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.q.Exec(ctx, query,
		roomID, speaker.SeatIndex, speaker.UserID, speaker.Name, speaker.Avatar,
		speaker.Frame, speaker.NameStyle, speaker.Charm, speaker.ActiveEmoji, speaker.IsMuted,
	)
	if err != nil {
		return fmt.Errorf("failed to seat user %s at seat %d in room %s: %w", speaker.UserID, speaker.SeatIndex, roomID, err)
	}

	return nil
}

// RemoveSpeaker frees whatever seat the user occupies
func (r *RoomRepository) RemoveSpeaker(ctx context.Context, roomID string, userID string) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM room_speakers WHERE room_id = $1 AND user_id = $2`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove speaker %s from room %s: %w", userID, roomID, err)
	}

	return nil
}

// AddSpeakerCharm bumps the denormalized charm on a seat snapshot. A user
// who is not seated is a no-op, not an error.
func (r *RoomRepository) AddSpeakerCharm(ctx context.Context, roomID string, userID string, delta int64) error {
	query := `
		UPDATE room_speakers
		SET charm = charm + $1
		WHERE room_id = $2 AND user_id = $3
	`

	_, err := r.q.Exec(ctx, query, delta, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to add speaker charm for user %s in room %s: %w", userID, roomID, err)
	}

	return nil
}

// SetSpeakerMuted toggles the mute flag on a seat snapshot
func (r *RoomRepository) SetSpeakerMuted(ctx context.Context, roomID string, userID string, muted bool) error {
	query := `
		UPDATE room_speakers
		SET is_muted = $1
		WHERE room_id = $2 AND user_id = $3
	`

	result, err := r.q.Exec(ctx, query, muted, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to set mute for user %s in room %s: %w", userID, roomID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s is not seated in room %s", userID, roomID)
	}

	return nil
}

// SetSpeakerEmoji sets or clears the active emoji on a seat snapshot
func (r *RoomRepository) SetSpeakerEmoji(ctx context.Context, roomID string, userID string, emoji string) error {
	query := `
		UPDATE room_speakers
		SET active_emoji = $1
		WHERE room_id = $2 AND user_id = $3
	`

	result, err := r.q.Exec(ctx, query, emoji, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to set emoji for user %s in room %s: %w", userID, roomID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s is not seated in room %s", userID, roomID)
	}

	return nil
}

// UpdateSpeakerProfiles re-syncs profile fields into every seat the user
// holds across all rooms
func (r *RoomRepository) UpdateSpeakerProfiles(ctx context.Context, userID string, patch models.ProfilePatch) error {
	query := `
		UPDATE room_speakers
		SET name = COALESCE($1, name),
		    avatar = COALESCE($2, avatar),
		    frame = COALESCE($3, frame),
		    name_style = COALESCE($4, name_style)
		WHERE user_id = $5
	`

	_, err := r.q.Exec(ctx, query, patch.Name, patch.Avatar, patch.Frame, patch.NameStyle, userID)
	if err != nil {
		return fmt.Errorf("failed to sync speaker profiles for user %s: %w", userID, err)
	}

	return nil
}

// RoomIDsWithSpeaker returns the rooms where the user currently holds a seat
func (r *RoomRepository) RoomIDsWithSpeaker(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT room_id FROM room_speakers WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms for speaker %s: %w", userID, err)
	}
	defer rows.Close()

	var roomIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan room ID: %w", err)
		}
		roomIDs = append(roomIDs, id)
	}

	return roomIDs, rows.Err()
}

// Delete removes the room; speakers cascade away with it
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s not found", id)
	}

	return nil
}

func (r *RoomRepository) loadSpeakers(ctx context.Context, roomID string) ([]models.Speaker, error) {
	query := `
		SELECT user_id, name, avatar, frame, name_style, seat_index,
		       charm, active_emoji, is_muted
		FROM room_speakers
		WHERE room_id = $1
		ORDER BY seat_index
	`

	rows, err := r.q.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load speakers for room %s: %w", roomID, err)
	}
	defer rows.Close()

	var speakers []models.Speaker
	for rows.Next() {
		var s models.Speaker
		err := rows.Scan(
			&s.UserID,
			&s.Name,
			&s.Avatar,
			&s.Frame,
			&s.NameStyle,
			&s.SeatIndex,
			&s.Charm,
			&s.ActiveEmoji,
			&s.IsMuted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers = append(speakers, s)
	}

	return speakers, rows.Err()
}
