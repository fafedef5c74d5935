package service

import (
	"context"
	"fmt"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// roomService implements the RoomService interface. Seat mutations are
// serialized per room so two clicks on the same empty seat resolve to one
// winner and one profile-open.
type roomService struct {
	uowFactory UnitOfWorkFactory
	settings   SettingsProvider
	roomLocks  *keyedLock
}

// NewRoomService creates a new room service
func NewRoomService(uowFactory UnitOfWorkFactory, settings SettingsProvider) RoomService {
	return &roomService{
		uowFactory: uowFactory,
		settings:   settings,
		roomLocks:  newKeyedLock(),
	}
}

// CreateRoom opens a new room hosted by the given user
func (s *roomService) CreateRoom(ctx context.Context, hostID string, title string, background string) (*models.Room, error) {
	if title == "" {
		return nil, fmt.Errorf("room title is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	host, err := uow.UserRepository().GetByID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	if host == nil {
		return nil, ErrUserNotFound
	}
	if host.IsBanned {
		return nil, ErrUserBanned
	}

	room := &models.Room{
		ID:         uuid.NewString(),
		Title:      title,
		HostID:     hostID,
		Background: background,
		Listeners:  1,
	}
	if err := uow.RoomRepository().Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	room.Speakers = []models.Speaker{}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: room})

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return room, nil
}

// GetRoom retrieves a room by ID
func (s *roomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return room, nil
}

// ListRooms returns all live rooms
func (s *roomService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rooms, err := uow.RoomRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return rooms, nil
}

// EnterRoom records a listener entering. A locked room admits only its
// host and admins.
func (s *roomService) EnterRoom(ctx context.Context, roomID string, userID string) (*models.Room, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}
	if room.IsLocked && !room.IsHost(userID) && !user.IsAdmin {
		return nil, ErrRoomLocked
	}

	if err := uow.RoomRepository().AddListeners(ctx, roomID, 1); err != nil {
		return nil, fmt.Errorf("failed to bump listeners: %w", err)
	}
	room.Listeners++

	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: room})

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return room, nil
}

// LeaveRoom records a listener or speaker leaving. A host leaving deletes
// the room outright.
func (s *roomService) LeaveRoom(ctx context.Context, roomID string, userID string) error {
	s.roomLocks.Lock(roomID)
	defer s.roomLocks.Unlock(roomID)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	if room.IsHost(userID) {
		if err := uow.RoomRepository().Delete(ctx, roomID); err != nil {
			return fmt.Errorf("failed to delete room: %w", err)
		}
		uow.EventBus().Publish(events.RoomDeletedEvent{RoomID: roomID})
		if err := uow.Commit(); err != nil {
			return commitFailed(err)
		}
		return nil
	}

	if room.SpeakerByUser(userID) != nil {
		if err := uow.RoomRepository().RemoveSpeaker(ctx, roomID, userID); err != nil {
			return fmt.Errorf("failed to free seat: %w", err)
		}
	}
	if err := uow.RoomRepository().AddListeners(ctx, roomID, -1); err != nil {
		return fmt.Errorf("failed to drop listener count: %w", err)
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to reload room: %w", err)
	}
	if updated != nil {
		uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})
	}

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}
	return nil
}

// JoinSeat handles a seat click. An occupied seat mutates nothing and
// reports the occupant so the client opens their profile; an empty seat
// claims it, carrying the mute state across a reseat.
func (s *roomService) JoinSeat(ctx context.Context, roomID string, userID string, seatIndex int) (*models.SeatChange, error) {
	if seatIndex < 0 || seatIndex >= models.SeatCount {
		return nil, ErrInvalidSeat
	}

	s.roomLocks.Lock(roomID)
	defer s.roomLocks.Unlock(roomID)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if occupant := room.SpeakerAt(seatIndex); occupant != nil {
		// Profile-open path, including a click on the user's own seat
		if err := uow.Commit(); err != nil {
			return nil, commitFailed(err)
		}
		return &models.SeatChange{Room: room, Occupant: occupant}, nil
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}
	if room.IsLocked && !room.IsHost(userID) && !user.IsAdmin {
		return nil, ErrRoomLocked
	}

	prior := room.SpeakerByUser(userID)
	firstSeat := prior == nil

	speaker := models.Speaker{
		UserID:    userID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Frame:     user.Frame,
		NameStyle: user.NameStyle,
		SeatIndex: seatIndex,
		Charm:     user.Charm,
	}
	if prior != nil {
		// A reseat keeps the mute state and the denormalized charm
		speaker.IsMuted = prior.IsMuted
		speaker.Charm = prior.Charm
	}

	if err := uow.RoomRepository().UpsertSpeaker(ctx, roomID, speaker); err != nil {
		return nil, fmt.Errorf("failed to claim seat: %w", err)
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload room: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})
	if firstSeat {
		uow.EventBus().Publish(events.SeatTakenEvent{
			RoomID:    roomID,
			UserID:    userID,
			UserName:  user.Name,
			SeatIndex: seatIndex,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return &models.SeatChange{Room: updated, FirstSeat: firstSeat}, nil
}

// LeaveSeat frees the user's seat without leaving the room
func (s *roomService) LeaveSeat(ctx context.Context, roomID string, userID string) (*models.Room, error) {
	s.roomLocks.Lock(roomID)
	defer s.roomLocks.Unlock(roomID)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.SpeakerByUser(userID) == nil {
		return nil, ErrNotSeated
	}

	if err := uow.RoomRepository().RemoveSpeaker(ctx, roomID, userID); err != nil {
		return nil, fmt.Errorf("failed to free seat: %w", err)
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload room: %w", err)
	}
	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return updated, nil
}

// SetMuted toggles the user's own mute flag
func (s *roomService) SetMuted(ctx context.Context, roomID string, userID string, muted bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.SpeakerByUser(userID) == nil {
		return ErrNotSeated
	}

	if err := uow.RoomRepository().SetSpeakerMuted(ctx, roomID, userID, muted); err != nil {
		return fmt.Errorf("failed to set mute: %w", err)
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to reload room: %w", err)
	}
	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}
	return nil
}

// SetEmoji plays an emoji on the user's seat and schedules its clear after
// the configured duration.
func (s *roomService) SetEmoji(ctx context.Context, roomID string, userID string, emoji string) error {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if len(settings.AvailableEmojis) > 0 {
		allowed := false
		for _, e := range settings.AvailableEmojis {
			if e == emoji {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("emoji %q is not enabled", emoji)
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.SpeakerByUser(userID) == nil {
		return ErrNotSeated
	}

	if err := uow.RoomRepository().SetSpeakerEmoji(ctx, roomID, userID, emoji); err != nil {
		return fmt.Errorf("failed to set emoji: %w", err)
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to reload room: %w", err)
	}
	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}

	duration := time.Duration(settings.EmojiDuration * float64(time.Second))
	time.AfterFunc(duration, func() {
		if err := s.clearEmoji(roomID, userID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"roomId": roomID,
				"userId": userID,
			}).Warn("Failed to clear seat emoji")
		}
	})

	return nil
}

func (s *roomService) clearEmoji(roomID string, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil || room == nil || room.SpeakerByUser(userID) == nil {
		// Room gone or user left the seat; nothing to clear
		return err
	}

	if err := uow.RoomRepository().SetSpeakerEmoji(ctx, roomID, userID, ""); err != nil {
		return err
	}

	updated, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: updated})

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}
	return nil
}

// SetLocked toggles the room lock; host only
func (s *roomService) SetLocked(ctx context.Context, roomID string, userID string, locked bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if !room.IsHost(userID) {
		return ErrNotHost
	}

	room.IsLocked = locked
	if err := uow.RoomRepository().Update(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	uow.EventBus().Publish(events.RoomUpdatedEvent{Room: room})

	if err := uow.Commit(); err != nil {
		return commitFailed(err)
	}
	return nil
}
