package models

import (
	"time"
)

// SeatCount is the fixed number of speaking seats in every room.
const SeatCount = 8

// Speaker is a denormalized snapshot of a user occupying a seat. The copy
// is deliberate: the room document is the single thing clients watch, so a
// seat render never needs a second lookup. Profile changes are pushed back
// into these snapshots explicitly (see RoomRepository.UpdateSpeakerProfiles).
type Speaker struct {
	UserID      string `json:"userId" db:"user_id"`
	Name        string `json:"name" db:"name"`
	Avatar      string `json:"avatar" db:"avatar"`
	Frame       string `json:"frame" db:"frame"`
	NameStyle   string `json:"nameStyle" db:"name_style"`
	SeatIndex   int    `json:"seatIndex" db:"seat_index"`
	Charm       int64  `json:"charm" db:"charm"`
	ActiveEmoji string `json:"activeEmoji" db:"active_emoji"`
	IsMuted     bool   `json:"isMuted" db:"is_muted"`
}

// Room represents a live voice room with a host and up to SeatCount speakers.
// Listeners is an approximate counter maintained by enter/exit increments,
// not reconciled against actual presence.
type Room struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	HostID     string    `json:"hostId" db:"host_id"`
	Background string    `json:"background" db:"background"`
	IsLocked   bool      `json:"isLocked" db:"is_locked"`
	Listeners  int       `json:"listeners" db:"listeners"`
	Speakers   []Speaker `json:"speakers" db:"-"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SpeakerAt returns the speaker occupying the given seat, or nil.
func (r *Room) SpeakerAt(seatIndex int) *Speaker {
	for i := range r.Speakers {
		if r.Speakers[i].SeatIndex == seatIndex {
			return &r.Speakers[i]
		}
	}
	return nil
}

// SpeakerByUser returns the seat entry for a user, or nil if not seated.
func (r *Room) SpeakerByUser(userID string) *Speaker {
	for i := range r.Speakers {
		if r.Speakers[i].UserID == userID {
			return &r.Speakers[i]
		}
	}
	return nil
}

// IsHost reports whether the user owns the room.
func (r *Room) IsHost(userID string) bool {
	return r.HostID == userID
}

// Seats lays the speaker set out as a fixed-size array indexed by seat.
// Empty seats are nil.
func (r *Room) Seats() [SeatCount]*Speaker {
	var seats [SeatCount]*Speaker
	for i := range r.Speakers {
		idx := r.Speakers[i].SeatIndex
		if idx >= 0 && idx < SeatCount {
			seats[idx] = &r.Speakers[i]
		}
	}
	return seats
}

// SeatChange reports the outcome of a seat click. When Occupant is set the
// seat was already taken and nothing changed; the client opens that user's
// profile instead. FirstSeat is true only when the user had no prior seat in
// the room, which drives the one-time "joined mic" notice.
type SeatChange struct {
	Room      *Room
	Occupant  *Speaker
	FirstSeat bool
}
