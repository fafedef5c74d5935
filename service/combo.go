package service

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// ComboHit reports the combo state after a gift send. The zero value means
// the send neither started nor extended a chain.
type ComboHit struct {
	Count     int64
	ExpiresAt time.Time
}

type combo struct {
	identity  string
	count     int64
	expiresAt time.Time
}

// ComboTracker counts rapid repeat sends of the same gift to the same
// recipients by the same sender in the same room. A plain send starts a
// chain at its quantity; a repeat send inside the window adds its quantity
// and rearms the timer. State is in-memory only and vanishes on restart,
// which matches the ephemeral combo banner it drives.
type ComboTracker struct {
	mu     sync.Mutex
	now    func() time.Time
	combos map[string]*combo
}

// NewComboTracker creates a tracker on the real clock.
func NewComboTracker() *ComboTracker {
	return newComboTracker(time.Now)
}

func newComboTracker(now func() time.Time) *ComboTracker {
	return &ComboTracker{
		now:    now,
		combos: make(map[string]*combo),
	}
}

func comboKey(senderID, roomID string) string {
	return senderID + "|" + roomID
}

// comboIdentity normalizes what a chain is keyed on: the gift plus the
// recipient set, order-insensitive.
func comboIdentity(giftID string, recipientIDs []string) string {
	ids := make([]string, len(recipientIDs))
	copy(ids, recipientIDs)
	sort.Strings(ids)
	return giftID + "|" + strings.Join(ids, ",")
}

// Hit registers one send and returns the resulting combo state. A plain
// send always starts a fresh chain counting its quantity. A repeat extends
// the live chain only when it matches the chain's gift and recipient set
// before the window runs out; a repeat against an expired or mismatched
// chain is a no-op.
func (t *ComboTracker) Hit(senderID, roomID, giftID string, recipientIDs []string, quantity int64, repeat bool, window time.Duration) ComboHit {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	key := comboKey(senderID, roomID)
	identity := comboIdentity(giftID, recipientIDs)

	c, ok := t.combos[key]
	live := ok && !now.After(c.expiresAt)

	if repeat {
		if !live || c.identity != identity {
			return ComboHit{}
		}
		c.count += quantity
		c.expiresAt = now.Add(window)
		return ComboHit{Count: c.count, ExpiresAt: c.expiresAt}
	}

	c = &combo{
		identity:  identity,
		count:     quantity,
		expiresAt: now.Add(window),
	}
	t.combos[key] = c
	return ComboHit{Count: c.count, ExpiresAt: c.expiresAt}
}

// Break ends the sender's live combo in the room, if any. A repeat the
// sender cannot fund ends the chain rather than leaving the window armed.
func (t *ComboTracker) Break(senderID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.combos, comboKey(senderID, roomID))
}

// Prune drops expired combos. Called periodically so abandoned combos do
// not accumulate.
func (t *ComboTracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, c := range t.combos {
		if now.After(c.expiresAt) {
			delete(t.combos, key)
		}
	}
}
