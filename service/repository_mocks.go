package service

import (
	"context"
	"time"

	"vivolive/events"
	"vivolive/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, id string, name string, initialCoins int64) (*models.User, error) {
	args := m.Called(ctx, id, name, initialCoins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddCoins(ctx context.Context, id string, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductCoins(ctx context.Context, id string, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) AddWealth(ctx context.Context, id string, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) AddCharm(ctx context.Context, id string, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockUserRepository) AddOwnedItem(ctx context.Context, id string, itemID string) error {
	args := m.Called(ctx, id, itemID)
	return args.Error(0)
}

func (m *MockUserRepository) SetActiveBubble(ctx context.Context, id string, bubble string) error {
	args := m.Called(ctx, id, bubble)
	return args.Error(0)
}

func (m *MockUserRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	args := m.Called(ctx, id, banned)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopByWealth(ctx context.Context, limit int) ([]*models.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) GetTopByCharm(ctx context.Context, limit int) ([]*models.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockRoomRepository is a mock implementation of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomRepository) GetAll(ctx context.Context) ([]*models.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}

func (m *MockRoomRepository) Update(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) AddListeners(ctx context.Context, id string, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockRoomRepository) UpsertSpeaker(ctx context.Context, roomID string, speaker models.Speaker) error {
	args := m.Called(ctx, roomID, speaker)
	return args.Error(0)
}

func (m *MockRoomRepository) RemoveSpeaker(ctx context.Context, roomID string, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoomRepository) AddSpeakerCharm(ctx context.Context, roomID string, userID string, delta int64) error {
	args := m.Called(ctx, roomID, userID, delta)
	return args.Error(0)
}

func (m *MockRoomRepository) SetSpeakerMuted(ctx context.Context, roomID string, userID string, muted bool) error {
	args := m.Called(ctx, roomID, userID, muted)
	return args.Error(0)
}

func (m *MockRoomRepository) SetSpeakerEmoji(ctx context.Context, roomID string, userID string, emoji string) error {
	args := m.Called(ctx, roomID, userID, emoji)
	return args.Error(0)
}

func (m *MockRoomRepository) UpdateSpeakerProfiles(ctx context.Context, userID string, patch models.ProfilePatch) error {
	args := m.Called(ctx, userID, patch)
	return args.Error(0)
}

func (m *MockRoomRepository) RoomIDsWithSpeaker(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCoinHistoryRepository is a mock implementation of CoinHistoryRepository
type MockCoinHistoryRepository struct {
	mock.Mock
}

func (m *MockCoinHistoryRepository) Record(ctx context.Context, history *models.CoinHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockCoinHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.CoinHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CoinHistory), args.Error(1)
}

func (m *MockCoinHistoryRepository) GetByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.CoinHistory, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CoinHistory), args.Error(1)
}

// MockGiftRepository is a mock implementation of GiftRepository
type MockGiftRepository struct {
	mock.Mock
}

func (m *MockGiftRepository) GetByID(ctx context.Context, id string) (*models.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gift), args.Error(1)
}

func (m *MockGiftRepository) GetAll(ctx context.Context) ([]*models.Gift, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Gift), args.Error(1)
}

func (m *MockGiftRepository) Upsert(ctx context.Context, gift *models.Gift) error {
	args := m.Called(ctx, gift)
	return args.Error(0)
}

func (m *MockGiftRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStoreItemRepository is a mock implementation of StoreItemRepository
type MockStoreItemRepository struct {
	mock.Mock
}

func (m *MockStoreItemRepository) GetByID(ctx context.Context, id string) (*models.StoreItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreItem), args.Error(1)
}

func (m *MockStoreItemRepository) GetAll(ctx context.Context) ([]*models.StoreItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StoreItem), args.Error(1)
}

func (m *MockStoreItemRepository) Upsert(ctx context.Context, item *models.StoreItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStoreItemRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGameSettingsRepository is a mock implementation of GameSettingsRepository
type MockGameSettingsRepository struct {
	mock.Mock
}

func (m *MockGameSettingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

func (m *MockGameSettingsRepository) Save(ctx context.Context, settings *models.GameSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockLuckyBagRepository is a mock implementation of LuckyBagRepository
type MockLuckyBagRepository struct {
	mock.Mock
}

func (m *MockLuckyBagRepository) Create(ctx context.Context, bag *models.LuckyBag) error {
	args := m.Called(ctx, bag)
	return args.Error(0)
}

func (m *MockLuckyBagRepository) GetForUpdate(ctx context.Context, id string) (*models.LuckyBag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LuckyBag), args.Error(1)
}

func (m *MockLuckyBagRepository) RecordClaim(ctx context.Context, bagID string, userID string, amount int64) error {
	args := m.Called(ctx, bagID, userID, amount)
	return args.Error(0)
}

func (m *MockLuckyBagRepository) GetExpired(ctx context.Context, now time.Time) ([]*models.LuckyBag, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LuckyBag), args.Error(1)
}

func (m *MockLuckyBagRepository) MarkRefunded(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// recordingPublisher captures published events without expectations, for
// tests that only assert on what was emitted.
type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.published = append(p.published, event)
}

func (p *recordingPublisher) eventsOfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.published {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// mockUnitOfWork wires the repository mocks into a UnitOfWork for service
// tests, tracking commit and rollback calls.
type mockUnitOfWork struct {
	users       *MockUserRepository
	rooms       *MockRoomRepository
	coinHistory *MockCoinHistoryRepository
	gifts       *MockGiftRepository
	storeItems  *MockStoreItemRepository
	settings    *MockGameSettingsRepository
	luckyBags   *MockLuckyBagRepository
	bus         *recordingPublisher

	began      bool
	committed  bool
	rolledBack bool
	commitErr  error
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		users:       &MockUserRepository{},
		rooms:       &MockRoomRepository{},
		coinHistory: &MockCoinHistoryRepository{},
		gifts:       &MockGiftRepository{},
		storeItems:  &MockStoreItemRepository{},
		settings:    &MockGameSettingsRepository{},
		luckyBags:   &MockLuckyBagRepository{},
		bus:         &recordingPublisher{},
	}
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error {
	u.began = true
	return nil
}

func (u *mockUnitOfWork) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}

func (u *mockUnitOfWork) Rollback() error {
	if !u.committed {
		u.rolledBack = true
	}
	return nil
}

func (u *mockUnitOfWork) UserRepository() UserRepository                 { return u.users }
func (u *mockUnitOfWork) RoomRepository() RoomRepository                 { return u.rooms }
func (u *mockUnitOfWork) CoinHistoryRepository() CoinHistoryRepository   { return u.coinHistory }
func (u *mockUnitOfWork) GiftRepository() GiftRepository                 { return u.gifts }
func (u *mockUnitOfWork) StoreItemRepository() StoreItemRepository       { return u.storeItems }
func (u *mockUnitOfWork) GameSettingsRepository() GameSettingsRepository { return u.settings }
func (u *mockUnitOfWork) LuckyBagRepository() LuckyBagRepository         { return u.luckyBags }
func (u *mockUnitOfWork) EventBus() EventPublisher                       { return u.bus }

// mockUowFactory hands out the same unit of work to every Create call so
// tests can assert against it afterwards.
type mockUowFactory struct {
	uow *mockUnitOfWork
}

func (f *mockUowFactory) Create() UnitOfWork {
	return f.uow
}

// staticSettings serves fixed settings to services under test.
type staticSettings struct {
	settings models.GameSettings
}

func (s *staticSettings) Current(ctx context.Context) (models.GameSettings, error) {
	return s.settings, nil
}
