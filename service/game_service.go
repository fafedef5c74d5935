package service

import (
	"context"
	"fmt"

	"vivolive/models"
)

// gameService implements the GameService interface for the wheel and
// slots mini-games.
type gameService struct {
	uowFactory UnitOfWorkFactory
	settings   SettingsProvider
	roll       randFloat
}

// NewGameService creates a new game service
func NewGameService(uowFactory UnitOfWorkFactory, settings SettingsProvider) GameService {
	return newGameServiceWithRoll(uowFactory, settings, defaultRoll)
}

func newGameServiceWithRoll(uowFactory UnitOfWorkFactory, settings SettingsProvider, roll randFloat) *gameService {
	return &gameService{
		uowFactory: uowFactory,
		settings:   settings,
		roll:       roll,
	}
}

// Spin plays one round: the bet leaves the balance, and a winning draw
// pays it back times the landed multiplier.
func (s *gameService) Spin(ctx context.Context, userID string, game models.Game, bet int64) (*models.SpinResult, error) {
	if bet <= 0 {
		return nil, ErrInvalidAmount
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

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
	if !user.CanAfford(bet) {
		return nil, ErrInsufficientFunds
	}

	result := &models.SpinResult{
		Game: game,
		Bet:  bet,
	}

	var winRate float64
	switch game {
	case models.GameWheel:
		winRate = settings.WheelWinRate
	case models.GameSlots:
		winRate = settings.SlotsWinRate
	default:
		return nil, fmt.Errorf("unknown game %q", game)
	}

	result.Won = DrawWin(winRate, s.roll)
	if result.Won {
		result.Multiplier, result.WinLabel = s.landMultiplier(game, settings)
		result.Payout = int64(float64(bet) * result.Multiplier)
	}

	if err := uow.UserRepository().DeductCoins(ctx, userID, bet); err != nil {
		return nil, fmt.Errorf("failed to deduct bet: %w", err)
	}
	if result.Payout > 0 {
		if err := uow.UserRepository().AddCoins(ctx, userID, result.Payout); err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
	}

	netChange := result.Payout - bet
	result.NewCoins = user.Coins + netChange

	history := &models.CoinHistory{
		UserID:          userID,
		CoinsBefore:     user.Coins,
		CoinsAfter:      result.NewCoins,
		ChangeAmount:    netChange,
		TransactionType: game.TransactionType(),
		Metadata: map[string]any{
			"bet":        bet,
			"won":        result.Won,
			"multiplier": result.Multiplier,
			"win_label":  result.WinLabel,
		},
	}
	if err := RecordCoinChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record spin: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, commitFailed(err)
	}

	return result, nil
}

// landMultiplier decides which multiplier a winning spin pays.
func (s *gameService) landMultiplier(game models.Game, settings models.GameSettings) (float64, string) {
	if game == models.GameWheel {
		if DrawWin(settings.WheelJackpotChance, s.roll) {
			return settings.WheelJackpotX, "JACKPOT"
		}
		return settings.WheelNormalX, "WIN"
	}
	if DrawWin(settings.SlotsSevenChance, s.roll) {
		return settings.SlotsSevenX, "777"
	}
	return settings.SlotsFruitX, "FRUIT"
}
