package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"crypto-crash-backend/internal/models"
)

// WalletGateway moves funds for players. Implementations must serialize
// mutations per player so a debit and a later credit cannot interleave.
type WalletGateway interface {
	Debit(ctx context.Context, playerID string, currency models.Currency, amount float64) error
	Credit(ctx context.Context, playerID string, currency models.Currency, amount float64) error
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
}

// RoundStore is the append-only archive of completed rounds and the
// transaction log.
type RoundStore interface {
	SaveRound(ctx context.Context, record *models.RoundRecord) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	RecentRounds(ctx context.Context, limit int64) ([]*models.RoundRecord, error)
}

// betSafetyMargin rejects bets once the multiplier is within this distance of
// the crash point.
const betSafetyMargin = 0.1

// BetLedger tracks every bet in the current round and serializes bet, cashout
// and multiplier-tick mutations behind one mutex. The lock covers only the
// in-memory transition; wallet and persistence I/O runs outside it so a slow
// collaborator cannot stall the round tick.
type BetLedger struct {
	mu       sync.Mutex
	round    *models.Round
	bets     []*models.Bet
	resolved []models.Bet

	wallet WalletGateway
	store  RoundStore
}

func NewBetLedger(wallet WalletGateway, store RoundStore) *BetLedger {
	return &BetLedger{
		wallet: wallet,
		store:  store,
	}
}

// BeginRound resets the ledger for a new round. Called by the scheduler before
// the round is published.
func (l *BetLedger) BeginRound(round *models.Round) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.round = round
	l.bets = nil
	l.resolved = nil
}

// Tick advances the round multiplier, never letting it decrease, and reports
// whether the crash point has been reached. Only the scheduler calls this.
func (l *BetLedger) Tick(multiplier float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.round == nil || l.round.Status != models.RoundRunning {
		return false
	}

	if multiplier > l.round.Multiplier {
		l.round.Multiplier = multiplier
	}

	return l.round.Multiplier >= l.round.CrashPoint
}

// Round returns a copy of the current round state.
func (l *BetLedger) Round() (models.Round, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.round == nil {
		return models.Round{}, false
	}
	return *l.round, true
}

// PlaceBet records a bet against the current round. The wallet debit is the
// caller's responsibility (done via the REST bet endpoint before the
// websocket place_bet arrives); the ledger only tracks betting state.
func (l *BetLedger) PlaceBet(playerID string, currency models.Currency, usdAmount, price float64) (*models.Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.round == nil || l.round.Status != models.RoundRunning {
		return nil, ErrRoundNotRunning
	}

	if l.round.Multiplier >= l.round.CrashPoint-betSafetyMargin {
		return nil, ErrBetWindowClosed
	}

	if l.findUnresolved(playerID) != nil {
		return nil, ErrDuplicateBet
	}

	bet := &models.Bet{
		PlayerID:     playerID,
		Currency:     currency,
		CryptoAmount: usdAmount / price,
		UsdAmount:    usdAmount,
		Price:        price,
		Status:       models.BetUnresolved,
		PlacedAt:     time.Now(),
	}

	l.bets = append(l.bets, bet)

	return bet, nil
}

// CashOut resolves a player's bet at the current multiplier, then issues the
// wallet credit and persistence writes. The in-memory resolution commits
// before the downstream effects: if a downstream call fails, the bet stays
// resolved and the error is reported alongside the result.
func (l *BetLedger) CashOut(ctx context.Context, playerID string) (*models.CashoutResult, error) {
	l.mu.Lock()

	if l.round == nil || l.round.Status != models.RoundRunning {
		l.mu.Unlock()
		return nil, ErrNoActiveBet
	}

	bet := l.findUnresolved(playerID)
	if bet == nil {
		l.mu.Unlock()
		return nil, ErrNoActiveBet
	}

	if l.round.Multiplier >= l.round.CrashPoint {
		l.mu.Unlock()
		return nil, ErrLateCashout
	}

	multiplier := l.round.Multiplier
	roundID := l.round.RoundID

	bet.Status = models.BetCashedOut
	bet.CashoutMultiplier = multiplier
	bet.Won = true
	l.resolved = append(l.resolved, *bet)

	price := bet.Price
	currency := bet.Currency
	payoutCrypto := models.CalculatePayout(bet.CryptoAmount, multiplier)

	l.mu.Unlock()

	if price <= 0 {
		log.Printf("Missing price for %s, defaulting to $1", playerID)
		price = 1
	}
	payoutUsd := payoutCrypto * price

	result := &models.CashoutResult{
		PlayerID:     playerID,
		Currency:     currency,
		PayoutCrypto: payoutCrypto,
		PayoutUsd:    payoutUsd,
		Multiplier:   multiplier,
	}

	// Downstream effects are best-effort: the resolution above is already
	// committed and is not rolled back on failure.
	if err := l.wallet.Credit(ctx, playerID, currency, payoutCrypto); err != nil {
		return result, fmt.Errorf("cashout credit failed: %w", err)
	}

	txHash, err := models.GenerateTransactionHash()
	if err != nil {
		return result, fmt.Errorf("cashout transaction hash failed: %w", err)
	}

	tx := &models.Transaction{
		ID:              models.GenerateTransactionID(),
		PlayerID:        playerID,
		Type:            models.TransactionTypeCashout,
		UsdAmount:       payoutUsd,
		CryptoAmount:    payoutCrypto,
		Currency:        currency,
		TransactionHash: txHash,
		PriceAtTime:     price,
		CreatedAt:       time.Now(),
	}

	if err := l.store.SaveTransaction(ctx, tx); err != nil {
		return result, fmt.Errorf("cashout transaction log failed for round %s: %w", roundID, err)
	}

	return result, nil
}

// SweepLosses marks every bet still unresolved as lost. Called exactly once
// per round at the crash transition; returns the swept bets.
func (l *BetLedger) SweepLosses() []models.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var swept []models.Bet
	for _, bet := range l.bets {
		if bet.Status != models.BetUnresolved {
			continue
		}

		bet.Status = models.BetLost
		bet.Won = false
		l.resolved = append(l.resolved, *bet)
		swept = append(swept, *bet)
	}

	return swept
}

// RefundOutstanding returns stakes to players whose bets are unresolved when
// a round is abandoned mid-flight (last subscriber disconnected). The
// abandoned round is discarded and never archived.
func (l *BetLedger) RefundOutstanding(ctx context.Context) {
	l.mu.Lock()

	var refunds []models.Bet
	for _, bet := range l.bets {
		if bet.Status != models.BetUnresolved {
			continue
		}

		refunds = append(refunds, *bet)
	}
	l.bets = nil

	l.mu.Unlock()

	for _, bet := range refunds {
		if err := l.wallet.Credit(ctx, bet.PlayerID, bet.Currency, bet.CryptoAmount); err != nil {
			log.Printf("Refund failed for %s: %v", bet.PlayerID, err)
			continue
		}

		txHash, err := models.GenerateTransactionHash()
		if err != nil {
			log.Printf("Refund transaction hash failed for %s: %v", bet.PlayerID, err)
			continue
		}

		tx := &models.Transaction{
			ID:              models.GenerateTransactionID(),
			PlayerID:        bet.PlayerID,
			Type:            models.TransactionTypeRefund,
			UsdAmount:       bet.UsdAmount,
			CryptoAmount:    bet.CryptoAmount,
			Currency:        bet.Currency,
			TransactionHash: txHash,
			PriceAtTime:     bet.Price,
			CreatedAt:       time.Now(),
		}

		if err := l.store.SaveTransaction(ctx, tx); err != nil {
			log.Printf("Refund transaction log failed for %s: %v", bet.PlayerID, err)
		}
	}
}

// Record captures the completed round with its resolved bets for archival.
func (l *BetLedger) Record(endTime time.Time) *models.RoundRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.round == nil {
		return nil
	}

	bets := make([]models.Bet, len(l.resolved))
	copy(bets, l.resolved)

	return &models.RoundRecord{
		RoundID:    l.round.RoundID,
		Seed:       l.round.Seed,
		Hash:       l.round.Hash,
		CrashPoint: l.round.CrashPoint,
		Bets:       bets,
		StartTime:  l.round.StartTime,
		EndTime:    endTime,
	}
}

// findUnresolved must be called with the lock held.
func (l *BetLedger) findUnresolved(playerID string) *models.Bet {
	for _, bet := range l.bets {
		if bet.PlayerID == playerID && bet.Status == models.BetUnresolved {
			return bet
		}
	}
	return nil
}
