package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"crypto-crash-backend/internal/models"
)

type recordedEvent struct {
	Event   string
	Payload map[string]interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) Publish(event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, _ := payload.(map[string]interface{})
	b.events = append(b.events, recordedEvent{Event: event, Payload: m})
}

func (b *fakeBroadcaster) SendTo(clientID string, event string, payload interface{}) {}

func (b *fakeBroadcaster) Events() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *fakeBroadcaster) Count(event string) int {
	n := 0
	for _, e := range b.Events() {
		if e.Event == event {
			n++
		}
	}
	return n
}

type nullWallet struct {
	mu      sync.Mutex
	credits int
}

func (w *nullWallet) Debit(ctx context.Context, playerID string, currency models.Currency, amount float64) error {
	return nil
}

func (w *nullWallet) Credit(ctx context.Context, playerID string, currency models.Currency, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.credits++
	return nil
}

func (w *nullWallet) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	return models.NewPlayer(playerID, playerID), nil
}

type memStore struct {
	mu     sync.Mutex
	rounds []*models.RoundRecord
}

func (s *memStore) SaveRound(ctx context.Context, record *models.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, record)
	return nil
}

func (s *memStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return nil
}

func (s *memStore) RecentRounds(ctx context.Context, limit int64) ([]*models.RoundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds, nil
}

func (s *memStore) Rounds() []*models.RoundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.RoundRecord, len(s.rounds))
	copy(out, s.rounds)
	return out
}

func fixedRound(crashPoint float64) func() (*models.Round, error) {
	return func() (*models.Round, error) {
		seed, err := GenerateSeed()
		if err != nil {
			return nil, err
		}

		roundID := "test_round"
		return &models.Round{
			RoundID:    roundID,
			Seed:       seed,
			Hash:       ComputeHash(seed, roundID),
			CrashPoint: crashPoint,
			Multiplier: 1.0,
			Status:     models.RoundRunning,
			StartTime:  time.Now(),
		}, nil
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestMultiplierAt(t *testing.T) {
	cases := []struct {
		elapsed float64
		want    float64
	}{
		{0, 1.0},
		{0.2, 1.01},
		{2, 1.1},
		{10, 1.5},
		{20, 2.0},
	}

	for _, tc := range cases {
		if got := MultiplierAt(tc.elapsed); got != tc.want {
			t.Errorf("MultiplierAt(%v): expected %v, got %v", tc.elapsed, tc.want, got)
		}
	}
}

func TestMultiplierMonotonic(t *testing.T) {
	prev := 0.0
	for elapsed := 0.0; elapsed < 30; elapsed += 0.1 {
		m := MultiplierAt(elapsed)
		if m < prev {
			t.Fatalf("Multiplier decreased: %v -> %v at %vs", prev, m, elapsed)
		}
		prev = m
	}
}

func TestSchedulerFullRound(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &memStore{}
	ledger := NewBetLedger(&nullWallet{}, store)

	s := NewRoundScheduler(ledger, broadcaster, store, 5*time.Millisecond, 20*time.Millisecond)
	// Lowest possible crash point so the round ends after ~200ms of growth.
	s.generate = fixedRound(1.01)

	s.ClientConnected()
	defer s.ClientDisconnected()

	waitFor(t, 3*time.Second, func() bool {
		return broadcaster.Count(EventCrash) >= 1
	})

	events := broadcaster.Events()

	var sawStart bool
	for _, e := range events {
		if e.Event == EventRoundStart {
			sawStart = true
			if e.Payload["crashPoint"] != "hidden" {
				t.Errorf("Round start must not disclose the crash point, got %v", e.Payload["crashPoint"])
			}
			break
		}
	}
	if !sawStart {
		t.Fatal("Expected a roundStart event before the crash")
	}

	// Multiplier stream is monotonically non-decreasing.
	prev := 0.0
	for _, e := range events {
		if e.Event != EventMultiplier {
			continue
		}
		m, ok := e.Payload["multiplier"].(float64)
		if !ok {
			t.Fatalf("Multiplier event without multiplier: %v", e.Payload)
		}
		if m < prev {
			t.Fatalf("Multiplier decreased mid-round: %v -> %v", prev, m)
		}
		prev = m
	}

	for _, e := range events {
		if e.Event != EventCrash {
			continue
		}
		if e.Payload["seed"] == "" || e.Payload["hash"] == "" {
			t.Error("Crash reveal must include seed and hash")
		}
		if e.Payload["crashPoint"].(float64) != 1.01 {
			t.Errorf("Expected crash point 1.01, got %v", e.Payload["crashPoint"])
		}
		break
	}

	// The completed round is archived off the hot path.
	waitFor(t, time.Second, func() bool {
		return len(store.Rounds()) >= 1
	})
}

func TestSchedulerSweepsLostBet(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &memStore{}
	ledger := NewBetLedger(&nullWallet{}, store)

	s := NewRoundScheduler(ledger, broadcaster, store, 5*time.Millisecond, 20*time.Millisecond)
	// Low enough to crash quickly, but above the bet safety margin so the
	// bet is still accepted at 1.0x.
	s.generate = fixedRound(1.11)

	s.ClientConnected()
	defer s.ClientDisconnected()

	waitFor(t, time.Second, func() bool {
		return s.State() == models.RoundRunning
	})

	if _, err := ledger.PlaceBet("player_1", models.CurrencyBTC, 100, 50000); err != nil {
		t.Fatalf("Failed to place bet: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		return len(store.Rounds()) >= 1
	})

	record := store.Rounds()[0]
	if len(record.Bets) != 1 {
		t.Fatalf("Expected one swept bet in the archived round, got %d", len(record.Bets))
	}
	if record.Bets[0].Won {
		t.Error("Swept bet must be archived with won:false")
	}
}

func TestSchedulerStopsWhenLastClientLeaves(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &memStore{}
	wallet := &nullWallet{}
	ledger := NewBetLedger(wallet, store)

	s := NewRoundScheduler(ledger, broadcaster, store, 5*time.Millisecond, 20*time.Millisecond)
	// High crash point keeps the round running until we disconnect.
	s.generate = fixedRound(20.0)

	s.ClientConnected()

	waitFor(t, time.Second, func() bool {
		return s.State() == models.RoundRunning
	})

	if _, err := ledger.PlaceBet("player_1", models.CurrencyBTC, 100, 50000); err != nil {
		t.Fatalf("Failed to place bet: %v", err)
	}

	s.ClientDisconnected()

	waitFor(t, time.Second, func() bool {
		return s.State() == models.RoundIdle
	})

	// The abandoned round refunds the outstanding stake and is not archived.
	waitFor(t, time.Second, func() bool {
		wallet.mu.Lock()
		defer wallet.mu.Unlock()
		return wallet.credits == 1
	})

	if len(store.Rounds()) != 0 {
		t.Errorf("Abandoned round should not be archived, got %d records", len(store.Rounds()))
	}

	if broadcaster.Count(EventCrash) != 0 {
		t.Error("Abandoned round should not publish a crash reveal")
	}
}

func TestSchedulerRestartsAfterIdle(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &memStore{}
	ledger := NewBetLedger(&nullWallet{}, store)

	s := NewRoundScheduler(ledger, broadcaster, store, 5*time.Millisecond, 20*time.Millisecond)
	s.generate = fixedRound(1.01)

	s.ClientConnected()
	s.ClientDisconnected()

	waitFor(t, time.Second, func() bool {
		return s.State() == models.RoundIdle
	})

	s.ClientConnected()
	defer s.ClientDisconnected()

	waitFor(t, 3*time.Second, func() bool {
		return s.State() == models.RoundRunning
	})
}
