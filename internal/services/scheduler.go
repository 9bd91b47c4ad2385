package services

import (
	"context"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"crypto-crash-backend/internal/models"
)

// RoundScheduler owns the round lifecycle: it is the single writer of round
// status and multiplier. One goroutine drives the whole cycle with a tick
// ticker and a cooldown timer; bets and cashouts from the websocket layer
// serialize against it through the BetLedger's lock.
//
// States: idle (no subscribers), running (multiplier advancing), crashed
// (sweep + reveal), cooldown (fixed delay before the next round). The first
// connected client starts the loop; when the last one disconnects the current
// round is abandoned with refunds and the loop parks in idle.
type RoundScheduler struct {
	ledger      *BetLedger
	broadcaster Broadcaster
	store       RoundStore

	tickInterval time.Duration
	cooldown     time.Duration

	// generate creates the next round; swapped out in tests to control the
	// crash point.
	generate func() (*models.Round, error)

	mu            sync.Mutex
	state         models.RoundStatus
	subscribers   int
	stopRequested bool
	running       bool
}

func NewRoundScheduler(ledger *BetLedger, broadcaster Broadcaster, store RoundStore, tickInterval, cooldown time.Duration) *RoundScheduler {
	return &RoundScheduler{
		ledger:       ledger,
		broadcaster:  broadcaster,
		store:        store,
		tickInterval: tickInterval,
		cooldown:     cooldown,
		generate:     newRound,
		state:        models.RoundIdle,
	}
}

func (s *RoundScheduler) State() models.RoundStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClientConnected registers a subscriber; the first one starts the game loop.
func (s *RoundScheduler) ClientConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers++
	s.stopRequested = false

	if !s.running {
		s.running = true
		go s.run()
	}
}

// ClientDisconnected unregisters a subscriber; when none remain, a stop is
// requested and the loop winds down after the current tick.
func (s *RoundScheduler) ClientDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers > 0 {
		s.subscribers--
	}

	if s.subscribers == 0 {
		s.stopRequested = true
	}
}

func (s *RoundScheduler) shouldStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *RoundScheduler) setState(state models.RoundStatus) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *RoundScheduler) run() {
	for {
		if s.shouldStop() {
			break
		}

		if !s.playRound() {
			break
		}

		s.setState(models.RoundCooldown)
		time.Sleep(s.cooldown)
	}

	s.mu.Lock()
	s.state = models.RoundIdle
	s.running = false
	// A client may have connected in the window after the final stop check;
	// restart instead of stranding them in idle.
	restart := s.subscribers > 0 && !s.stopRequested
	if restart {
		s.running = true
	}
	s.mu.Unlock()

	if restart {
		go s.run()
		return
	}

	log.Println("Game stopped. No active users.")
}

// playRound runs one full round. Returns false when the round was abandoned
// because a stop was requested.
func (s *RoundScheduler) playRound() bool {
	round, err := s.generate()
	if err != nil {
		log.Printf("Failed to create round: %v", err)
		return false
	}

	s.ledger.BeginRound(round)
	s.setState(models.RoundRunning)

	log.Printf("New round started | round=%s crash at %.2f", round.RoundID, round.CrashPoint)

	// Seed and hash stay hidden until the crash reveal.
	s.broadcaster.Publish(EventRoundStart, map[string]interface{}{
		"roundId":    round.RoundID,
		"crashPoint": "hidden",
		"multiplier": 1.0,
	})

	start := round.StartTime
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if s.shouldStop() {
			s.abandonRound(round)
			return false
		}

		elapsed := time.Since(start).Seconds()
		multiplier := MultiplierAt(elapsed)

		crashed := s.ledger.Tick(multiplier)

		current, _ := s.ledger.Round()
		s.broadcaster.Publish(EventMultiplier, map[string]interface{}{
			"multiplier": current.Multiplier,
		})

		if crashed {
			s.handleCrash(round)
			return true
		}
	}

	return false
}

// MultiplierAt computes the multiplier for a given elapsed time in seconds,
// rounded to two decimal places.
func MultiplierAt(elapsedSeconds float64) float64 {
	return math.Round((1+elapsedSeconds*0.05)*100) / 100
}

func newRound() (*models.Round, error) {
	roundID := strconv.FormatInt(time.Now().UnixMilli(), 10)

	seed, err := GenerateSeed()
	if err != nil {
		return nil, err
	}

	hash := ComputeHash(seed, roundID)
	crashPoint := ComputeCrashPoint(hash)

	return &models.Round{
		RoundID:    roundID,
		Seed:       seed,
		Hash:       hash,
		CrashPoint: crashPoint,
		Multiplier: 1.0,
		Status:     models.RoundRunning,
		StartTime:  time.Now(),
	}, nil
}

func (s *RoundScheduler) handleCrash(round *models.Round) {
	s.setState(models.RoundCrashed)
	s.markCrashed()

	current, _ := s.ledger.Round()
	log.Printf("Crashed at %.2f | round=%s", current.Multiplier, round.RoundID)

	// Fairness reveal: seed and hash let anyone recompute the crash point.
	s.broadcaster.Publish(EventCrash, map[string]interface{}{
		"crashPoint": round.CrashPoint,
		"roundId":    round.RoundID,
		"seed":       round.Seed,
		"hash":       round.Hash,
	})

	s.ledger.SweepLosses()
	record := s.ledger.Record(time.Now())

	// Archival is best-effort and runs off the round loop so a slow store
	// never delays the next round.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.store.SaveRound(ctx, record); err != nil {
			log.Printf("Failed to archive round %s: %v", record.RoundID, err)
		}
	}()
}

func (s *RoundScheduler) markCrashed() {
	// Flip the round out of running under the ledger lock so no bet or
	// cashout can slip in past the crash boundary.
	s.ledger.mu.Lock()
	if s.ledger.round != nil {
		s.ledger.round.Status = models.RoundCrashed
	}
	s.ledger.mu.Unlock()
}

func (s *RoundScheduler) abandonRound(round *models.Round) {
	log.Printf("Game loop interrupted mid-round | round=%s", round.RoundID)

	s.markCrashed()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.ledger.RefundOutstanding(ctx)
}
