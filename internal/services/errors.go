package services

import "errors"

// Error taxonomy for the round engine and its collaborators. Handlers map
// these to HTTP statuses and websocket failure reasons with errors.Is.
var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrRoundNotRunning = errors.New("round is not accepting bets")
	ErrBetWindowClosed = errors.New("too close to crash to accept bets")
	ErrDuplicateBet    = errors.New("bet already placed and not cashed out")
	ErrNoActiveBet     = errors.New("no active bet or already cashed out")
	ErrLateCashout     = errors.New("too late, crash already occurred")

	ErrPriceUnavailable = errors.New("price unavailable from both redis and fallback")
	ErrRateLimited      = errors.New("rate limit exceeded")
)
