package services

// Broadcaster decouples the round engine from the websocket transport.
// Publish fans an event out to every connected client; SendTo targets the
// client that issued a request.
type Broadcaster interface {
	Publish(event string, payload interface{})
	SendTo(clientID string, event string, payload interface{})
}

// Round event names on the realtime channel.
const (
	EventRoundStart     = "roundStart"
	EventMultiplier     = "multiplier"
	EventCrash          = "crash"
	EventPlayerCashout  = "playerCashout"
	EventCashoutSuccess = "cashoutSuccess"
	EventCashoutFailed  = "cashoutFailed"
)
