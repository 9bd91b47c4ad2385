package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	scheduler *services.RoundScheduler
	ledger    *services.BetLedger
	limiter   *services.RateLimiter
	hub       *WebSocketHub
}

// WebSocketHub owns every connection. All writes go through the hub goroutine
// so a broadcast and a targeted send never race on the same conn.
type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	send       chan *Message
}

type Client struct {
	ID   string
	Conn *websocket.Conn
}

// Message is the wire envelope in both directions. ClientID targets one
// connection on the way out; empty means broadcast.
type Message struct {
	Type     string      `json:"type"`
	ClientID string      `json:"-"`
	Data     interface{} `json:"data"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewWebSocketHub starts the hub goroutine. The hub doubles as the
// services.Broadcaster the round engine publishes to.
func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan *Message, 100),
	}

	go hub.run()

	return hub
}

func NewWebSocketHandler(hub *WebSocketHub, scheduler *services.RoundScheduler, ledger *services.BetLedger, limiter *services.RateLimiter) *WebSocketHandler {
	return &WebSocketHandler{
		scheduler: scheduler,
		ledger:    ledger,
		limiter:   limiter,
		hub:       hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Conn: conn,
	}

	h.hub.register <- client
	h.scheduler.ClientConnected()

	defer func() {
		h.hub.unregister <- client
		h.scheduler.ClientDisconnected()
		conn.Close()
	}()

	for {
		var msg inboundMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(c.Request.Context(), client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, client *Client, msg *inboundMessage) {
	switch msg.Type {
	case "place_bet":
		h.handleBet(ctx, client, msg.Data)
	case "cashout":
		h.handleCashout(ctx, client, msg.Data)
	case "PING":
		h.hub.SendTo(client.ID, "PONG", gin.H{"timestamp": time.Now().Unix()})
	}
}

func (h *WebSocketHandler) handleBet(ctx context.Context, client *Client, data json.RawMessage) {
	var req models.WSBetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("Bet rejected: malformed payload: %v", err)
		return
	}

	if err := req.Validate(); err != nil {
		log.Printf("Bet rejected: %v", err)
		return
	}

	allowed, err := h.limiter.Allow(ctx, req.PlayerID, "bet", services.DefaultRateLimitBets, time.Minute)
	if err == nil && !allowed {
		log.Printf("Bet rejected: rate limit for %s", req.PlayerID)
		return
	}

	bet, err := h.ledger.PlaceBet(req.PlayerID, req.Currency, req.UsdAmount, req.Price)
	if err != nil {
		log.Printf("Bet rejected for %s: %v", req.PlayerID, err)
		return
	}

	log.Printf("Bet stored: player=%s %f %s ($%.2f)", bet.PlayerID, bet.CryptoAmount, bet.Currency, bet.UsdAmount)
}

func (h *WebSocketHandler) handleCashout(ctx context.Context, client *Client, data json.RawMessage) {
	var req models.WSCashoutRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.hub.SendTo(client.ID, services.EventCashoutFailed, gin.H{"reason": "Malformed cashout request"})
		return
	}

	allowed, err := h.limiter.Allow(ctx, req.PlayerID, "cashout", services.DefaultRateLimitCashouts, time.Minute)
	if err == nil && !allowed {
		h.hub.SendTo(client.ID, services.EventCashoutFailed, gin.H{"reason": "Too many cashout attempts"})
		return
	}

	result, err := h.ledger.CashOut(ctx, req.PlayerID)

	switch {
	case err == nil:
	case result != nil:
		// Bet is resolved but a downstream wallet/persistence call failed.
		log.Printf("Cashout downstream failure for %s: %v", req.PlayerID, err)
		h.hub.SendTo(client.ID, services.EventCashoutFailed, gin.H{"reason": "Server error during cashout"})
		return
	default:
		h.hub.SendTo(client.ID, services.EventCashoutFailed, gin.H{"reason": err.Error()})
		return
	}

	h.hub.SendTo(client.ID, services.EventCashoutSuccess, gin.H{
		"usd":        result.PayoutUsd,
		"crypto":     result.PayoutCrypto,
		"multiplier": result.Multiplier,
	})

	h.hub.Publish(services.EventPlayerCashout, gin.H{
		"playerId":   result.PlayerID,
		"multiplier": result.Multiplier,
		"usd":        result.PayoutUsd,
	})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.ID] = client.Conn
			log.Printf("Client connected: %s. Total: %d", client.ID, len(hub.clients))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.ID]; ok {
				delete(hub.clients, client.ID)
				log.Printf("Client disconnected: %s. Total: %d", client.ID, len(hub.clients))
			}

		case message := <-hub.send:
			hub.write(message)
		}
	}
}

func (hub *WebSocketHub) write(message *Message) {
	if message.ClientID != "" {
		if conn, ok := hub.clients[message.ClientID]; ok {
			conn.WriteJSON(message)
		}
		return
	}

	for _, conn := range hub.clients {
		conn.WriteJSON(message)
	}
}

func (hub *WebSocketHub) Publish(event string, payload interface{}) {
	hub.send <- &Message{Type: event, Data: payload}
}

func (hub *WebSocketHub) SendTo(clientID string, event string, payload interface{}) {
	hub.send <- &Message{Type: event, ClientID: clientID, Data: payload}
}
