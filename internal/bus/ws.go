package bus

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Envelope wraps every WebSocket message with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants for the network front door.
const (
	TypeBid           = "bid"
	TypeAward         = "award"
	TypeClearingTimes = "clearing_times"
)

// NewEnvelope marshals payload and wraps it in an Envelope.
func NewEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// Client is a connected WebSocket observer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub manages connected WebSocket clients and broadcasts messages to all
// of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends msg to every connected client, dropping it for any
// client whose buffer is full.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("bus: client buffer full, dropping message")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the resulting Client with hub, then blocks writing outbound messages
// until the connection closes.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	hub.Register(client)
	defer hub.Unregister(client)
	go func() {
		// A read error is how a closed peer shows up; unregistering closes
		// send, which ends writePump.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(client)
				return
			}
		}
	}()
	client.writePump()
	return nil
}

// Bridge relays Bus envelopes onto a Hub's WebSocket clients, adapted from
// a callback interface to three goroutines draining Bus subscriptions.
type Bridge struct {
	hub *Hub
}

// NewBridge constructs a Bridge writing onto hub.
func NewBridge(hub *Hub) *Bridge { return &Bridge{hub: hub} }

// Run subscribes to b's three topics and starts one goroutine per topic
// that forwards each envelope as a broadcast Envelope. Run returns
// immediately; each goroutine runs until its subscription channel is
// closed.
func (br *Bridge) Run(b *Bus, bufferSize int) {
	bids := b.SubscribeBids(bufferSize)
	awards := b.SubscribeAwards(bufferSize)
	clearingTimes := b.SubscribeClearingTimes(bufferSize)

	go br.relay(bids, TypeBid)
	go br.relayAwards(awards)
	go br.relayClearingTimes(clearingTimes)
}

func (br *Bridge) relay(ch <-chan BidEnvelope, msgType string) {
	for e := range ch {
		msg, err := NewEnvelope(msgType, e)
		if err != nil {
			log.Printf("bus: marshal %s: %v", msgType, err)
			continue
		}
		br.hub.Broadcast(msg)
	}
}

func (br *Bridge) relayAwards(ch <-chan AwardEnvelope) {
	for e := range ch {
		msg, err := NewEnvelope(TypeAward, e)
		if err != nil {
			log.Printf("bus: marshal award: %v", err)
			continue
		}
		br.hub.Broadcast(msg)
	}
}

func (br *Bridge) relayClearingTimes(ch <-chan ClearingTimesEnvelope) {
	for e := range ch {
		msg, err := NewEnvelope(TypeClearingTimes, e)
		if err != nil {
			log.Printf("bus: marshal clearing times: %v", err)
			continue
		}
		br.hub.Broadcast(msg)
	}
}
