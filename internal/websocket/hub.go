package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/optbench/options-workbench/internal/expmove"
	"github.com/optbench/options-workbench/internal/store"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to subscribed clients
type Message struct {
	Type   string      `json:"type"`
	Symbol string      `json:"symbol,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// subscribeRequest is what clients send to manage their symbol set
type subscribeRequest struct {
	Type    string   `json:"type"` // subscribe | unsubscribe
	Symbols []string `json:"symbols"`
}

// symbolUpdate is the payload pushed when a chain refreshes
type symbolUpdate struct {
	Spot         float64     `json:"spot"`
	ExpectedMove interface{} `json:"expectedMove,omitempty"`
}

// Hub tracks connected clients and pushes a fresh snapshot for a symbol
// whenever the ingest applies a chain update for it.
type Hub struct {
	clients       map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	notifications chan string
	subscriptions map[string]map[*Client]bool
	chains        *store.ChainStore
	expMove       *expmove.Calculator
	log           *logger.Logger
	mu            sync.RWMutex
}

// Client is the middleman between one websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub over the chain store
func NewHub(chains *store.ChainStore, expMove *expmove.Calculator) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		notifications: make(chan string, 256),
		subscriptions: make(map[string]map[*Client]bool),
		chains:        chains,
		expMove:       expMove,
		log:           logger.GetLogger("websocket.hub"),
	}
}

// Run processes registrations and symbol notifications until stopped
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for _, subs := range h.subscriptions {
					delete(subs, client)
				}
				close(client.send)
			}
			h.mu.Unlock()

		case symbol := <-h.notifications:
			h.pushSymbol(symbol)
		}
	}
}

// NotifySymbol queues a push for everyone subscribed to the symbol.
// Safe to call from the ingest goroutine; drops when the queue is full.
func (h *Hub) NotifySymbol(symbol string) {
	select {
	case h.notifications <- symbol:
	default:
		h.log.Warnf("notification queue full, dropping update for %s", symbol)
	}
}

func (h *Hub) pushSymbol(symbol string) {
	h.mu.RLock()
	subs := h.subscriptions[symbol]
	if len(subs) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	update := symbolUpdate{}
	if spot, err := h.chains.Spot(symbol); err == nil {
		update.Spot = spot
	}
	if chain, err := h.chains.NearestChain(symbol, time.Now()); err == nil {
		update.ExpectedMove = h.expMove.Calculate(chain)
	}

	payload, err := json.Marshal(Message{Type: "chain_update", Symbol: symbol, Data: update})
	if err != nil {
		h.log.Errorf("failed to marshal update for %s: %v", symbol, err)
		return
	}

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; the write pump will clean it up
		}
	}
}

func (h *Hub) subscribe(client *Client, symbols []string, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sym := range symbols {
		if on {
			if h.subscriptions[sym] == nil {
				h.subscriptions[sym] = make(map[*Client]bool)
			}
			h.subscriptions[sym][client] = true
		} else {
			delete(h.subscriptions[sym], client)
		}
	}
}

// ServeWS upgrades an HTTP request and attaches the client to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}
		switch req.Type {
		case "subscribe":
			c.hub.subscribe(c, req.Symbols, true)
		case "unsubscribe":
			c.hub.subscribe(c, req.Symbols, false)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
