package leaderboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/francosolari/nba-props-board/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Hub event types pushed to season rooms.
const (
	EventLeaderboardUpdated = "leaderboard_updated"
	EventSeasonUpdated      = "season_updated"
)

var newline = []byte{'\n'}

// Event is one push to the viewers of a season room. Clients refetch
// on receipt; the event itself carries no leaderboard data.
type Event struct {
	Type      string    `json:"type"`
	Season    string    `json:"season,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is one websocket viewer subscribed to a season room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	season string

	mu     sync.Mutex
	closed bool
}

// Hub fans refresh events out to connected viewers. Each season slug
// is a room; a socket joins exactly one room for its lifetime.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		log:        log,
	}
}

// Run owns room membership until ctx is canceled, then closes every
// client. Call it exactly once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.season] == nil {
				h.rooms[c.season] = make(map[*Client]bool)
			}
			h.rooms[c.season][c] = true
			viewers := len(h.rooms[c.season])
			h.mu.Unlock()
			metrics.WebsocketViewers.Inc()
			h.log.Debug("viewer joined season room", "season", c.season, "viewers", viewers)

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.season]; ok && room[c] {
				c.shutdown()
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, c.season)
				}
				metrics.WebsocketViewers.Dec()
			}
			viewers := len(h.rooms[c.season])
			h.mu.Unlock()
			h.log.Debug("viewer left season room", "season", c.season, "viewers", viewers)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for season, room := range h.rooms {
		for c := range room {
			c.shutdown()
			metrics.WebsocketViewers.Dec()
		}
		delete(h.rooms, season)
	}
}

// Join registers a fresh viewer for a season room and starts its read
// and write pumps. The hub owns the connection from here on.
func (h *Hub) Join(conn *websocket.Conn, season string) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		season: season,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}
	go c.writePump()
	go c.readPump()
	return c
}

// BroadcastSeason pushes an event to every viewer of one season. A
// viewer whose send buffer is full is skipped, not awaited.
func (h *Hub) BroadcastSeason(season string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[season]
	if len(room) == 0 {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal hub event", "error", err)
		return
	}
	for c := range room {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.log.Warn("viewer send buffer full, dropping event", "season", season)
		}
		c.mu.Unlock()
	}
}

// Watched lists seasons that currently have at least one viewer, in
// stable order.
func (h *Hub) Watched() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.rooms))
	for season := range h.rooms {
		out = append(out, season)
	}
	slices.Sort(out)
	return out
}

// shutdown closes the send channel exactly once.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump drains the connection so pongs and close frames are
// processed. Viewer messages carry no meaning and are discarded.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("viewer connection dropped", "season", c.season, "error", err)
			}
			return
		}
	}
}

// writePump flushes queued events and keeps the connection alive with
// pings. Events queued behind the first are coalesced into one frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
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
