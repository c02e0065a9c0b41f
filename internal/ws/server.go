package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"tableside-order-service/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Notifier is what the REST handlers hold: fire-and-forget fan-out of state
// changes to connected browsers, globally or scoped to an order_code room.
// Delivery is at-most-once with no replay.
type Notifier interface {
	Emit(event string, data any)
	EmitToRoom(room string, event string, data any)
}

type wsConn interface {
	WriteJSON(v any) error
	ReadMessage() (int, []byte, error)
	Close() error
}

type client struct {
	conn    wsConn
	writeMu sync.Mutex
	rooms   map[string]struct{}
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

type Hub struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Hub {
	return &Hub{
		DB:      db,
		Logger:  logger,
		Config:  cfg,
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}
}

type eventMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type controlMessage struct {
	Type      string `json:"type"`
	OrderCode string `json:"orderCode"`
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	for room := range c.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) join(c *client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leave(c *client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}
	h.mu.Lock()
	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
	h.mu.Unlock()
}

// Emit broadcasts to every connected client. Clients whose write fails are
// evicted.
func (h *Hub) Emit(event string, data any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.send(clients, event, data)
}

func (h *Hub) EmitToRoom(room string, event string, data any) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	h.mu.RLock()
	members := h.rooms[room]
	clients := make([]*client, 0, len(members))
	for c := range members {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.send(clients, event, data)
}

func (h *Hub) send(clients []*client, event string, data any) {
	if len(clients) == 0 {
		return
	}
	msg := eventMessage{Event: event, Data: data}
	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			h.unregister(c)
		}
	}
}

// RoomCount reports the number of clients joined to a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[strings.TrimSpace(room)])
}

// HandleWS upgrades the connection and runs the client read loop. Clients send
// joinOrder/leaveOrder control messages to scope themselves to an order_code
// room; everything else flows server to client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	c := &client{conn: conn, rooms: make(map[string]struct{})}
	h.register(c)
	defer h.unregister(c)

	// Same behavior as connecting to the dashboard: seed the client with
	// today's order count so it does not start blank.
	if count, err := h.countTodayOrders(r.Context()); err == nil {
		_ = c.writeJSON(eventMessage{Event: "orderCountUpdated", Data: map[string]any{"count": count}})
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}

		switch ctrl.Type {
		case "joinOrder":
			h.join(c, ctrl.OrderCode)
		case "leaveOrder":
			h.leave(c, ctrl.OrderCode)
		}
	}
}

func (h *Hub) countTodayOrders(ctx context.Context) (int64, error) {
	loc, err := time.LoadLocation(h.Config.RestaurantTimezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var count int64
	err = h.DB.QueryRow(ctx, `select count(*) from orders where order_time >= $1`, dayStart).Scan(&count)
	return count, err
}
