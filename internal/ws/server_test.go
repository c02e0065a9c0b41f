package ws

import (
	"errors"
	"testing"

	"tableside-order-service/internal/config"

	"go.uber.org/zap"
)

type fakeConn struct {
	messages []eventMessage
	failNext bool
	closed   bool
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.failNext {
		return errors.New("write failed")
	}
	if msg, ok := v.(eventMessage); ok {
		c.messages = append(c.messages, msg)
	}
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not used")
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func newTestHub() *Hub {
	return New(nil, zap.NewNop(), config.Config{})
}

func addClient(h *Hub) (*client, *fakeConn) {
	conn := &fakeConn{}
	c := &client{conn: conn, rooms: make(map[string]struct{})}
	h.register(c)
	return c, conn
}

func TestJoinLeaveRoomBookkeeping(t *testing.T) {
	h := newTestHub()
	c, _ := addClient(h)

	h.join(c, "CODE-1")
	if got := h.RoomCount("CODE-1"); got != 1 {
		t.Fatalf("RoomCount after join = %d, want 1", got)
	}

	h.leave(c, "CODE-1")
	if got := h.RoomCount("CODE-1"); got != 0 {
		t.Fatalf("RoomCount after leave = %d, want 0", got)
	}

	h.join(c, "   ")
	if got := h.RoomCount(""); got != 0 {
		t.Fatal("blank room names must be ignored")
	}
}

func TestEmitToRoomScopesDelivery(t *testing.T) {
	h := newTestHub()
	member, memberConn := addClient(h)
	_, outsiderConn := addClient(h)

	h.join(member, "CODE-1")
	h.EmitToRoom("CODE-1", "order_payment_updated", map[string]any{"order_code": "CODE-1"})

	if len(memberConn.messages) != 1 {
		t.Fatalf("room member received %d messages, want 1", len(memberConn.messages))
	}
	if memberConn.messages[0].Event != "order_payment_updated" {
		t.Fatalf("unexpected event %q", memberConn.messages[0].Event)
	}
	if len(outsiderConn.messages) != 0 {
		t.Fatalf("client outside the room received %d messages, want 0", len(outsiderConn.messages))
	}
}

func TestEmitBroadcastsToAllClients(t *testing.T) {
	h := newTestHub()
	_, a := addClient(h)
	_, b := addClient(h)

	h.Emit("new_order", map[string]any{"orderId": 1})

	for i, conn := range []*fakeConn{a, b} {
		if len(conn.messages) != 1 {
			t.Fatalf("client %d received %d messages, want 1", i, len(conn.messages))
		}
	}
}

func TestFailedWriteEvictsClient(t *testing.T) {
	h := newTestHub()
	c, conn := addClient(h)
	h.join(c, "CODE-1")
	conn.failNext = true

	h.Emit("new_order", map[string]any{"orderId": 1})

	if !conn.closed {
		t.Fatal("expected the failing connection to be closed")
	}
	if got := h.RoomCount("CODE-1"); got != 0 {
		t.Fatalf("evicted client still counted in room: %d", got)
	}

	// A later room emit must not panic or deliver to the evicted client.
	h.EmitToRoom("CODE-1", "order_status_updated", nil)
	if len(conn.messages) != 0 {
		t.Fatalf("evicted client received %d messages", len(conn.messages))
	}
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	h := newTestHub()
	c, conn := addClient(h)
	h.join(c, "CODE-1")
	h.join(c, "CODE-2")

	h.unregister(c)

	if !conn.closed {
		t.Fatal("expected the connection to be closed")
	}
	if h.RoomCount("CODE-1") != 0 || h.RoomCount("CODE-2") != 0 {
		t.Fatal("unregistered client still present in rooms")
	}
}
