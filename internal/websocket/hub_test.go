package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uint) *Client {
	return &Client{hub: hub, send: make(chan []byte, 4), UserID: userID}
}

func register(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	select {
	case hub.register <- c:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept registration")
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		return payload
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestHubDeliversToRegisteredUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub, 7)
	register(t, hub, c)

	hub.Deliver(7, []byte("ping"))
	assert.Equal(t, []byte("ping"), receive(t, c))
}

func TestHubIgnoresUnconnectedUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub, 7)
	register(t, hub, c)

	// A frame for someone else must not reach this client.
	hub.Deliver(99, []byte("other"))
	hub.Deliver(7, []byte("mine"))
	assert.Equal(t, []byte("mine"), receive(t, c))
}

func TestHubReplacesOldConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	old := newTestClient(hub, 7)
	register(t, hub, old)

	replacement := newTestClient(hub, 7)
	register(t, hub, replacement)

	// The old connection's channel is closed, the new one receives.
	select {
	case _, ok := <-old.send:
		assert.False(t, ok, "old send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("old send channel was not closed")
	}

	hub.Deliver(7, []byte("hello"))
	assert.Equal(t, []byte("hello"), receive(t, replacement))
}

func TestHubUnregisterOnlyRemovesCurrentClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	old := newTestClient(hub, 7)
	register(t, hub, old)
	replacement := newTestClient(hub, 7)
	register(t, hub, replacement)

	// The stale connection unregistering must not evict its replacement.
	select {
	case hub.unregister <- old:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept unregistration")
	}

	hub.Deliver(7, []byte("still here"))
	assert.Equal(t, []byte("still here"), receive(t, replacement))
}
