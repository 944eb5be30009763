package websocket

import "log"

// directedFrame is a payload addressed to a single connected user.
type directedFrame struct {
	userID  uint
	payload []byte
}

// Hub maintains the set of active clients and delivers per-user frames.
// One connection per user ID; a new connection replaces the old one.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client

	// Frames aimed at a specific user.
	direct chan directedFrame
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directedFrame, 256),
	}
}

// Deliver queues a frame for the given user. Non-blocking: if the hub's
// delivery channel is full the frame is dropped, since every frame is a
// refetch hint the client can recover from on its next poll.
func (h *Hub) Deliver(userID uint, payload []byte) {
	select {
	case h.direct <- directedFrame{userID: userID, payload: payload}:
	default:
		log.Printf("Warning: hub delivery channel full, dropping frame for user %d", userID)
	}
}

// Run starts the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				close(existing.send)
			}
			h.clients[client.UserID] = client
			log.Printf("Client registered: user %d", client.UserID)

		case client := <-h.unregister:
			// Only remove the client if it is still the registered one;
			// it may already have been replaced by a newer connection.
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("Client unregistered: user %d", client.UserID)
			}

		case frame := <-h.direct:
			client, ok := h.clients[frame.userID]
			if !ok {
				// User not connected to this hub instance; they will see
				// the durable notification on their next fetch.
				continue
			}
			select {
			case client.send <- frame.payload:
			default:
				log.Printf("Warning: send buffer full for user %d, removing client", frame.userID)
				close(client.send)
				delete(h.clients, frame.userID)
			}
		}
	}
}
