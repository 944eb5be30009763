package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/joaoc-dev/blueledger-sub001/internal/services"
)

// Deliverer pushes a frame to one user's live connection. Satisfied by
// websocket.Hub.
type Deliverer interface {
	Deliver(userID uint, payload []byte)
}

// refreshFrame is what connected clients receive. It carries no data: the
// client is expected to refetch its notification list.
type refreshFrame struct {
	Event string `json:"event"`
}

// NotificationConsumerLogic forwards notification events from Kafka to the
// recipient's websocket connection, if one exists on this instance.
type NotificationConsumerLogic struct {
	hub Deliverer
}

// NewNotificationConsumerLogic creates a new NotificationConsumerLogic.
func NewNotificationConsumerLogic(hub Deliverer) *NotificationConsumerLogic {
	if hub == nil {
		log.Panic("websocket hub cannot be nil")
	}
	return &NotificationConsumerLogic{hub: hub}
}

// HandleNotificationEvent processes one notification event. Malformed
// messages are skipped (offset committed) rather than retried; a missing
// recipient connection is not an error.
func (h *NotificationConsumerLogic) HandleNotificationEvent(ctx context.Context, msg *kafka.Message) error {
	var event services.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Error unmarshalling notification event (value: %q): %v, skipping.", string(msg.Value), err)
		return nil
	}

	frame, err := json.Marshal(refreshFrame{Event: "notifications:refresh"})
	if err != nil {
		log.Printf("Error marshalling refresh frame for event %s: %v", event.EventID, err)
		return nil
	}

	h.hub.Deliver(event.RecipientID, frame)
	return nil
}
