package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/config"
	"github.com/joaoc-dev/blueledger-sub001/internal/kafka"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
	"github.com/joaoc-dev/blueledger-sub001/internal/storage"
)

// NotificationEvent is the envelope published for every qualifying
// transition. The payload is deliberately opaque: it tells the recipient's
// client that something changed and it should refetch its notification
// list, nothing more.
type NotificationEvent struct {
	EventID     string                  `json:"eventId"`
	RecipientID uint                    `json:"recipientId"`
	FromUserID  uint                    `json:"fromUserId"`
	Type        models.NotificationType `json:"type"`
	Timestamp   time.Time               `json:"timestamp"`
}

// NotificationService wraps relationship-creating transitions with their
// mandatory side effect: one durable notification plus one realtime event
// addressed to the counterpart.
type NotificationService interface {
	// NotifyTransition creates the notification record and publishes the
	// realtime event. It never fails the calling transition: persistence
	// and publish failures are downgraded to logged warnings, because a
	// missed notification degrades UX but not correctness.
	NotifyTransition(ctx context.Context, recipientID, fromUserID uint, notificationType models.NotificationType)
	ListForUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
}

type notificationService struct {
	notificationRepo storage.NotificationRepository
	producer         kafka.MessageProducer
	kafkaConfig      config.KafkaConfig
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(
	notificationRepo storage.NotificationRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		producer:         producer,
		kafkaConfig:      cfg,
		now:              time.Now,
	}
}

func (s *notificationService) NotifyTransition(ctx context.Context, recipientID, fromUserID uint, notificationType models.NotificationType) {
	notification := &models.Notification{
		UserID:     recipientID,
		FromUserID: fromUserID,
		Type:       notificationType,
		IsRead:     false,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Warning: failed to persist %s notification for user %d: %v", notificationType, recipientID, err)
		// Without the durable record a refresh ping is pointless.
		return
	}

	event := NotificationEvent{
		EventID:     uuid.NewString(),
		RecipientID: recipientID,
		FromUserID:  fromUserID,
		Type:        notificationType,
		Timestamp:   s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal notification event for user %d: %v", recipientID, err)
		return
	}

	key := []byte(notification.IDString())
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.NotificationsTopic, key, payload); err != nil {
		// The recipient learns about the change on the next poll.
		log.Printf("Warning: failed to publish notification event for user %d: %v", recipientID, err)
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListForUser(ctx, userID, 100)
	if err != nil {
		return nil, apperr.Internalf("listing notifications for user %d: %v", userID, err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	updated, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("notification %d", notificationID)
		}
		return apperr.Internalf("marking notification %d read: %v", notificationID, err)
	}
	if !updated {
		return apperr.NotFoundf("notification %d for user %d", notificationID, userID)
	}
	return nil
}
