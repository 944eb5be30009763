package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/config"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
)

func newNotificationFixture(t *testing.T) (*notificationService, *fakeNotificationRepo, *fakeProducer) {
	t.Helper()
	repo := newFakeNotificationRepo()
	producer := &fakeProducer{}
	cfg := config.KafkaConfig{NotificationsTopic: "test-notifications"}
	svc := NewNotificationService(repo, producer, cfg).(*notificationService)
	return svc, repo, producer
}

func TestNotifyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("persists one row and publishes one event", func(t *testing.T) {
		svc, repo, producer := newNotificationFixture(t)
		frozen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return frozen }

		svc.NotifyTransition(ctx, bob, alice, models.NotificationTypeFriendRequest)

		rows := repo.forUser(bob)
		require.Len(t, rows, 1)
		assert.Equal(t, alice, rows[0].FromUserID)
		assert.Equal(t, models.NotificationTypeFriendRequest, rows[0].Type)
		assert.False(t, rows[0].IsRead)

		messages := producer.sent()
		require.Len(t, messages, 1)
		assert.Equal(t, "test-notifications", messages[0].Topic)

		var event NotificationEvent
		require.NoError(t, json.Unmarshal(messages[0].Payload, &event))
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, bob, event.RecipientID)
		assert.Equal(t, alice, event.FromUserID)
		assert.Equal(t, models.NotificationTypeFriendRequest, event.Type)
		assert.True(t, frozen.Equal(event.Timestamp))
	})

	t.Run("does not publish when persistence fails", func(t *testing.T) {
		svc, repo, producer := newNotificationFixture(t)
		repo.createErr = errors.New("disk full")

		svc.NotifyTransition(ctx, bob, alice, models.NotificationTypeGroupInvite)

		assert.Empty(t, producer.sent())
	})

	t.Run("publish failure leaves the persisted row in place", func(t *testing.T) {
		svc, repo, producer := newNotificationFixture(t)
		producer.sendErr = errors.New("broker down")

		svc.NotifyTransition(ctx, bob, alice, models.NotificationTypeGroupInvite)

		assert.Len(t, repo.forUser(bob), 1)
	})
}

func TestListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newNotificationFixture(t)

	svc.NotifyTransition(ctx, bob, alice, models.NotificationTypeFriendRequest)
	svc.NotifyTransition(ctx, bob, carol, models.NotificationTypeGroupInvite)
	svc.NotifyTransition(ctx, carol, alice, models.NotificationTypeFriendRequest)

	inbox, err := svc.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	require.NoError(t, svc.MarkRead(ctx, bob, inbox[0].ID))

	inbox, err = svc.ListForUser(ctx, bob)
	require.NoError(t, err)
	assert.True(t, inbox[0].IsRead)
	assert.False(t, inbox[1].IsRead)

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		err := svc.MarkRead(ctx, alice, inbox[1].ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown notification is not found", func(t *testing.T) {
		err := svc.MarkRead(ctx, bob, 999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("empty inbox lists as empty slice", func(t *testing.T) {
		inbox, err := svc.ListForUser(ctx, uint(42))
		require.NoError(t, err)
		assert.NotNil(t, inbox)
		assert.Empty(t, inbox)
	})
}
