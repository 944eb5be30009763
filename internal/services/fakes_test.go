package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/joaoc-dev/blueledger-sub001/internal/models"
	"github.com/joaoc-dev/blueledger-sub001/internal/storage"
)

// The fakes below are in-memory repository implementations. They emulate the
// behaviors the services lean on: unique indexes surface as
// gorm.ErrDuplicatedKey, missing rows as gorm.ErrRecordNotFound, and
// conditional updates report whether the precondition still held. A mutex
// makes them safe for the interleaving tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo(ids ...uint) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, id := range ids {
		u := &models.User{Username: "user"}
		u.ID = id
		r.users[id] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetBasicInfoByID(_ context.Context, id uint) (*models.UserBasicInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.UserBasicInfo{ID: u.ID, Username: u.Username, Nickname: u.Nickname}, nil
}

func (r *fakeUserRepo) GetMultipleBasicInfoByIDs(ctx context.Context, ids []uint) ([]*models.UserBasicInfo, error) {
	infos := make([]*models.UserBasicInfo, 0, len(ids))
	for _, id := range ids {
		info, err := r.GetBasicInfoByID(ctx, id)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

type fakeFriendshipRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Friendship
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{nextID: 1, rows: make(map[uint]*models.Friendship)}
}

func (r *fakeFriendshipRepo) Create(_ context.Context, friendship *models.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserLoID == friendship.UserLoID && row.UserHiID == friendship.UserHiID {
			return gorm.ErrDuplicatedKey
		}
	}
	friendship.ID = r.nextID
	r.nextID++
	copied := *friendship
	r.rows[friendship.ID] = &copied
	return nil
}

func (r *fakeFriendshipRepo) GetByID(_ context.Context, id uint) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeFriendshipRepo) FindByPair(_ context.Context, userA, userB uint) (*models.Friendship, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserLoID == lo && row.UserHiID == hi {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendshipRepo) UpdateIf(_ context.Context, id uint, expected models.FriendshipStatus, patch map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != expected {
		return false, nil
	}
	applyFriendshipPatch(row, patch)
	return true, nil
}

func applyFriendshipPatch(row *models.Friendship, patch map[string]interface{}) {
	for column, value := range patch {
		switch column {
		case "status":
			row.Status = value.(models.FriendshipStatus)
		case "requester_id":
			row.RequesterID = value.(uint)
		case "recipient_id":
			row.RecipientID = value.(uint)
		case "accepted_at":
			if value == nil {
				row.AcceptedAt = nil
			} else {
				t := value.(time.Time)
				row.AcceptedAt = &t
			}
		}
	}
}

func (r *fakeFriendshipRepo) ListAcceptedForUser(_ context.Context, userID uint) ([]models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Friendship
	for _, row := range r.rows {
		if row.Status == models.FriendshipStatusAccepted && row.Involves(userID) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeFriendshipRepo) ListPendingForRecipient(_ context.Context, userID uint) ([]models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Friendship
	for _, row := range r.rows {
		if row.Status == models.FriendshipStatusPending && row.RecipientID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeMembershipRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.GroupMembership

	// updateRoleErr, when non-nil, fires on the updateRoleErrAt-th call to
	// UpdateRoleIf and simulates a crash in the middle of a transfer.
	updateRoleErr   error
	updateRoleErrAt int
	updateRoleCalls int
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{nextID: 1, rows: make(map[uint]*models.GroupMembership)}
}

func (r *fakeMembershipRepo) Create(_ context.Context, membership *models.GroupMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GroupID == membership.GroupID && row.UserID == membership.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	membership.ID = r.nextID
	r.nextID++
	copied := *membership
	r.rows[membership.ID] = &copied
	return nil
}

func (r *fakeMembershipRepo) GetByID(_ context.Context, id uint) (*models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeMembershipRepo) Find(_ context.Context, groupID, userID uint) (*models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GroupID == groupID && row.UserID == userID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMembershipRepo) UpdateIf(_ context.Context, id uint, expected models.MembershipStatus, patch map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != expected {
		return false, nil
	}
	applyMembershipPatch(row, patch)
	return true, nil
}

func applyMembershipPatch(row *models.GroupMembership, patch map[string]interface{}) {
	for column, value := range patch {
		switch column {
		case "status":
			row.Status = value.(models.MembershipStatus)
		case "role":
			row.Role = value.(models.MembershipRole)
		case "invited_by_id":
			row.InvitedByID = value.(uint)
		case "accepted_at":
			if value == nil {
				row.AcceptedAt = nil
			} else {
				t := value.(time.Time)
				row.AcceptedAt = &t
			}
		}
	}
}

func (r *fakeMembershipRepo) UpdateRoleIf(_ context.Context, id uint, expected, next models.MembershipRole) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateRoleCalls++
	if r.updateRoleErr != nil && r.updateRoleCalls == r.updateRoleErrAt {
		return false, r.updateRoleErr
	}
	row, ok := r.rows[id]
	if !ok || row.Role != expected || row.Status != models.MembershipStatusAccepted {
		return false, nil
	}
	row.Role = next
	return true, nil
}

func (r *fakeMembershipRepo) GetAcceptedOwner(_ context.Context, groupID uint) (*models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GroupID == groupID && row.Role == models.RoleOwner && row.Status == models.MembershipStatusAccepted {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMembershipRepo) CountAcceptedOwners(_ context.Context, groupID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.GroupID == groupID && row.Role == models.RoleOwner && row.Status == models.MembershipStatusAccepted {
			count++
		}
	}
	return count, nil
}

func (r *fakeMembershipRepo) ListByGroup(_ context.Context, groupID uint) ([]models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GroupMembership
	for _, row := range r.rows {
		if row.GroupID == groupID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) ListAcceptedForUser(_ context.Context, userID uint) ([]models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GroupMembership
	for _, row := range r.rows {
		if row.UserID == userID && row.Status == models.MembershipStatusAccepted {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeGroupRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Group

	// updateOwnerErr, when non-nil, fails the next UpdateOwnerID call and
	// is then cleared. Simulates a crash before the pointer rebuild.
	updateOwnerErr error
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{nextID: 1, rows: make(map[uint]*models.Group)}
}

func (r *fakeGroupRepo) Create(_ context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.ID = r.nextID
	r.nextID++
	copied := *group
	r.rows[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id uint) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeGroupRepo) UpdateOwnerID(_ context.Context, groupID, ownerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateOwnerErr != nil {
		err := r.updateOwnerErr
		r.updateOwnerErr = nil
		return err
	}
	row, ok := r.rows[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.OwnerID = ownerID
	return nil
}

func (r *fakeGroupRepo) GetByIDs(_ context.Context, ids []uint) ([]models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Group
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	nextID    uint
	rows      []*models.Notification
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = r.nextID
	r.nextID++
	copied := *notification
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeNotificationRepo) ListForUser(_ context.Context, userID uint, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, row := range r.rows {
		if row.UserID == userID && len(out) < limit {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, userID, notificationID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == notificationID && row.UserID == userID {
			row.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) forUser(userID uint) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out
}

type producedMessage struct {
	Topic   string
	Key     []byte
	Payload []byte
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []producedMessage
	sendErr  error
}

func (p *fakeProducer) SendMessage(_ context.Context, topic string, key, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.messages = append(p.messages, producedMessage{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (p *fakeProducer) Close() {}

func (p *fakeProducer) sent() []producedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]producedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// fakeTx runs the transaction function directly against the shared fakes
// with no atomicity or rollback. That is deliberate: it lets tests observe
// the state a crash mid-transaction would leave behind and assert that a
// retry converges.
type fakeTx struct {
	memberships storage.MembershipRepository
	groups      storage.GroupRepository
}

func (t *fakeTx) Memberships() storage.MembershipRepository { return t.memberships }
func (t *fakeTx) Groups() storage.GroupRepository           { return t.groups }

type fakeTxManager struct {
	memberships storage.MembershipRepository
	groups      storage.GroupRepository
}

func (m *fakeTxManager) WithinTransaction(_ context.Context, fn func(tx storage.RelationshipTx) error) error {
	return fn(&fakeTx{memberships: m.memberships, groups: m.groups})
}

// recordingNotifier captures NotifyTransition calls for services under test
// that treat notification delivery as fire-and-forget.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	RecipientID uint
	FromUserID  uint
	Type        models.NotificationType
}

func (n *recordingNotifier) NotifyTransition(_ context.Context, recipientID, fromUserID uint, notificationType models.NotificationType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{RecipientID: recipientID, FromUserID: fromUserID, Type: notificationType})
}

func (n *recordingNotifier) ListForUser(context.Context, uint) ([]models.Notification, error) {
	return nil, nil
}

func (n *recordingNotifier) MarkRead(context.Context, uint, uint) error { return nil }

func (n *recordingNotifier) recorded() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifyCall, len(n.calls))
	copy(out, n.calls)
	return out
}
