package storage

import (
	"context"

	"gorm.io/gorm"
)

// RelationshipTx exposes the repositories bound to one transaction. Ownership
// transfer and group creation touch more than one record and go through this
// boundary so the whole unit commits or rolls back together.
type RelationshipTx interface {
	Memberships() MembershipRepository
	Groups() GroupRepository
}

// TxManager runs a function within a storage transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(tx RelationshipTx) error) error
}

type gormTx struct {
	memberships MembershipRepository
	groups      GroupRepository
}

func (t *gormTx) Memberships() MembershipRepository { return t.memberships }
func (t *gormTx) Groups() GroupRepository           { return t.groups }

type gormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a TxManager over a GORM handle.
func NewGormTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithinTransaction(ctx context.Context, fn func(tx RelationshipTx) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{
			memberships: NewGormMembershipRepository(tx),
			groups:      NewGormGroupRepository(tx),
		})
	})
}
