package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTxManager runs functions inside a single database transaction. The
// transaction handle travels in the context, so repository calls made with
// the inner context join the same atomic unit.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithTx executes fn inside a transaction. A returned error rolls the
// transaction back; nil commits it.
func (m *GormTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transaction carried by ctx, or the fallback handle when
// no transaction is in flight.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
