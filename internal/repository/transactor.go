package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactor runs a unit of work inside one database transaction. Repositories
// built on the same *gorm.DB pick the transaction up from the context.
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a GormTransactor.
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *GormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// NoopTransactor runs fn directly. The in-memory store has no rollback; callers
// validate before their first write so a unit of work does not fail halfway.
type NoopTransactor struct{}

// WithinTx calls fn.
func (NoopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
