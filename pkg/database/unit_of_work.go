package database

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork is an atomic group of writes. It receives the transaction
// handle and must run every statement through it; it never begins, commits,
// rolls back or releases anything itself.
type UnitOfWork func(tx *gorm.DB) error

// Transactor is the scoped-acquisition wrapper around a UnitOfWork: it
// checks a connection out of the pool, begins, commits when the work returns
// nil, rolls back on error or panic, and always returns the connection.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) Do(ctx context.Context, work UnitOfWork) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return work(tx)
	})
}

// DB exposes the pool for reads that do not need a transaction.
func (t *Transactor) DB() *gorm.DB {
	return t.db
}
