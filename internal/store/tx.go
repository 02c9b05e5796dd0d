package store

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs a function inside one database transaction. Stores called
// with the context handed to that function take part in the transaction.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(gdb *gorm.DB) *TxManager {
	return &TxManager{db: gdb}
}

// ExecTx commits when fn returns nil and rolls back on error or panic.
func (m *TxManager) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func conn(ctx context.Context, gdb *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return gdb.WithContext(ctx)
}
