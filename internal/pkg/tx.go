package pkg

import (
	"context"
	"fmt"
	"sync/atomic"

	"gorm.io/gorm"
)

type txKey struct{}

var savepointSeq atomic.Uint64

// WithTx runs fn in a transaction. The ctx handed to fn carries the
// transaction, so a WithTx call made with that ctx joins it through a
// savepoint instead of opening a second one: a failing inner fn undoes only
// its own writes and the outermost call decides commit or rollback.
func WithTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if outer, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return nested(ctx, outer, fn)
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(txCtx, tx.WithContext(txCtx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nested(ctx context.Context, tx *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	name := fmt.Sprintf("sp_%d", savepointSeq.Add(1))
	if err := tx.SavePoint(name).Error; err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.RollbackTo(name)
			panic(r)
		}
	}()

	if err := fn(ctx, tx.WithContext(ctx)); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}
	return nil
}

// Conn returns the transaction carried by ctx, or db bound to ctx when
// there is none. Repositories use it so their statements take part in a
// transaction opened further up the call chain.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
