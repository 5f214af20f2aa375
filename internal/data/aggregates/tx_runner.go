package aggregates

import (
	"context"
	"time"

	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// TxRunner is the transaction boundary every aggregate write goes through.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
	backoff  time.Duration
}

// NewGormTxRunner runs each body once in a GORM transaction. Nested calls
// on a *gorm.DB that is already a transaction use savepoints.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, attempts: 1}
}

// NewRetryingTxRunner re-runs the whole body when the database reports a
// serialization failure, deadlock or lock timeout. Invariant violations and
// conflicts are returned on the first attempt.
func NewRetryingTxRunner(db *gorm.DB, attempts int, backoff time.Duration) TxRunner {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = 20 * time.Millisecond
	}
	return &gormTxRunner{db: db, attempts: attempts, backoff: backoff}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt == r.attempts || !isTransientTxError(ctx, err) {
			return err
		}
		t := time.NewTimer(time.Duration(attempt) * r.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

func isTransientTxError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return domainagg.IsCode(MapError("aggregate.tx", err), domainagg.CodeRetryable)
}
