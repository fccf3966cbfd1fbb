package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/appversion-backend/internal/platform/dbctx"
)

const (
	defaultTxAttempts = 3
	txRetryBackoff    = 25 * time.Millisecond
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

// NewGormTxRunner returns a runner backed by GORM transactions. A transaction
// that fails on lock contention (postgres serialization failure, deadlock or
// lock timeout, sqlite "database is locked") is rolled back and run again,
// up to three attempts. When db is itself a transaction, InTx nests through a
// savepoint and is never retried.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, attempts: defaultTxAttempts, backoff: txRetryBackoff}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return wrap(CodeInternal, "aggregate.tx", errors.New("transaction runner has nil db"))
	}
	attempts := r.attempts
	if attempts < 1 || r.nested() {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || !isLockContention(err) || attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return err
}

func (r *gormTxRunner) nested() bool {
	if r.db.Statement == nil || r.db.Statement.ConnPool == nil {
		return false
	}
	_, inTx := r.db.Statement.ConnPool.(gorm.TxCommitter)
	return inTx
}

func isLockContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
