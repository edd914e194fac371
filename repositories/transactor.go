package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// executor returns the transaction carried by ctx, or the pool.
func executor(ctx context.Context, db *sql.DB) SQLExecutor {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// forUpdate appends a row lock when running inside a transaction. Outside one the lock
// would be released immediately, so plain reads stay lock-free.
func forUpdate(ctx context.Context, query string) string {
	if txFromContext(ctx) == nil {
		return query
	}
	return query + " FOR UPDATE"
}

type postgresTransactor struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresTransactor(db *sql.DB, logger *zap.Logger) Transactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresTransactor{db: db, logger: logger}
}

func (t *postgresTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (txErr error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPQError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				t.logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", mapPQError(cErr))
		}
	}()

	txErr = fn(context.WithValue(ctx, txKey{}, tx))
	return txErr
}

// NewPostgresStore wires every Postgres repository around one connection pool.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		Transactor:    NewPostgresTransactor(db, logger),
		Tournaments:   NewPostgresTournamentRepository(db),
		Participants:  NewPostgresParticipantRepository(db),
		Members:       NewPostgresMemberRepository(db),
		Matches:       NewPostgresMatchRepository(db),
		Brackets:      NewPostgresBracketRepository(db),
		RatingHistory: NewPostgresRatingHistoryRepository(db),
	}
}
