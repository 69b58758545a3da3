package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	maxTxAttempts = 3
)

type txKey struct{}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// conn returns the transaction carried by ctx, or the pool.
func conn(ctx context.Context, db *sqlx.DB) queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) repository.Transactor {
	return &transactor{db: db}
}

// WithinTx runs fn in a SERIALIZABLE transaction, retrying the whole unit
// when Postgres aborts it with a serialization failure.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.run(ctx, fn)
		if !isRetryable(err) {
			return err
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("retrying serializable transaction")
	}
	return err
}

func (t *transactor) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isRetryable(err error) bool {
	code := pqCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// isUniqueViolation reports whether err violates the named unique index.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == codeUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

// NewRepositories wires every Postgres repository to db.
func NewRepositories(db *sqlx.DB) *repository.Repositories {
	return &repository.Repositories{
		Tx:                NewTransactor(db),
		Users:             NewUserRepository(db),
		Swipes:            NewSwipeRepository(db),
		Matches:           NewMatchRepository(db),
		Messages:          NewMessageRepository(db),
		Typing:            NewTypingRepository(db),
		Blocks:            NewBlockRepository(db),
		HelpRequests:      NewHelpRequestRepository(db),
		HelpOffers:        NewHelpOfferRepository(db),
		HelpConversations: NewHelpConversationRepository(db),
		HelpMessages:      NewHelpMessageRepository(db),
	}
}
