package repository

import (
	"context"
	"errors"

	"github.com/eduhub/internal/chat"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinels shared with the in-memory store.
var (
	ErrNotFound = chat.ErrNotFound
	ErrConflict = chat.ErrConflict
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// inTx runs fn in a transaction and commits when fn returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockChat takes the row lock that serializes writers of one chat.
func lockChat(ctx context.Context, tx pgx.Tx, chatID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM chats WHERE id = $1 FOR UPDATE`, chatID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Store is the Postgres chat.Store, composed of the per-table repositories.
type Store struct {
	*ChatRepository
	*MessageRepository
	*ReactionRepository
	*PinnedRepository
}

var _ chat.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		ChatRepository:     NewChatRepository(pool),
		MessageRepository:  NewMessageRepository(pool),
		ReactionRepository: NewReactionRepository(pool),
		PinnedRepository:   NewPinnedRepository(pool),
	}
}
