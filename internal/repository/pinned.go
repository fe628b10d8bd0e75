package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PinnedRepository struct {
	pool *pgxpool.Pool
}

func NewPinnedRepository(pool *pgxpool.Pool) *PinnedRepository {
	return &PinnedRepository{pool: pool}
}

// TogglePin unpins messageID when pinned and pins it otherwise. The message
// must belong to the chat, so the pinned set never references foreign ids.
func (r *PinnedRepository) TogglePin(ctx context.Context, chatID, messageID string) (bool, error) {
	defer logger.DeferLogDuration("pinned.Toggle", time.Now())()
	var pinned bool
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockChat(ctx, tx, chatID); err != nil {
			return err
		}
		ok, err := messageExists(ctx, tx, chatID, messageID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM pinned_messages WHERE chat_id = $1 AND message_id = $2`, chatID, messageID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO pinned_messages (chat_id, message_id) VALUES ($1, $2)`, chatID, messageID,
		); err != nil {
			return err
		}
		pinned = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("pinnedRepo.Toggle: %w", err)
	}
	return pinned, nil
}

func loadPinned(ctx context.Context, q querier, chats map[string]*model.Chat) error {
	rows, err := q.Query(ctx,
		`SELECT chat_id, message_id FROM pinned_messages WHERE chat_id = ANY($1) ORDER BY chat_id, seq`, chatIDs(chats),
	)
	if err != nil {
		return fmt.Errorf("pinned query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var chatID, messageID string
		if err := rows.Scan(&chatID, &messageID); err != nil {
			return fmt.Errorf("pinned scan: %w", err)
		}
		if c := chats[chatID]; c != nil {
			c.PinnedMessages = append(c.PinnedMessages, messageID)
		}
	}
	return rows.Err()
}
