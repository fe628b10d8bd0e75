package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReactionRepository struct {
	pool *pgxpool.Pool
}

func NewReactionRepository(pool *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{pool: pool}
}

// ToggleReaction removes the (message, user, emoji) row or inserts it when it
// was absent. The message row lock serializes toggles on one message.
func (r *ReactionRepository) ToggleReaction(ctx context.Context, chatID, messageID, emoji, userID string) ([]model.Reaction, error) {
	defer logger.DeferLogDuration("reaction.Toggle", time.Now())()
	var out []model.Reaction
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM messages WHERE id = $1 AND chat_id = $2 FOR UPDATE`, messageID, chatID,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
			messageID, userID, emoji,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)`,
				messageID, userID, emoji,
			); err != nil {
				return err
			}
		}
		byID := map[string]*model.Message{messageID: {ID: messageID, Reactions: []model.Reaction{}}}
		if err := loadReactions(ctx, tx, []string{messageID}, byID); err != nil {
			return err
		}
		out = byID[messageID].Reactions
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reactionRepo.Toggle: %w", err)
	}
	return out, nil
}

// loadReactions groups reaction rows per emoji, entries ordered by first use.
func loadReactions(ctx context.Context, q querier, messageIDs []string, byID map[string]*model.Message) error {
	if len(messageIDs) == 0 {
		return nil
	}
	rows, err := q.Query(ctx,
		`SELECT message_id, emoji, array_agg(user_id ORDER BY seq)
		 FROM message_reactions
		 WHERE message_id = ANY($1)
		 GROUP BY message_id, emoji
		 ORDER BY message_id, MIN(seq)`, messageIDs,
	)
	if err != nil {
		return fmt.Errorf("reactions query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var messageID string
		var rc model.Reaction
		if err := rows.Scan(&messageID, &rc.Emoji, &rc.Users); err != nil {
			return fmt.Errorf("reactions scan: %w", err)
		}
		if m := byID[messageID]; m != nil {
			m.Reactions = append(m.Reactions, rc)
		}
	}
	return rows.Err()
}
