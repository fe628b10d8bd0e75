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

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func insertMessage(ctx context.Context, q querier, chatID string, m *model.Message) error {
	attachments, readBy := m.Attachments, m.ReadBy
	if attachments == nil {
		attachments = []model.Attachment{}
	}
	if readBy == nil {
		readBy = []model.ReadReceipt{}
	}
	_, err := q.Exec(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, content, formatting, reply_to, attachments, context, read_by,
			is_edited, edited_at, is_deleted, deleted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID, chatID, m.SenderID, m.Content, m.Formatting, m.ReplyToID, attachments, m.Context, readBy,
		m.IsEdited, m.EditedAt, m.IsDeleted, m.DeletedAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	for _, rc := range m.Reactions {
		for _, u := range rc.Users {
			if _, err := q.Exec(ctx,
				`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
				m.ID, u, rc.Emoji,
			); err != nil {
				return fmt.Errorf("insert reaction: %w", err)
			}
		}
	}
	return nil
}

// AppendMessage inserts m and refreshes the chat's lastMessage snapshot in one
// transaction, holding the chat row lock so sequence order matches send order.
func (r *MessageRepository) AppendMessage(ctx context.Context, chatID string, m *model.Message) error {
	defer logger.DeferLogDuration("message.Append", time.Now())()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockChat(ctx, tx, chatID); err != nil {
			return err
		}
		if err := insertMessage(ctx, tx, chatID, m); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`UPDATE chats SET last_message = $2, updated_at = $3 WHERE id = $1`,
			chatID, model.NewLastMessage(m), m.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("messageRepo.Append: %w", err)
	}
	return nil
}

// messageExists distinguishes "guard failed" from "no such message" after a 0-row update.
func messageExists(ctx context.Context, q querier, chatID, messageID string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1 AND chat_id = $2)`, messageID, chatID,
	).Scan(&ok)
	return ok, err
}

// followSnapshot rewrites lastMessage.content when the snapshot was taken from messageID.
func followSnapshot(ctx context.Context, tx pgx.Tx, chatID, messageID, content string) error {
	_, err := tx.Exec(ctx,
		`UPDATE chats SET last_message = jsonb_set(last_message, '{content}', to_jsonb($3::text))
		 WHERE id = $1 AND last_message->>'messageId' = $2`,
		chatID, messageID, content,
	)
	if err != nil {
		return fmt.Errorf("follow snapshot: %w", err)
	}
	return nil
}

// EditMessage and SoftDeleteMessage hold the chat row lock, like AppendMessage,
// so the message row and the lastMessage snapshot change together.
func (r *MessageRepository) EditMessage(ctx context.Context, chatID, messageID, senderID, content string, at time.Time) error {
	defer logger.DeferLogDuration("message.Edit", time.Now())()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockChat(ctx, tx, chatID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE messages SET content = $4, is_edited = true, edited_at = $5
			 WHERE id = $1 AND chat_id = $2 AND sender_id = $3 AND NOT is_deleted`,
			messageID, chatID, senderID, content, at,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			ok, err := messageExists(ctx, tx, chatID, messageID)
			if err != nil {
				return fmt.Errorf("exists: %w", err)
			}
			if ok {
				return ErrConflict
			}
			return ErrNotFound
		}
		return followSnapshot(ctx, tx, chatID, messageID, model.PreviewContent(content))
	})
	if err != nil {
		return fmt.Errorf("messageRepo.Edit: %w", err)
	}
	return nil
}

func (r *MessageRepository) SoftDeleteMessage(ctx context.Context, chatID, messageID string, at time.Time) error {
	defer logger.DeferLogDuration("message.SoftDelete", time.Now())()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockChat(ctx, tx, chatID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE messages SET content = $3, is_deleted = true, deleted_at = $4
			 WHERE id = $1 AND chat_id = $2 AND NOT is_deleted`,
			messageID, chatID, model.DeletedMessageContent, at,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			ok, err := messageExists(ctx, tx, chatID, messageID)
			if err != nil {
				return fmt.Errorf("exists: %w", err)
			}
			if !ok {
				return ErrNotFound
			}
		}
		return followSnapshot(ctx, tx, chatID, messageID, model.DeletedMessageContent)
	})
	if err != nil {
		return fmt.Errorf("messageRepo.SoftDelete: %w", err)
	}
	return nil
}

// loadMessages fills Messages of every chat in seq order. Without full only
// id, sender and creation time are read.
func loadMessages(ctx context.Context, q querier, chats map[string]*model.Chat, full bool) error {
	ids := chatIDs(chats)
	if !full {
		rows, err := q.Query(ctx,
			`SELECT chat_id, id, sender_id, created_at FROM messages WHERE chat_id = ANY($1) ORDER BY chat_id, seq`, ids,
		)
		if err != nil {
			return fmt.Errorf("message headers query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var chatID string
			var m model.Message
			if err := rows.Scan(&chatID, &m.ID, &m.SenderID, &m.CreatedAt); err != nil {
				return fmt.Errorf("message headers scan: %w", err)
			}
			if c := chats[chatID]; c != nil {
				c.Messages = append(c.Messages, m)
			}
		}
		return rows.Err()
	}

	rows, err := q.Query(ctx,
		`SELECT chat_id, id, sender_id, content, formatting, reply_to, attachments, context, read_by,
			is_edited, edited_at, is_deleted, deleted_at, created_at
		 FROM messages WHERE chat_id = ANY($1) ORDER BY chat_id, seq`, ids,
	)
	if err != nil {
		return fmt.Errorf("messages query: %w", err)
	}
	defer rows.Close()
	byID := make(map[string]*model.Message)
	var order []string
	var owner []string
	var all []model.Message
	for rows.Next() {
		var chatID string
		var m model.Message
		if err := rows.Scan(&chatID, &m.ID, &m.SenderID, &m.Content, &m.Formatting, &m.ReplyToID, &m.Attachments,
			&m.Context, &m.ReadBy, &m.IsEdited, &m.EditedAt, &m.IsDeleted, &m.DeletedAt, &m.CreatedAt); err != nil {
			return fmt.Errorf("messages scan: %w", err)
		}
		m.Reactions = []model.Reaction{}
		all = append(all, m)
		owner = append(owner, chatID)
		order = append(order, m.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("messages rows: %w", err)
	}
	rows.Close()

	for i := range all {
		byID[order[i]] = &all[i]
	}
	if err := loadReactions(ctx, q, order, byID); err != nil {
		return err
	}
	for i := range all {
		if c := chats[owner[i]]; c != nil {
			c.Messages = append(c.Messages, all[i])
		}
	}
	return nil
}
