package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

const chatColumns = `c.id, c.name, c.chat_type, c.category, c.color, c.created_by, COALESCE(c.course_id, ''),
	c.last_message, c.allow_reactions, c.allow_replies, c.allow_attachments, c.is_archived,
	c.review_status, c.review_assigned_to, c.review_resolved_at, c.review_notes, c.created_at, c.updated_at`

func scanChat(s interface{ Scan(dest ...any) error }, c *model.Chat) error {
	var status *string
	review := &model.AdminReview{}
	err := s.Scan(&c.ID, &c.Name, &c.Type, &c.Category, &c.Color, &c.CreatedBy, &c.CourseID,
		&c.LastMessage, &c.Settings.AllowReactions, &c.Settings.AllowReplies, &c.Settings.AllowAttachments, &c.Settings.IsArchived,
		&status, &review.AssignedTo, &review.ResolvedAt, &review.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	if status != nil {
		review.Status = model.ReviewStatus(*status)
		c.AdminReview = review
	}
	c.PinnedMessages = []string{}
	return nil
}

func reviewArgs(r *model.AdminReview) (status *string, assignedTo *string, resolvedAt *time.Time, notes *string) {
	if r == nil {
		return nil, nil, nil, nil
	}
	s := string(r.Status)
	return &s, r.AssignedTo, r.ResolvedAt, r.Notes
}

func (r *ChatRepository) Create(ctx context.Context, c *model.Chat) error {
	defer logger.DeferLogDuration("chat.Create", time.Now())()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return insertChat(ctx, tx, c)
	})
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("chatRepo.Create: %w", err)
	}
	return nil
}

func insertChat(ctx context.Context, tx pgx.Tx, c *model.Chat) error {
	status, assignedTo, resolvedAt, notes := reviewArgs(c.AdminReview)
	var courseID *string
	if c.CourseID != "" {
		courseID = &c.CourseID
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO chats (id, name, chat_type, category, color, created_by, course_id, last_message,
			allow_reactions, allow_replies, allow_attachments, is_archived,
			review_status, review_assigned_to, review_resolved_at, review_notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		c.ID, c.Name, c.Type, c.Category, c.Color, c.CreatedBy, courseID, c.LastMessage,
		c.Settings.AllowReactions, c.Settings.AllowReplies, c.Settings.AllowAttachments, c.Settings.IsArchived,
		status, assignedTo, resolvedAt, notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	for i, p := range c.Participants {
		_, err := tx.Exec(ctx,
			`INSERT INTO chat_participants (chat_id, user_id, position, role, joined_at, last_read, is_muted, color)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, p.UserID, i, p.Role, p.JoinedAt, p.LastRead, p.IsMuted, p.Color,
		)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	for i := range c.Messages {
		if err := insertMessage(ctx, tx, c.ID, &c.Messages[i]); err != nil {
			return err
		}
	}
	for _, id := range c.PinnedMessages {
		if _, err := tx.Exec(ctx, `INSERT INTO pinned_messages (chat_id, message_id) VALUES ($1, $2)`, c.ID, id); err != nil {
			return fmt.Errorf("insert pin: %w", err)
		}
	}
	return nil
}

const findDirectSQL = `SELECT c.id FROM chats c
	WHERE c.chat_type = 'direct'
	  AND EXISTS (SELECT 1 FROM chat_participants p WHERE p.chat_id = c.id AND p.user_id = $1)
	  AND EXISTS (SELECT 1 FROM chat_participants p WHERE p.chat_id = c.id AND p.user_id = $2)
	  AND (SELECT COUNT(*) FROM chat_participants p WHERE p.chat_id = c.id) = 2
	ORDER BY c.created_at
	LIMIT 1`

func findDirectID(ctx context.Context, q querier, a, b string) (string, error) {
	var id string
	err := q.QueryRow(ctx, findDirectSQL, a, b).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (r *ChatRepository) FindDirect(ctx context.Context, a, b string) (*model.Chat, error) {
	defer logger.DeferLogDuration("chat.FindDirect", time.Now())()
	id, err := findDirectID(ctx, r.pool, a, b)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chatRepo.FindDirect: %w", err)
	}
	return r.Get(ctx, id)
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// CreateDirect serializes creators of the same pair on a transaction-scoped
// advisory lock, re-checks for an existing chat and only then inserts c.
func (r *ChatRepository) CreateDirect(ctx context.Context, c *model.Chat, a, b string) (*model.Chat, bool, error) {
	defer logger.DeferLogDuration("chat.CreateDirect", time.Now())()
	var existingID string
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pairKey(a, b)); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		id, err := findDirectID(ctx, tx, a, b)
		if err == nil {
			existingID = id
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		return insertChat(ctx, tx, c)
	})
	if err != nil {
		return nil, false, fmt.Errorf("chatRepo.CreateDirect: %w", err)
	}
	if existingID != "" {
		existing, err := r.Get(ctx, existingID)
		return existing, false, err
	}
	return c, true, nil
}

func (r *ChatRepository) Get(ctx context.Context, id string) (*model.Chat, error) {
	defer logger.DeferLogDuration("chat.Get", time.Now())()
	c := &model.Chat{}
	err := scanChat(r.pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1`, id), c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chatRepo.Get: %w", err)
	}
	chats := map[string]*model.Chat{c.ID: c}
	if err := loadParticipants(ctx, r.pool, chats); err != nil {
		return nil, fmt.Errorf("chatRepo.Get: %w", err)
	}
	if err := loadMessages(ctx, r.pool, chats, true); err != nil {
		return nil, fmt.Errorf("chatRepo.Get: %w", err)
	}
	if err := loadPinned(ctx, r.pool, chats); err != nil {
		return nil, fmt.Errorf("chatRepo.Get: %w", err)
	}
	return c, nil
}

// ListForUser loads message headers only: id, sender and creation time are
// enough for unread counts and list views never carry message bodies.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string, f chat.ListFilter) ([]model.Chat, error) {
	defer logger.DeferLogDuration("chat.ListForUser", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+chatColumns+`
		 FROM chats c
		 JOIN chat_participants me ON me.chat_id = c.id AND me.user_id = $1
		 WHERE c.is_archived = $2
		   AND ($3 = '' OR c.category = $3)
		   AND ($4 = '' OR c.chat_type = $4)`,
		userID, f.Archived, string(f.Category), string(f.Type),
	)
	if err != nil {
		return nil, fmt.Errorf("chatRepo.ListForUser query: %w", err)
	}
	defer rows.Close()

	list := make([]*model.Chat, 0, 16)
	byID := make(map[string]*model.Chat)
	for rows.Next() {
		c := &model.Chat{}
		if err := scanChat(rows, c); err != nil {
			return nil, fmt.Errorf("chatRepo.ListForUser scan: %w", err)
		}
		list = append(list, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatRepo.ListForUser rows: %w", err)
	}
	if len(list) == 0 {
		return []model.Chat{}, nil
	}
	if err := loadParticipants(ctx, r.pool, byID); err != nil {
		return nil, fmt.Errorf("chatRepo.ListForUser: %w", err)
	}
	if err := loadMessages(ctx, r.pool, byID, false); err != nil {
		return nil, fmt.Errorf("chatRepo.ListForUser: %w", err)
	}
	if err := loadPinned(ctx, r.pool, byID); err != nil {
		return nil, fmt.Errorf("chatRepo.ListForUser: %w", err)
	}
	out := make([]model.Chat, len(list))
	for i, c := range list {
		out[i] = *c
	}
	return out, nil
}

func chatIDs(chats map[string]*model.Chat) []string {
	ids := make([]string, 0, len(chats))
	for id := range chats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func loadParticipants(ctx context.Context, q querier, chats map[string]*model.Chat) error {
	rows, err := q.Query(ctx,
		`SELECT chat_id, user_id, role, joined_at, last_read, is_muted, color
		 FROM chat_participants WHERE chat_id = ANY($1)
		 ORDER BY chat_id, position`, chatIDs(chats),
	)
	if err != nil {
		return fmt.Errorf("participants query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var chatID string
		var p model.Participant
		if err := rows.Scan(&chatID, &p.UserID, &p.Role, &p.JoinedAt, &p.LastRead, &p.IsMuted, &p.Color); err != nil {
			return fmt.Errorf("participants scan: %w", err)
		}
		if c := chats[chatID]; c != nil {
			c.Participants = append(c.Participants, p)
		}
	}
	return rows.Err()
}

func (r *ChatRepository) Update(ctx context.Context, id string, p chat.ChatPatch, at time.Time) error {
	defer logger.DeferLogDuration("chat.Update", time.Now())()
	var category *string
	var allowReactions, allowReplies, allowAttachments, archived *bool
	if p.Category != nil {
		s := string(*p.Category)
		category = &s
	}
	if p.Settings != nil {
		allowReactions = p.Settings.AllowReactions
		allowReplies = p.Settings.AllowReplies
		allowAttachments = p.Settings.AllowAttachments
		archived = p.Settings.IsArchived
	}
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE chats SET
				name = COALESCE($2, name),
				category = COALESCE($3, category),
				color = COALESCE($4, color),
				allow_reactions = COALESCE($5, allow_reactions),
				allow_replies = COALESCE($6, allow_replies),
				allow_attachments = COALESCE($7, allow_attachments),
				is_archived = COALESCE($8, is_archived),
				updated_at = $9
			 WHERE id = $1`,
			id, p.Name, category, p.Color, allowReactions, allowReplies, allowAttachments, archived, at,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if p.OpenReview {
			_, err := tx.Exec(ctx,
				`UPDATE chats SET review_status = $2 WHERE id = $1 AND review_status IS NULL`,
				id, string(model.ReviewOpen),
			)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("chatRepo.Update: %w", err)
	}
	return nil
}

func (r *ChatRepository) ToggleArchive(ctx context.Context, id string, at time.Time) (bool, error) {
	defer logger.DeferLogDuration("chat.ToggleArchive", time.Now())()
	var archived bool
	err := r.pool.QueryRow(ctx,
		`UPDATE chats SET is_archived = NOT is_archived, updated_at = $2 WHERE id = $1 RETURNING is_archived`,
		id, at,
	).Scan(&archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("chatRepo.ToggleArchive: %w", err)
	}
	return archived, nil
}

func (r *ChatRepository) Delete(ctx context.Context, id string) error {
	defer logger.DeferLogDuration("chat.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("chatRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChatRepository) SetLastRead(ctx context.Context, chatID, userID string, at time.Time) error {
	defer logger.DeferLogDuration("chat.SetLastRead", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_participants SET last_read = $3 WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID, at,
	)
	if err != nil {
		return fmt.Errorf("chatRepo.SetLastRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateReview re-reads the triage record under the chat row lock, so fn
// always works on the latest stored values.
func (r *ChatRepository) UpdateReview(ctx context.Context, chatID string, fn func(rv *model.AdminReview) error, at time.Time) (*model.AdminReview, error) {
	defer logger.DeferLogDuration("chat.UpdateReview", time.Now())()
	var out *model.AdminReview
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status *string
		rv := &model.AdminReview{}
		err := tx.QueryRow(ctx,
			`SELECT review_status, review_assigned_to, review_resolved_at, review_notes
			 FROM chats WHERE id = $1 FOR UPDATE`, chatID,
		).Scan(&status, &rv.AssignedTo, &rv.ResolvedAt, &rv.Notes)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status == nil {
			rv = model.NewAdminReview()
		} else {
			rv.Status = model.ReviewStatus(*status)
		}
		if err := fn(rv); err != nil {
			return err
		}
		out = rv
		return setReview(ctx, tx, chatID, rv, at)
	})
	if err != nil {
		return nil, fmt.Errorf("chatRepo.UpdateReview: %w", err)
	}
	return out, nil
}

func setReview(ctx context.Context, q querier, chatID string, rv *model.AdminReview, at time.Time) error {
	status, assignedTo, resolvedAt, notes := reviewArgs(rv)
	tag, err := q.Exec(ctx,
		`UPDATE chats SET review_status = $2, review_assigned_to = $3, review_resolved_at = $4, review_notes = $5, updated_at = $6
		 WHERE id = $1`,
		chatID, status, assignedTo, resolvedAt, notes, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeReviewStatus is a conditional write: a status changed since the
// caller read it is left alone.
func (r *ChatRepository) NormalizeReviewStatus(ctx context.Context, chatID string, from, to model.ReviewStatus) error {
	defer logger.DeferLogDuration("chat.NormalizeReviewStatus", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE chats SET review_status = $3 WHERE id = $1 AND review_status = $2`,
		chatID, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("chatRepo.NormalizeReviewStatus: %w", err)
	}
	return nil
}
