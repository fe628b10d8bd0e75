package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
)

// SendInput is the body of a new message.
type SendInput struct {
	Content     string
	Formatting  model.Formatting
	ReplyToID   string
	Context     *model.ContextLink
	Attachments []model.Attachment
	// IdempotencyKey deduplicates client retries. Empty disables deduplication.
	IdempotencyKey string
}

func validContent(content string) error {
	if utf8.RuneCountInString(content) > model.MaxMessageContentLen {
		return apperr.Validation("content exceeds %d characters", model.MaxMessageContentLen)
	}
	return nil
}

// newMessage validates in against the current state of c and builds the
// message actor would send. c is not modified.
func (s *Service) newMessage(ctx context.Context, actor model.Actor, c *model.Chat, in SendInput) (*model.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Attachments) == 0 {
		return nil, apperr.Validation("message must have content or attachments")
	}
	if err := validContent(content); err != nil {
		return nil, err
	}

	attachments := make([]model.Attachment, 0, len(in.Attachments))
	if len(in.Attachments) > 0 {
		if !c.Settings.AllowAttachments {
			return nil, apperr.Validation("attachments are disabled in this chat")
		}
		for i, a := range in.Attachments {
			if strings.TrimSpace(a.URL) == "" || strings.TrimSpace(a.Type) == "" {
				return nil, apperr.Validation("attachment %d needs type and url", i)
			}
			attachments = append(attachments, a)
		}
	}

	replyTo := strings.TrimSpace(in.ReplyToID)
	if replyTo != "" {
		if !c.Settings.AllowReplies {
			return nil, apperr.Validation("replies are disabled in this chat")
		}
		if c.Message(replyTo) == nil {
			return nil, apperr.Validation("replyToId does not reference a message in this chat")
		}
	}

	link, err := s.contextLink(ctx, in.Context)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &model.Message{
		ID:          s.newID(),
		SenderID:    actor.ID,
		Content:     content,
		Formatting:  in.Formatting,
		ReplyToID:   replyTo,
		Attachments: attachments,
		Context:     link,
		Reactions:   []model.Reaction{},
		ReadBy:      []model.ReadReceipt{{UserID: actor.ID, ReadAt: now}},
		CreatedAt:   now,
	}, nil
}

// contextLink checks the link type and fills a missing title from the catalog.
// Ids stay opaque: an unknown course leaves the link as given.
func (s *Service) contextLink(ctx context.Context, in *model.ContextLink) (*model.ContextLink, error) {
	if in == nil {
		return nil, nil
	}
	link := *in
	switch link.Type {
	case model.ContextCourse, model.ContextTopic, model.ContextLesson, model.ContextContent:
	default:
		return nil, apperr.Validation("invalid context type %q", string(link.Type))
	}
	if link.Title == "" && link.CourseID != "" && s.catalog != nil {
		if course, err := s.catalog.GetCourse(ctx, link.CourseID); err == nil {
			link.Title = course.Title
		} else if !errors.Is(err, ErrNotFound) {
			logger.With("course", link.CourseID).Warnf("context title lookup: %v", err)
		}
	}
	return &link, nil
}

// SendMessage appends a message from actor. created is false when the
// idempotency key matched an earlier send and that message is returned.
func (s *Service) SendMessage(ctx context.Context, actor model.Actor, chatID string, in SendInput) (*model.Message, bool, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, false, err
	}
	m, err := s.newMessage(ctx, actor, c, in)
	if err != nil {
		return nil, false, err
	}

	key := ""
	if s.idem != nil && in.IdempotencyKey != "" {
		key = "send:" + c.ID + ":" + actor.ID + ":" + in.IdempotencyKey
		existing, reserved, err := s.idem.Reserve(ctx, key, m.ID, s.idemTTL)
		if err != nil {
			return nil, false, apperr.Persistence("chat.send.reserve", err)
		}
		if !reserved {
			prev, err := s.replayed(ctx, c, existing)
			return prev, false, err
		}
	}

	if err := s.store.AppendMessage(ctx, c.ID, m); err != nil {
		if key != "" {
			if rerr := s.idem.Release(ctx, key); rerr != nil {
				logger.With("chat", c.ID).Warnf("release idempotency key: %v", rerr)
			}
		}
		return nil, false, storeErr("chat.send", "chat", err)
	}
	return m, true, nil
}

// replayed finds the message an earlier send with the same key created.
func (s *Service) replayed(ctx context.Context, c *model.Chat, messageID string) (*model.Message, error) {
	if m := c.Message(messageID); m != nil {
		return m, nil
	}
	fresh, err := s.fetch(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if m := fresh.Message(messageID); m != nil {
		return m, nil
	}
	return nil, apperr.Conflict("a message with this idempotency key is still being sent")
}

// message loads the chat for actor and the addressed message in it.
func (s *Service) message(ctx context.Context, actor model.Actor, chatID, messageID string) (*model.Chat, *model.Message, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, nil, err
	}
	m := c.Message(messageID)
	if m == nil {
		return nil, nil, apperr.NotFound("message")
	}
	return c, m, nil
}

// EditMessage replaces the content of actor's own, not deleted, message.
func (s *Service) EditMessage(ctx context.Context, actor model.Actor, chatID, messageID, content string) (*model.Message, error) {
	c, m, err := s.message(ctx, actor, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !Can(actor, CapEditMessage, c, m) {
		return nil, deny(actor, c, CapEditMessage)
	}
	if m.IsDeleted {
		return nil, apperr.Validation("deleted messages cannot be edited")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content must not be empty")
	}
	if err := validContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.EditMessage(ctx, c.ID, m.ID, actor.ID, content, now); err != nil {
		return nil, storeErr("chat.editMessage", "message", err)
	}
	m.Edit(content, now)
	return m, nil
}

// DeleteMessage soft-deletes a message. Deleting twice returns the message unchanged.
func (s *Service) DeleteMessage(ctx context.Context, actor model.Actor, chatID, messageID string) (*model.Message, error) {
	c, m, err := s.message(ctx, actor, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !Can(actor, CapDeleteMessage, c, m) {
		return nil, deny(actor, c, CapDeleteMessage)
	}
	if m.IsDeleted {
		return m, nil
	}
	now := s.now()
	if err := s.store.SoftDeleteMessage(ctx, c.ID, m.ID, now); err != nil {
		return nil, storeErr("chat.deleteMessage", "message", err)
	}
	m.SoftDelete(now)
	return m, nil
}

// ToggleReaction applies or withdraws actor's emoji on a message. Deleted
// messages still accept reactions.
func (s *Service) ToggleReaction(ctx context.Context, actor model.Actor, chatID, messageID, emoji string) (*model.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, apperr.Validation("emoji is required")
	}
	c, m, err := s.message(ctx, actor, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !c.Settings.AllowReactions {
		return nil, apperr.Validation("reactions are disabled in this chat")
	}
	reactions, err := s.store.ToggleReaction(ctx, c.ID, m.ID, emoji, actor.ID)
	if err != nil {
		return nil, storeErr("chat.toggleReaction", "message", err)
	}
	m.Reactions = reactions
	return m, nil
}

// PinResult is the state of the pinned set after a toggle.
type PinResult struct {
	MessageID      string   `json:"messageId"`
	Pinned         bool     `json:"pinned"`
	PinnedMessages []string `json:"pinnedMessages"`
}

// TogglePin pins or unpins a message. Any participant may do it.
func (s *Service) TogglePin(ctx context.Context, actor model.Actor, chatID, messageID string) (*PinResult, error) {
	c, m, err := s.message(ctx, actor, chatID, messageID)
	if err != nil {
		return nil, err
	}
	pinned, err := s.store.TogglePin(ctx, c.ID, m.ID)
	if err != nil {
		return nil, storeErr("chat.togglePin", "message", err)
	}
	if c.IsPinned(m.ID) != pinned {
		c.TogglePin(m.ID)
	}
	return &PinResult{MessageID: m.ID, Pinned: pinned, PinnedMessages: c.PinnedMessages}, nil
}

// PinnedMessages returns the pinned messages in pin order.
func (s *Service) PinnedMessages(ctx context.Context, actor model.Actor, chatID string) ([]model.PinnedMessage, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	out := make([]model.PinnedMessage, 0, len(c.PinnedMessages))
	for _, id := range c.PinnedMessages {
		out = append(out, model.PinnedMessage{MessageID: id, Message: c.Message(id)})
	}
	return out, nil
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// History returns up to limit messages older than the message before (newest
// page when before is empty), oldest first, with reply references resolved.
func (s *Service) History(ctx context.Context, actor model.Actor, chatID string, limit int, before string) ([]model.MessageView, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	end := len(c.Messages)
	if before != "" {
		end = -1
		for i := range c.Messages {
			if c.Messages[i].ID == before {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, apperr.NotFound("message")
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]model.MessageView, 0, end-start)
	for _, m := range c.Messages[start:end] {
		v := model.MessageView{Message: m}
		if m.ReplyToID != "" {
			if ref := c.Message(m.ReplyToID); ref != nil {
				v.ReplyTo = &model.ReplyPreview{ID: ref.ID, SenderID: ref.SenderID, Content: ref.Content, IsDeleted: ref.IsDeleted}
			}
		}
		out = append(out, v)
	}
	return out, nil
}
