package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/google/uuid"
)

// Service orchestrates chat operations for an authenticated actor. It owns
// every authorization decision; the Store only persists.
type Service struct {
	store   Store
	dir     Directory
	catalog Catalog
	idem    IdempotencyStore
	idemTTL time.Duration
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for chats and messages.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithIdempotency enables send deduplication on client-supplied keys.
func WithIdempotency(store IdempotencyStore, ttl time.Duration) Option {
	return func(s *Service) {
		s.idem = store
		s.idemTTL = ttl
	}
}

func NewService(store Store, dir Directory, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		dir:     dir,
		catalog: catalog,
		idemTTL: 10 * time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// storeErr maps a Store error onto the taxonomy. what names the missing entity.
func storeErr(op, what string, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(what)
	case errors.Is(err, ErrConflict):
		return apperr.Conflict("concurrent update, retry the request")
	}
	logger.With("op", op).Errorf("store: %v", err)
	return apperr.Persistence(op, err)
}

// fetch loads a chat and heals a legacy review status on first touch.
func (s *Service) fetch(ctx context.Context, chatID string) (*model.Chat, error) {
	c, err := s.store.Get(ctx, chatID)
	if err != nil {
		return nil, storeErr("chat.get", "chat", err)
	}
	s.heal(ctx, c)
	return c, nil
}

func (s *Service) heal(ctx context.Context, c *model.Chat) {
	if c.AdminReview == nil {
		return
	}
	legacy := c.AdminReview.Status
	if !c.AdminReview.Normalize() {
		return
	}
	if err := s.store.NormalizeReviewStatus(ctx, c.ID, legacy, c.AdminReview.Status); err != nil {
		// a failed heal must not fail the read
		logger.With("chat", c.ID).Warnf("normalize review status: %v", err)
	}
}

// load returns the chat when actor participates in it. Outsiders get NotFound
// so existence does not leak.
func (s *Service) load(ctx context.Context, actor model.Actor, chatID string) (*model.Chat, error) {
	c, err := s.fetch(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !CanParticipate(actor, c) {
		return nil, apperr.NotFound("chat")
	}
	return c, nil
}

func deny(actor model.Actor, c *model.Chat, capability Capability) error {
	logger.With("chat", c.ID, "actor", actor.ID).Debugf("denied %s", capability)
	return apperr.Forbidden("not allowed to %s", strings.ReplaceAll(capability.String(), "_", " "))
}

// GetChat returns the full chat and advances the caller's read cursor.
func (s *Service) GetChat(ctx context.Context, actor model.Actor, chatID string) (*model.ChatView, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, actor, c); err != nil {
		return nil, err
	}
	return view(c, actor.ID), nil
}

// MarkRead sets the caller's read cursor to now. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, actor model.Actor, chatID string) (*model.ChatSummary, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, actor, c); err != nil {
		return nil, err
	}
	return summarize(c, actor.ID), nil
}

func (s *Service) markRead(ctx context.Context, actor model.Actor, c *model.Chat) error {
	now := s.now()
	if err := s.store.SetLastRead(ctx, c.ID, actor.ID, now); err != nil {
		return storeErr("chat.markRead", "chat", err)
	}
	c.Participant(actor.ID).LastRead = &now
	return nil
}

// ListChats returns the caller's chats as summaries, most recently active first.
func (s *Service) ListChats(ctx context.Context, actor model.Actor, q ListFilter) ([]model.ChatSummary, error) {
	if q.Category != "" && !q.Category.Valid() {
		return nil, apperr.Validation("invalid category %q", string(q.Category))
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, apperr.Validation("invalid type %q", string(q.Type))
	}
	chats, err := s.store.ListForUser(ctx, actor.ID, q)
	if err != nil {
		return nil, storeErr("chat.list", "chat", err)
	}
	out := make([]model.ChatSummary, 0, len(chats))
	for i := range chats {
		c := &chats[i]
		s.heal(ctx, c)
		out = append(out, *summarize(c, actor.ID))
	}
	SortSummaries(out)
	return out, nil
}

func summarize(c *model.Chat, userID string) *model.ChatSummary {
	sum := &model.ChatSummary{Chat: *c, UnreadCount: UnreadCount(c, userID)}
	sum.Messages = nil
	return sum
}

// SortSummaries orders by lastMessage.sentAt descending, then updatedAt
// descending. Chats without messages sort after those with one.
func SortSummaries(list []model.ChatSummary) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].LastMessage, list[j].LastMessage
		switch {
		case a != nil && b != nil && !a.SentAt.Equal(b.SentAt):
			return a.SentAt.After(b.SentAt)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
}

// UpdateChatInput is a partial update; nil fields stay unchanged.
type UpdateChatInput struct {
	Name     *string
	Category *model.Category
	Color    *string
	Settings *SettingsPatch
}

// UpdateChat applies a partial update. Only the creator or a chat admin may do it.
func (s *Service) UpdateChat(ctx context.Context, actor model.Actor, chatID string, in UpdateChatInput) (*model.ChatSummary, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	if !Can(actor, CapUpdateChat, c, nil) {
		return nil, deny(actor, c, CapUpdateChat)
	}

	var p ChatPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		p.Name = &name
	}
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		if color == "" {
			color = model.DefaultColor
		}
		p.Color = &color
	}
	if in.Category != nil {
		cat := *in.Category
		if !cat.Valid() {
			return nil, apperr.Validation("invalid category %q", string(cat))
		}
		if cat.IsSupport() && c.Type == model.ChatTypeDirect {
			return nil, apperr.Validation("direct chats cannot be %s tickets", cat)
		}
		p.Category = &cat
		p.OpenReview = cat.IsSupport()
	}
	p.Settings = in.Settings

	if err := s.store.Update(ctx, c.ID, p, s.now()); err != nil {
		return nil, storeErr("chat.update", "chat", err)
	}
	// reply with the stored chat, other writers may have landed since load
	fresh, err := s.fetch(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return summarize(fresh, actor.ID), nil
}

// ToggleArchive flips settings.isArchived. Any participant may do it.
func (s *Service) ToggleArchive(ctx context.Context, actor model.Actor, chatID string) (*model.ChatSummary, error) {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	archived, err := s.store.ToggleArchive(ctx, c.ID, now)
	if err != nil {
		return nil, storeErr("chat.toggleArchive", "chat", err)
	}
	c.Settings.IsArchived = archived
	c.UpdatedAt = now
	return summarize(c, actor.ID), nil
}

// DeleteChat removes the chat for everyone. Only the creator may do it.
func (s *Service) DeleteChat(ctx context.Context, actor model.Actor, chatID string) error {
	c, err := s.load(ctx, actor, chatID)
	if err != nil {
		return err
	}
	if !Can(actor, CapDeleteChat, c, nil) {
		return deny(actor, c, CapDeleteChat)
	}
	if err := s.store.Delete(ctx, c.ID); err != nil {
		return storeErr("chat.delete", "chat", err)
	}
	logger.With("chat", c.ID, "actor", actor.ID).Infof("chat deleted")
	return nil
}
