// Package memstore is an in-memory chat.Store. Every operation runs under one
// mutex and works on deep copies, so callers never share state with the store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
)

type Store struct {
	mu    sync.Mutex
	chats map[string]*model.Chat
	order []string
}

var _ chat.Store = (*Store)(nil)

func New() *Store {
	return &Store{chats: make(map[string]*model.Chat)}
}

// Put stores c as is, bypassing validation. Tests use it to seed legacy data.
func (s *Store) Put(c *model.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(clone(c))
}

// Raw returns a copy of the stored document without any normalization.
func (s *Store) Raw(id string) (*model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, false
	}
	return clone(c), true
}

// Len is the number of stored chats.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func (s *Store) insert(c *model.Chat) {
	if _, ok := s.chats[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.chats[c.ID] = c
}

func (s *Store) Create(ctx context.Context, c *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.ID]; ok {
		return chat.ErrConflict
	}
	s.insert(clone(c))
	return nil
}

func (s *Store) findDirect(a, b string) *model.Chat {
	for _, id := range s.order {
		c := s.chats[id]
		if c.Type != model.ChatTypeDirect || len(c.Participants) != 2 {
			continue
		}
		if c.HasParticipant(a) && c.HasParticipant(b) {
			return c
		}
	}
	return nil
}

func (s *Store) FindDirect(ctx context.Context, a, b string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findDirect(a, b); c != nil {
		return clone(c), nil
	}
	return nil, chat.ErrNotFound
}

func (s *Store) CreateDirect(ctx context.Context, c *model.Chat, a, b string) (*model.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findDirect(a, b); existing != nil {
		return clone(existing), false, nil
	}
	s.insert(clone(c))
	return clone(c), true, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return clone(c), nil
}

func (s *Store) ListForUser(ctx context.Context, userID string, f chat.ListFilter) ([]model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Chat
	for _, id := range s.order {
		c := s.chats[id]
		if !c.HasParticipant(userID) || c.Settings.IsArchived != f.Archived {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		out = append(out, *clone(c))
	}
	return out, nil
}

// with runs fn on the stored chat under the lock.
func (s *Store) with(id string, fn func(c *model.Chat) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return chat.ErrNotFound
	}
	return fn(c)
}

func (s *Store) Update(ctx context.Context, id string, p chat.ChatPatch, at time.Time) error {
	return s.with(id, func(c *model.Chat) error {
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Category != nil {
			c.Category = *p.Category
		}
		if p.Color != nil {
			c.Color = *p.Color
		}
		p.Settings.Apply(&c.Settings)
		if p.OpenReview && c.AdminReview == nil {
			c.AdminReview = model.NewAdminReview()
		}
		c.UpdatedAt = at
		return nil
	})
}

func (s *Store) ToggleArchive(ctx context.Context, id string, at time.Time) (bool, error) {
	var archived bool
	err := s.with(id, func(c *model.Chat) error {
		c.Settings.IsArchived = !c.Settings.IsArchived
		c.UpdatedAt = at
		archived = c.Settings.IsArchived
		return nil
	})
	return archived, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return chat.ErrNotFound
	}
	delete(s.chats, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) SetLastRead(ctx context.Context, chatID, userID string, at time.Time) error {
	return s.with(chatID, func(c *model.Chat) error {
		p := c.Participant(userID)
		if p == nil {
			return chat.ErrNotFound
		}
		p.LastRead = &at
		return nil
	})
}

func (s *Store) AppendMessage(ctx context.Context, chatID string, m *model.Message) error {
	return s.with(chatID, func(c *model.Chat) error {
		c.Messages = append(c.Messages, cloneMessage(*m))
		c.LastMessage = model.NewLastMessage(m)
		c.UpdatedAt = m.CreatedAt
		return nil
	})
}

func (s *Store) message(chatID, messageID string, fn func(c *model.Chat, m *model.Message) error) error {
	return s.with(chatID, func(c *model.Chat) error {
		m := c.Message(messageID)
		if m == nil {
			return chat.ErrNotFound
		}
		return fn(c, m)
	})
}

func (s *Store) EditMessage(ctx context.Context, chatID, messageID, senderID, content string, at time.Time) error {
	return s.message(chatID, messageID, func(c *model.Chat, m *model.Message) error {
		if m.SenderID != senderID || m.IsDeleted {
			return chat.ErrConflict
		}
		m.Edit(content, at)
		if c.LastMessage.Follows(messageID) {
			c.LastMessage.Content = model.PreviewContent(content)
		}
		return nil
	})
}

func (s *Store) SoftDeleteMessage(ctx context.Context, chatID, messageID string, at time.Time) error {
	return s.message(chatID, messageID, func(c *model.Chat, m *model.Message) error {
		if !m.IsDeleted {
			m.SoftDelete(at)
		}
		if c.LastMessage.Follows(messageID) {
			c.LastMessage.Content = model.DeletedMessageContent
		}
		return nil
	})
}

func (s *Store) ToggleReaction(ctx context.Context, chatID, messageID, emoji, userID string) ([]model.Reaction, error) {
	var out []model.Reaction
	err := s.message(chatID, messageID, func(_ *model.Chat, m *model.Message) error {
		m.ToggleReaction(emoji, userID)
		out = cloneReactions(m.Reactions)
		return nil
	})
	return out, err
}

func (s *Store) TogglePin(ctx context.Context, chatID, messageID string) (bool, error) {
	var pinned bool
	err := s.message(chatID, messageID, func(c *model.Chat, _ *model.Message) error {
		pinned = c.TogglePin(messageID)
		return nil
	})
	return pinned, err
}

func (s *Store) UpdateReview(ctx context.Context, chatID string, fn func(r *model.AdminReview) error, at time.Time) (*model.AdminReview, error) {
	var out *model.AdminReview
	err := s.with(chatID, func(c *model.Chat) error {
		r := model.NewAdminReview()
		if c.AdminReview != nil {
			r = cloneReview(c.AdminReview)
		}
		if err := fn(r); err != nil {
			return err
		}
		c.AdminReview = r
		c.UpdatedAt = at
		out = cloneReview(r)
		return nil
	})
	return out, err
}

func (s *Store) NormalizeReviewStatus(ctx context.Context, chatID string, from, to model.ReviewStatus) error {
	return s.with(chatID, func(c *model.Chat) error {
		if c.AdminReview != nil && c.AdminReview.Status == from {
			c.AdminReview.Status = to
		}
		return nil
	})
}
