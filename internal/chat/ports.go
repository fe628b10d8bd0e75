// Package chat implements the messaging core of the platform: chat creation with
// direct-chat dedup, the message lifecycle, read cursors and unread badges, and
// the support-ticket triage workflow. Persistence and user lookups are reached
// through the interfaces in this file.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/eduhub/internal/model"
)

// Store-level sentinels. Implementations return them (possibly wrapped) and the
// service maps them onto apperr kinds.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("write conflict")
)

// ListFilter narrows ListForUser. Empty Category/Type match everything.
type ListFilter struct {
	Category model.Category
	Type     model.ChatType
	Archived bool
}

// SettingsPatch is a partial update of model.Settings.
type SettingsPatch struct {
	AllowReactions   *bool `json:"allowReactions"`
	AllowReplies     *bool `json:"allowReplies"`
	AllowAttachments *bool `json:"allowAttachments"`
	IsArchived       *bool `json:"isArchived"`
}

// Apply writes the set fields onto s.
func (p *SettingsPatch) Apply(s *model.Settings) {
	if p == nil {
		return
	}
	if p.AllowReactions != nil {
		s.AllowReactions = *p.AllowReactions
	}
	if p.AllowReplies != nil {
		s.AllowReplies = *p.AllowReplies
	}
	if p.AllowAttachments != nil {
		s.AllowAttachments = *p.AllowAttachments
	}
	if p.IsArchived != nil {
		s.IsArchived = *p.IsArchived
	}
}

// ChatPatch is a partial update of chat-level fields. Nil fields are left
// unchanged, down to the individual settings flags.
type ChatPatch struct {
	Name     *string
	Category *model.Category
	Color    *string
	Settings *SettingsPatch
	// OpenReview starts an open triage record unless the chat already has one.
	OpenReview bool
}

// Store persists chats. Every mutating method is atomic on its own: it touches
// only the sub-document it names, so concurrent writers to different parts of
// the same chat never overwrite each other.
type Store interface {
	Create(ctx context.Context, c *model.Chat) error
	// FindDirect returns the direct chat whose participant set is exactly {a, b}.
	FindDirect(ctx context.Context, a, b string) (*model.Chat, error)
	// CreateDirect re-checks for an existing direct chat between a and b and
	// creates c only when none exists, serialized per user pair.
	CreateDirect(ctx context.Context, c *model.Chat, a, b string) (*model.Chat, bool, error)
	Get(ctx context.Context, id string) (*model.Chat, error)
	// ListForUser returns the chats userID participates in. Messages carry at
	// least id, sender and creation time so unread counts can be derived.
	ListForUser(ctx context.Context, userID string, f ListFilter) ([]model.Chat, error)
	Update(ctx context.Context, id string, p ChatPatch, at time.Time) error
	ToggleArchive(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error

	SetLastRead(ctx context.Context, chatID, userID string, at time.Time) error
	// AppendMessage appends m and refreshes the lastMessage snapshot in one step.
	AppendMessage(ctx context.Context, chatID string, m *model.Message) error
	// EditMessage fails with ErrConflict unless senderID sent the message and it
	// is not deleted. A lastMessage snapshot taken from the message follows the edit.
	EditMessage(ctx context.Context, chatID, messageID, senderID, content string, at time.Time) error
	// SoftDeleteMessage also masks a lastMessage snapshot taken from the message.
	SoftDeleteMessage(ctx context.Context, chatID, messageID string, at time.Time) error
	ToggleReaction(ctx context.Context, chatID, messageID, emoji, userID string) ([]model.Reaction, error)
	TogglePin(ctx context.Context, chatID, messageID string) (bool, error)
	// UpdateReview runs fn on the stored triage record (a fresh open one when
	// the chat has none) while holding the chat, and saves what fn leaves.
	// An error from fn aborts the update and is returned as is.
	UpdateReview(ctx context.Context, chatID string, fn func(r *model.AdminReview) error, at time.Time) (*model.AdminReview, error)
	// NormalizeReviewStatus rewrites the stored status to to only while it still equals from.
	NormalizeReviewStatus(ctx context.Context, chatID string, from, to model.ReviewStatus) error
}

// Directory is the platform user directory.
type Directory interface {
	// GetUsers resolves ids; ids that do not exist are absent from the result.
	GetUsers(ctx context.Context, ids []string) (map[string]model.User, error)
	ListByRole(ctx context.Context, role model.PlatformRole) ([]model.User, error)
}

// Catalog resolves course references. GetCourse returns ErrNotFound for unknown ids.
type Catalog interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
}

// IdempotencyStore remembers which message a client retry key produced.
// Reserve stores value under key when the key is free and reports the value
// already held otherwise.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (existing string, reserved bool, err error)
	Release(ctx context.Context, key string) error
}
