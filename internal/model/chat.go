package model

import "time"

type ChatType string

const (
	ChatTypeDirect  ChatType = "direct"
	ChatTypeGroup   ChatType = "group"
	ChatTypeCourse  ChatType = "course"
	ChatTypeSupport ChatType = "support"
)

func (t ChatType) Valid() bool {
	switch t {
	case ChatTypeDirect, ChatTypeGroup, ChatTypeCourse, ChatTypeSupport:
		return true
	}
	return false
}

type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryQuestion     Category = "question"
	CategoryHomework     Category = "homework"
	CategoryAnnouncement Category = "announcement"
	CategoryComplaint    Category = "complaint"
	CategorySuggestion   Category = "suggestion"
	CategoryOther        Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryQuestion, CategoryHomework, CategoryAnnouncement,
		CategoryComplaint, CategorySuggestion, CategoryOther:
		return true
	}
	return false
}

// IsSupport reports whether chats of this category carry a support ticket.
func (c Category) IsSupport() bool {
	return c == CategoryComplaint || c == CategorySuggestion
}

// DefaultColor is the display tag used when the creator does not pick one.
const DefaultColor = "#3B82F6"

// ChatRole is the chat-scoped role of a participant, distinct from the platform role.
type ChatRole string

const (
	ChatRoleAdmin  ChatRole = "admin"
	ChatRoleMember ChatRole = "member"
)

type Participant struct {
	UserID   string     `json:"user"`
	Role     ChatRole   `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
	LastRead *time.Time `json:"lastRead,omitempty"`
	IsMuted  bool       `json:"isMuted"`
	Color    string     `json:"color,omitempty"`
}

// LastMessage is the denormalized snapshot shown in chat lists.
type LastMessage struct {
	MessageID string    `json:"messageId,omitempty"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	SentAt    time.Time `json:"sentAt"`
}

// LastMessagePreviewLen caps LastMessage.Content, in runes.
const LastMessagePreviewLen = 100

// PreviewContent cuts content to LastMessagePreviewLen runes.
func PreviewContent(content string) string {
	if r := []rune(content); len(r) > LastMessagePreviewLen {
		return string(r[:LastMessagePreviewLen])
	}
	return content
}

// NewLastMessage builds the list-view snapshot for a freshly sent message.
func NewLastMessage(m *Message) *LastMessage {
	return &LastMessage{MessageID: m.ID, Content: PreviewContent(m.Content), Sender: m.SenderID, SentAt: m.CreatedAt}
}

// Follows reports whether the snapshot was taken from message id.
func (l *LastMessage) Follows(id string) bool {
	return l != nil && l.MessageID != "" && l.MessageID == id
}

type Settings struct {
	AllowReactions   bool `json:"allowReactions"`
	AllowReplies     bool `json:"allowReplies"`
	AllowAttachments bool `json:"allowAttachments"`
	IsArchived       bool `json:"isArchived"`
}

// DefaultSettings returns the settings every new chat starts with.
func DefaultSettings() Settings {
	return Settings{AllowReactions: true, AllowReplies: true, AllowAttachments: true}
}

type Chat struct {
	ID             string        `json:"id"`
	Name           string        `json:"name,omitempty"`
	Type           ChatType      `json:"type"`
	Category       Category      `json:"category"`
	Color          string        `json:"color"`
	Participants   []Participant `json:"participants"`
	CreatedBy      string        `json:"createdBy"`
	CourseID       string        `json:"course,omitempty"`
	Messages       []Message     `json:"messages,omitempty"`
	LastMessage    *LastMessage  `json:"lastMessage,omitempty"`
	Settings       Settings      `json:"settings"`
	AdminReview    *AdminReview  `json:"adminReview,omitempty"`
	PinnedMessages []string      `json:"pinnedMessages"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Participant returns the membership record of userID, or nil.
func (c *Chat) Participant(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

func (c *Chat) HasParticipant(userID string) bool {
	return c.Participant(userID) != nil
}

// ParticipantIDs returns participant user ids in membership order.
func (c *Chat) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Message returns the message with the given id, or nil.
func (c *Chat) Message(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

func (c *Chat) IsPinned(messageID string) bool {
	for _, id := range c.PinnedMessages {
		if id == messageID {
			return true
		}
	}
	return false
}

// TogglePin adds messageID to the pinned set when absent and removes it when present.
// It reports whether the message is pinned afterwards.
func (c *Chat) TogglePin(messageID string) bool {
	for i, id := range c.PinnedMessages {
		if id == messageID {
			c.PinnedMessages = append(c.PinnedMessages[:i:i], c.PinnedMessages[i+1:]...)
			return false
		}
	}
	c.PinnedMessages = append(c.PinnedMessages, messageID)
	return true
}

// ChatSummary is the list view of a chat: no message array, plus the caller's unread badge.
type ChatSummary struct {
	Chat
	UnreadCount int `json:"unreadCount"`
}

// ChatView is the full chat returned to a participant.
type ChatView struct {
	Chat
	UnreadCount int `json:"unreadCount"`
}
