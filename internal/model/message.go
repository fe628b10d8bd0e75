package model

import "time"

// DeletedMessageContent replaces the content of a soft-deleted message.
const DeletedMessageContent = "This message was deleted"

// MaxMessageContentLen is the upper bound on message content, in runes.
const MaxMessageContentLen = 5000

// Formatting flags are display hints only.
type Formatting struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
	Code      bool `json:"code,omitempty"`
}

type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type ContextType string

const (
	ContextCourse  ContextType = "course"
	ContextTopic   ContextType = "topic"
	ContextLesson  ContextType = "lesson"
	ContextContent ContextType = "content"
)

// ContextLink is opaque course-catalog metadata attached to a message.
type ContextLink struct {
	Type      ContextType `json:"type"`
	CourseID  string      `json:"courseId,omitempty"`
	TopicID   string      `json:"topicId,omitempty"`
	LessonID  string      `json:"lessonId,omitempty"`
	ContentID string      `json:"contentId,omitempty"`
	Title     string      `json:"title,omitempty"`
}

// Reaction is one emoji on a message and the users who applied it. Users is never empty.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

type ReadReceipt struct {
	UserID string    `json:"user"`
	ReadAt time.Time `json:"readAt"`
}

type Message struct {
	ID          string        `json:"id"`
	SenderID    string        `json:"sender"`
	Content     string        `json:"content"`
	Formatting  Formatting    `json:"formatting"`
	ReplyToID   string        `json:"replyTo,omitempty"`
	Attachments []Attachment  `json:"attachments"`
	Context     *ContextLink  `json:"context,omitempty"`
	Reactions   []Reaction    `json:"reactions"`
	IsEdited    bool          `json:"isEdited"`
	EditedAt    *time.Time    `json:"editedAt,omitempty"`
	IsDeleted   bool          `json:"isDeleted"`
	DeletedAt   *time.Time    `json:"deletedAt,omitempty"`
	ReadBy      []ReadReceipt `json:"readBy"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ToggleReaction applies or withdraws userID's emoji. An entry whose user set
// becomes empty is removed. Applying it twice restores the original list.
// It reports whether userID holds the reaction afterwards.
func (m *Message) ToggleReaction(emoji, userID string) bool {
	for i := range m.Reactions {
		r := &m.Reactions[i]
		if r.Emoji != emoji {
			continue
		}
		for j, u := range r.Users {
			if u == userID {
				r.Users = append(r.Users[:j:j], r.Users[j+1:]...)
				if len(r.Users) == 0 {
					m.Reactions = append(m.Reactions[:i:i], m.Reactions[i+1:]...)
				}
				return false
			}
		}
		r.Users = append(r.Users, userID)
		return true
	}
	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, Users: []string{userID}})
	return true
}

// Edit replaces the content and stamps the edit time.
func (m *Message) Edit(content string, at time.Time) {
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &at
}

// SoftDelete hides the content behind DeletedMessageContent. Id, sender,
// creation time, reactions and reply linkage stay untouched.
func (m *Message) SoftDelete(at time.Time) {
	m.Content = DeletedMessageContent
	m.IsDeleted = true
	m.DeletedAt = &at
}

// ReplyPreview is the resolved form of Message.ReplyToID returned with message history.
type ReplyPreview struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender"`
	Content   string `json:"content"`
	IsDeleted bool   `json:"isDeleted"`
}

// MessageView is a message with its reply reference resolved.
type MessageView struct {
	Message
	ReplyTo *ReplyPreview `json:"replyToMessage,omitempty"`
}

// PinnedMessage pairs a pinned id with the message it points at.
type PinnedMessage struct {
	MessageID string   `json:"messageId"`
	Message   *Message `json:"message,omitempty"`
}
