package chat

import "github.com/eduhub/internal/model"

// UnreadCount is the badge shown to userID for c. Messages the user sent
// never count. With no read cursor every other message is unread; otherwise
// only those created strictly after the cursor. Non-participants get 0.
func UnreadCount(c *model.Chat, userID string) int {
	p := c.Participant(userID)
	if p == nil {
		return 0
	}
	n := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderID == userID {
			continue
		}
		if p.LastRead == nil || m.CreatedAt.After(*p.LastRead) {
			n++
		}
	}
	return n
}
