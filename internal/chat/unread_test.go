package chat

import (
	"testing"
	"time"

	"github.com/eduhub/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestUnreadCount(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := func(id, sender string, at time.Duration) model.Message {
		return model.Message{ID: id, SenderID: sender, CreatedAt: t0.Add(at)}
	}
	c := &model.Chat{
		Participants: []model.Participant{{UserID: "a"}, {UserID: "b"}},
		Messages: []model.Message{
			msg("1", "a", time.Minute),
			msg("2", "b", 2*time.Minute),
			msg("3", "a", 3*time.Minute),
		},
	}

	t.Run("never read excludes own messages", func(t *testing.T) {
		assert.Equal(t, 2, UnreadCount(c, "b"))
		assert.Equal(t, 1, UnreadCount(c, "a"))
	})

	t.Run("cursor counts strictly newer messages", func(t *testing.T) {
		cursor := t0.Add(time.Minute)
		c.Participant("b").LastRead = &cursor
		assert.Equal(t, 1, UnreadCount(c, "b"))

		cursor = t0.Add(3 * time.Minute)
		assert.Equal(t, 0, UnreadCount(c, "b"))
	})

	t.Run("outsider", func(t *testing.T) {
		assert.Equal(t, 0, UnreadCount(c, "z"))
	})
}
