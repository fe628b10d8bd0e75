package memstore

import "github.com/eduhub/internal/model"

func clone(c *model.Chat) *model.Chat {
	out := *c
	out.Participants = make([]model.Participant, len(c.Participants))
	for i, p := range c.Participants {
		if p.LastRead != nil {
			t := *p.LastRead
			p.LastRead = &t
		}
		out.Participants[i] = p
	}
	if c.Messages != nil {
		out.Messages = make([]model.Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = cloneMessage(m)
		}
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	out.AdminReview = cloneReview(c.AdminReview)
	out.PinnedMessages = append([]string{}, c.PinnedMessages...)
	return &out
}

func cloneMessage(m model.Message) model.Message {
	m.Attachments = append([]model.Attachment{}, m.Attachments...)
	m.Reactions = cloneReactions(m.Reactions)
	m.ReadBy = append([]model.ReadReceipt{}, m.ReadBy...)
	if m.Context != nil {
		ctx := *m.Context
		m.Context = &ctx
	}
	if m.EditedAt != nil {
		t := *m.EditedAt
		m.EditedAt = &t
	}
	if m.DeletedAt != nil {
		t := *m.DeletedAt
		m.DeletedAt = &t
	}
	return m
}

func cloneReactions(rs []model.Reaction) []model.Reaction {
	out := make([]model.Reaction, len(rs))
	for i, r := range rs {
		out[i] = model.Reaction{Emoji: r.Emoji, Users: append([]string{}, r.Users...)}
	}
	return out
}

func cloneReview(r *model.AdminReview) *model.AdminReview {
	if r == nil {
		return nil
	}
	out := *r
	if r.AssignedTo != nil {
		a := *r.AssignedTo
		out.AssignedTo = &a
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		out.ResolvedAt = &t
	}
	if r.Notes != nil {
		n := *r.Notes
		out.Notes = &n
	}
	return &out
}
