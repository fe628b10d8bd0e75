package chat

import (
	"context"
	"strings"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
)

// UpdateSupportStatus changes the triage record of a complaint or suggestion
// chat. Platform admins may act on any ticket, including ones created before
// they joined. Non-admin participants are refused; non-admin outsiders see NotFound.
func (s *Service) UpdateSupportStatus(ctx context.Context, actor model.Actor, chatID string, u StatusUpdate) (*model.ChatSummary, error) {
	c, err := s.fetch(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !CanChangeSupportStatus(actor) {
		if !CanParticipate(actor, c) {
			return nil, apperr.NotFound("chat")
		}
		return nil, deny(actor, c, CapChangeSupportStatus)
	}
	if !c.Category.IsSupport() {
		return nil, apperr.Validation("chat is not a complaint or suggestion ticket")
	}

	if u.AssignedTo != nil {
		if a := strings.TrimSpace(*u.AssignedTo); a != "" {
			if err := s.resolveUsers(ctx, []string{a}); err != nil {
				return nil, err
			}
		}
	}

	now := s.now()
	review, err := s.store.UpdateReview(ctx, c.ID, func(r *model.AdminReview) error {
		return ApplyStatusUpdate(r, actor.ID, u, now)
	}, now)
	if err != nil {
		return nil, storeErr("chat.updateReview", "chat", err)
	}
	c.AdminReview = review
	c.UpdatedAt = now
	logger.With("chat", c.ID, "actor", actor.ID).Infof("support status=%s", review.Status)
	return summarize(c, actor.ID), nil
}
