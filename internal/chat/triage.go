package chat

import (
	"strings"
	"time"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/model"
)

// StatusUpdate is the body of a support-status change. Nil fields are not provided.
type StatusUpdate struct {
	Status     *model.ReviewStatus
	Notes      *string
	AssignedTo *string
}

// ApplyStatusUpdate moves r through the support workflow on behalf of actorID.
// Incoming legacy status values are normalized first. An assignee given as an
// empty string clears the assignment. The caller checks that actorID may act
// and that a non-empty assignee exists.
func ApplyStatusUpdate(r *model.AdminReview, actorID string, u StatusUpdate, now time.Time) error {
	r.Normalize()

	var status model.ReviewStatus
	if u.Status != nil {
		status = u.Status.Normalize()
		if !status.Valid() {
			return apperr.Validation("invalid status %q", string(*u.Status)).
				WithDetails(map[string]any{"allowed": []model.ReviewStatus{model.ReviewOpen, model.ReviewInProgress, model.ReviewClosed}})
		}
	}

	switch {
	case u.AssignedTo != nil:
		if a := strings.TrimSpace(*u.AssignedTo); a != "" {
			r.AssignedTo = &a
		} else {
			r.AssignedTo = nil
		}
	case u.Status != nil && status != model.ReviewOpen:
		id := actorID
		r.AssignedTo = &id
	}

	if u.Notes != nil {
		notes := *u.Notes
		r.Notes = &notes
	}

	if u.Status != nil {
		r.Status = status
		switch status {
		case model.ReviewClosed:
			at := now
			r.ResolvedAt = &at
		case model.ReviewOpen:
			r.ResolvedAt = nil
		}
	}
	return nil
}
