package chat

import (
	"testing"
	"time"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(s model.ReviewStatus) *model.ReviewStatus { return &s }
func str(s string) *string { return &s }

func TestApplyStatusUpdateLifecycle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := model.NewAdminReview()

	require.NoError(t, ApplyStatusUpdate(r, "admin1", StatusUpdate{Status: status(model.ReviewInProgress)}, now))
	assert.Equal(t, model.ReviewInProgress, r.Status)
	require.NotNil(t, r.AssignedTo)
	assert.Equal(t, "admin1", *r.AssignedTo)
	assert.Nil(t, r.ResolvedAt)

	require.NoError(t, ApplyStatusUpdate(r, "admin2", StatusUpdate{Status: status(model.ReviewClosed), Notes: str("done")}, now))
	require.NotNil(t, r.ResolvedAt)
	assert.Equal(t, now, *r.ResolvedAt)
	assert.Equal(t, "admin2", *r.AssignedTo)
	assert.Equal(t, "done", *r.Notes)

	require.NoError(t, ApplyStatusUpdate(r, "admin1", StatusUpdate{Status: status(model.ReviewOpen)}, now))
	assert.Equal(t, model.ReviewOpen, r.Status)
	assert.Nil(t, r.ResolvedAt)
	assert.Equal(t, "admin2", *r.AssignedTo, "reopening keeps the assignee")
}

func TestApplyStatusUpdateAssignee(t *testing.T) {
	now := time.Now()
	r := model.NewAdminReview()

	require.NoError(t, ApplyStatusUpdate(r, "admin1", StatusUpdate{Status: status(model.ReviewInProgress), AssignedTo: str("admin2")}, now))
	assert.Equal(t, "admin2", *r.AssignedTo)

	require.NoError(t, ApplyStatusUpdate(r, "admin1", StatusUpdate{AssignedTo: str("")}, now))
	assert.Nil(t, r.AssignedTo)
	assert.Equal(t, model.ReviewInProgress, r.Status)
}

func TestApplyStatusUpdateLegacyAndInvalid(t *testing.T) {
	now := time.Now()
	r := &model.AdminReview{Status: "in_review"}

	require.NoError(t, ApplyStatusUpdate(r, "admin1", StatusUpdate{Status: status("resolved")}, now))
	assert.Equal(t, model.ReviewClosed, r.Status)
	assert.NotNil(t, r.ResolvedAt)

	before := *r
	err := ApplyStatusUpdate(r, "admin1", StatusUpdate{Status: status("escalated"), Notes: str("x")}, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, before, *r)
}
