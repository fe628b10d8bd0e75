package validator

import (
	"testing"

	"github.com/eduhub/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	URL string `json:"url" validate:"required"`
}

type request struct {
	Type     string  `json:"type" validate:"required,chattype"`
	Category string  `json:"category" validate:"omitempty,category"`
	Status   *string `json:"status" validate:"omitempty,reviewstatus"`
	Items    []item  `json:"items" validate:"dive"`
}

func TestValidate(t *testing.T) {
	v := New()

	legacy := "pending"
	require.NoError(t, v.Validate(request{Type: "group", Category: "homework", Status: &legacy}))

	bad := "escalated"
	err := v.Validate(request{Type: "channel", Category: "memes", Status: &bad, Items: []item{{}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	details, ok := e.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "type")
	assert.Contains(t, details, "category")
	assert.Contains(t, details, "status")
	assert.Equal(t, "is required", details["items[0].url"])
}

func TestValidateRequired(t *testing.T) {
	err := New().Validate(request{})
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, map[string]string{"type": "is required"}, e.Details)
}
