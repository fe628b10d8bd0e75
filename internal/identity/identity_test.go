package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eduhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier("secret")
	tok, err := v.Issue("u1", model.RoleAdmin, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/chats", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	a, err := v.Verify(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{ID: "u1", Role: model.RoleAdmin}, a)

	r.Header.Set("Authorization", "Bearer "+tok+"x")
	_, err = v.Verify(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalid)

	other, _ := NewJWTVerifier("other").Issue("u1", model.RoleAdmin, time.Hour)
	r.Header.Set("Authorization", "Bearer "+other)
	_, err = v.Verify(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalid)

	expired, _ := v.Issue("u1", model.RoleStudent, -time.Minute)
	r.Header.Set("Authorization", "Bearer "+expired)
	_, err = v.Verify(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalid)

	r.Header.Del("Authorization")
	_, err = v.Verify(context.Background(), r)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Token == "good" || req.Body == `{"content":"hi"}` {
			_ = json.NewEncoder(w).Encode(validateResponse{UserID: "u2", Role: "instructor"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	v := NewRemoteVerifier(srv.URL, srv.Client())

	r := httptest.NewRequest(http.MethodGet, "/chats", nil)
	r.Header.Set("Authorization", "Bearer good")
	a, err := v.Verify(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, a.Role)

	r.Header.Set("Authorization", "Bearer bad")
	_, err = v.Verify(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalid)

	r = httptest.NewRequest(http.MethodPost, "/chats/c1/messages", strings.NewReader(`{"content":"hi"}`))
	r.Header.Set("X-Session-Id", "s")
	r.Header.Set("X-Timestamp", "1")
	r.Header.Set("X-Signature", "sig")
	a, err = v.Verify(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "u2", a.ID)
	var body map[string]string
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body), "body stays readable for the handler")
	assert.Equal(t, "hi", body["content"])

	_, err = v.Verify(context.Background(), httptest.NewRequest(http.MethodGet, "/chats", nil))
	assert.ErrorIs(t, err, ErrNoCredentials)
}
