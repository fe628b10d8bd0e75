// Package identity resolves the calling user of an HTTP request: a locally
// verified JWT or a call to the external auth service.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eduhub/internal/model"
)

// ErrNoCredentials means the request carries nothing to verify.
var ErrNoCredentials = errors.New("identity: no credentials")

// ErrInvalid means credentials were present but rejected.
var ErrInvalid = errors.New("identity: invalid credentials")

// Verifier resolves the actor behind a request.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) (model.Actor, error)
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func actor(id, role string) (model.Actor, error) {
	a := model.Actor{ID: id, Role: model.PlatformRole(role)}
	if a.ID == "" {
		return model.Actor{}, ErrInvalid
	}
	if a.Role == "" {
		a.Role = model.RoleStudent
	}
	if !a.Role.Valid() {
		return model.Actor{}, ErrInvalid
	}
	return a, nil
}
