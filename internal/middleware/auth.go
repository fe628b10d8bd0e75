package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/identity"
	"github.com/eduhub/internal/logger"
)

// Authenticate проверяет вызывающего через verifier и кладёт model.Actor в контекст.
// Без валидных учётных данных отвечает 401 в формате apperr.
func Authenticate(v identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := v.Verify(r.Context(), r)
			if err != nil {
				msg := "authentication required"
				if !errors.Is(err, identity.ErrNoCredentials) {
					msg = "invalid credentials"
					cred := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
					if cred == "" {
						cred = r.Header.Get("X-Session-Id")
					}
					logger.Debugf("auth rejected %s %s cred=%s: %v", r.Method, r.URL.Path, MaskCredential(cred), err)
				}
				writeError(w, apperr.Unauthenticated(msg))
				return
			}
			// RequestLog стоит выше и видит только исходный контекст
			if rw, ok := w.(*responseWriter); ok {
				rw.actor = a.ID
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}
