package middleware

import (
	"net/http"
	"time"

	"github.com/eduhub/internal/logger"
)

// RequestLog логирует каждый HTTP-запрос: method, path, status, пользователь и время выполнения (асинхронно).
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrap(w)
		next.ServeHTTP(rw, r)
		entry := logger.With("method", r.Method, "path", r.URL.Path, "status", rw.status,
			"duration_ms", time.Since(start).Milliseconds())
		if rw.actor != "" {
			entry = entry.With("actor", rw.actor)
		}
		if rw.status >= http.StatusInternalServerError {
			entry.Warnf("request failed")
			return
		}
		entry.Debugf("request")
	})
}
