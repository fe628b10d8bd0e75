package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
)

// responseWriter запоминает статус ответа, был ли он уже отправлен и id пользователя для RequestLog.
type responseWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
	actor  string
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func wrap(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

// writeError отдаёт ошибку в том же формате, что и handler: {"error": {code, message, details}}.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apperr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]any{"error": apperr.Public(err)})
}

// RecoverJSON при панике в handler логирует её и отдаёт клиенту JSON 500 (если ответ ещё не отправлен).
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrap(w)
		defer func() {
			if p := recover(); p != nil {
				logger.Errorf("panic recovered: %s %s: %v", r.Method, r.URL.Path, p)
				if !rw.wrote {
					writeError(rw, nil)
				}
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
