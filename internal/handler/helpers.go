package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/middleware"
	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/validator"
)

type errorResponse struct {
	Error *apperr.Error `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

// writeError renders err as {"error": {code, message, details}}. Causes of
// persistence and internal errors go to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.With("method", r.Method, "path", r.URL.Path, "actor", middleware.GetUserID(r.Context())).
			Errorf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: apperr.Public(err)})
}

func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("query parameter %s must be an integer", key)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Validation("query parameter %s must be a boolean", key)
	}
	return b, nil
}

// actor returns the authenticated caller; requests that bypassed Authenticate get 401.
func actor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
	}
	return a, ok
}

// maxBodyBytes bounds request bodies; message content alone is capped far below it.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it. An empty body decodes to
// the zero value, which lets optional-body endpoints share the helper.
func decode(r *http.Request, v *validator.Validator, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid body: %v", err)
	}
	return v.Validate(dst)
}
