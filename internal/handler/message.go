package handler

import (
	"net/http"
	"strings"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/validator"
	"github.com/go-chi/chi/v5"
)

// IdempotencyKeyHeader lets clients retry a send without duplicating the message.
const IdempotencyKeyHeader = "Idempotency-Key"

type MessageHandler struct {
	svc *chat.Service
	v   *validator.Validator
}

func NewMessageHandler(svc *chat.Service, v *validator.Validator) *MessageHandler {
	return &MessageHandler{svc: svc, v: v}
}

// GetMessages: GET /api/chats/{id}/messages?limit=&before=
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", chat.DefaultHistoryLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	messages, err := h.svc.History(r.Context(), a, chi.URLParam(r, "id"), limit, r.URL.Query().Get("before"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []model.MessageView{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage answers 201, or 200 with the original message when the idempotency key was seen before.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	msg, created, err := h.svc.SendMessage(r.Context(), a, chi.URLParam(r, "id"), req.input(key))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, msg)
}

func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req editMessageRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.svc.EditMessage(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "messageId"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	msg, err := h.svc.DeleteMessage(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "messageId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req reactionRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.svc.ToggleReaction(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "messageId"), req.Emoji)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	res, err := h.svc.TogglePin(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "messageId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetPinnedMessages returns pinned messages in pin order.
func (h *MessageHandler) GetPinnedMessages(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	pinned, err := h.svc.PinnedMessages(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pinned == nil {
		pinned = []model.PinnedMessage{}
	}
	writeJSON(w, http.StatusOK, pinned)
}
