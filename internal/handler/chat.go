package handler

import (
	"net/http"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/validator"
	"github.com/go-chi/chi/v5"
)

type ChatHandler struct {
	svc *chat.Service
	v   *validator.Validator
}

func NewChatHandler(svc *chat.Service, v *validator.Validator) *ChatHandler {
	return &ChatHandler{svc: svc, v: v}
}

// ListChats: GET /api/chats?category=&type=&archived=
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	archived, err := queryBool(r, "archived")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.svc.ListChats(r.Context(), a, chat.ListFilter{
		Category: model.Category(q.Get("category")),
		Type:     model.ChatType(q.Get("type")),
		Archived: archived,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.ChatSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetChat returns the full chat and marks it read for the caller.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetChat(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateChat answers 201 for a new chat and 200 when an existing direct chat is returned.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req createChatRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, created, err := h.svc.CreateChat(r.Context(), a, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

func (h *ChatHandler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req updateChatRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.UpdateChat(r.Context(), a, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteChat(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	c, err := h.svc.ToggleArchive(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	c, err := h.svc.MarkRead(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
