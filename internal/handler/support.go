package handler

import (
	"net/http"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/validator"
	"github.com/go-chi/chi/v5"
)

type SupportHandler struct {
	svc *chat.Service
	v   *validator.Validator
}

func NewSupportHandler(svc *chat.Service, v *validator.Validator) *SupportHandler {
	return &SupportHandler{svc: svc, v: v}
}

// CreateTicket opens a complaint or suggestion chat with every platform admin.
func (h *SupportHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req supportChatRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.CreateSupportChat(r.Context(), a, chat.SupportChatInput{
		Category: model.Category(req.Category),
		Subject:  req.Subject,
		Message:  req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateStatus changes the triage state of a ticket. Platform admins only.
func (h *SupportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req supportStatusRequest
	if err := decode(r, h.v, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.UpdateSupportStatus(r.Context(), a, chi.URLParam(r, "id"), req.update())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
