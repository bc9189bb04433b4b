package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/VishwasN1706/airis/internal/usecase/conversation"
)

// SessionsHandler exposes the conversation engine over HTTP.
type SessionsHandler struct {
	service *conversation.Service
}

// NewSessionsHandler creates a sessions handler
func NewSessionsHandler(service *conversation.Service) *SessionsHandler {
	return &SessionsHandler{service: service}
}

// CreateSessionRequest is the body for session creation and retargeting.
type CreateSessionRequest struct {
	IP string `json:"ip"`
	// SessionID, when set, retargets an existing session at the new IP
	// instead of creating a fresh one.
	SessionID string `json:"session_id,omitempty"`
}

// SubmitMessageRequest is the body for an operator utterance.
type SubmitMessageRequest struct {
	Text string `json:"text"`
}

// Create handles POST /api/v1/sessions
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := h.service.StartSession(r.Context(), req.SessionID, req.IP)
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyInput) {
			ErrorResponse(w, http.StatusBadRequest, "IP address is required", nil)
			return
		}
		ErrorResponse(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}

	JSONResponse(w, http.StatusCreated, snap)
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.service.GetSession(id)
	if err != nil {
		ErrorResponse(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	JSONResponse(w, http.StatusOK, snap)
}

// SubmitMessage handles POST /api/v1/sessions/{id}/messages.
//
// Blank input is a deliberate no-op and answers 204: nothing was appended,
// nothing will be. A busy session answers 409; input is rejected, not queued.
func (h *SessionsHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SubmitMessageRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	msg, err := h.service.Submit(id, req.Text)
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		ErrorResponse(w, http.StatusNotFound, "Session not found", nil)
		return
	case errors.Is(err, conversation.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, conversation.ErrSessionBusy):
		ErrorResponse(w, http.StatusConflict, "Session is busy, wait for the pending reply", nil)
		return
	case err != nil:
		ErrorResponse(w, http.StatusInternalServerError, "Failed to submit message", err)
		return
	}

	JSONResponse(w, http.StatusAccepted, msg)
}

// Export handles GET /api/v1/sessions/{id}/export. It serves the raw upstream
// lookup document as a JSON attachment named after the session IP.
func (h *SessionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ip, raw, err := h.service.ExportReport(id)
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		ErrorResponse(w, http.StatusNotFound, "Session not found", nil)
		return
	case errors.Is(err, conversation.ErrNoBundle):
		ErrorResponse(w, http.StatusConflict, "No report available for this session yet", nil)
		return
	case err != nil:
		ErrorResponse(w, http.StatusInternalServerError, "Failed to export report", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ip+"-report.json"))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
