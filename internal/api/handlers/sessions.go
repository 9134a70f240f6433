package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kuba/mat-tutor-server/internal/logger"
	"github.com/kuba/mat-tutor-server/internal/session"
)

// SessionsHandler serves the session history endpoints.
type SessionsHandler struct {
	store *session.Store
	log   *logger.Logger
}

// NewSessionsHandler creates the sessions handler.
func NewSessionsHandler(store *session.Store, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{store: store, log: log}
}

// List returns recent sessions, most recently active first.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := h.store.List(limit)
	if err != nil {
		h.log.Error("session list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Nie udało się pobrać sesji.")
		return
	}
	if sessions == nil {
		sessions = []session.ChatSession{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sessions": sessions,
	})
}

// Get returns one session record.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.store.Get(id)
	if err != nil {
		h.log.Error("session get failed", "session_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Nie udało się pobrać sesji.")
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "Sesja nie istnieje.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": sess,
	})
}

// Delete removes a session record.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.store.Get(id)
	if err != nil {
		h.log.Error("session get failed", "session_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Nie udało się usunąć sesji.")
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "Sesja nie istnieje.")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.log.Error("session delete failed", "session_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Nie udało się usunąć sesji.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
