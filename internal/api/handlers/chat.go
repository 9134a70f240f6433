package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kuba/mat-tutor-server/internal/logger"
	"github.com/kuba/mat-tutor-server/internal/session"
	"github.com/kuba/mat-tutor-server/internal/tutor"
)

// TurnRunner runs one chat turn through the policy pipeline.
type TurnRunner interface {
	HandleChatTurn(ctx context.Context, req tutor.TurnRequest) *tutor.TurnResult
}

// SessionGovernor owns the session lifecycle around a turn.
type SessionGovernor interface {
	OpenOrCreate(id, name, topic string) (*session.ChatSession, error)
	Admit(sess *session.ChatSession) error
	RecordExchange(sess *session.ChatSession, tokens int) error
	End(sess *session.ChatSession, reason session.EndReason) error
}

// ChatHandler serves POST /api/chat. It owns the session lifecycle
// around a turn; the orchestrator owns everything inside it.
type ChatHandler struct {
	runner   TurnRunner
	governor SessionGovernor
	log      *logger.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(runner TurnRunner, governor SessionGovernor, log *logger.Logger) *ChatHandler {
	return &ChatHandler{runner: runner, governor: governor, log: log}
}

type chatRequest struct {
	Message     string                `json:"message"`
	History     []session.Message     `json:"history"`
	StudentData *tutor.StudentProfile `json:"studentData"`
	Subject     string                `json:"subject"`
	SessionID   string                `json:"sessionId"`
	SessionName string                `json:"sessionName"`
}

type rateLimitInfo struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

type chatResponse struct {
	Success        bool            `json:"success"`
	Response       string          `json:"response,omitempty"`
	Error          string          `json:"error,omitempty"`
	ShouldRedirect bool            `json:"shouldRedirect,omitempty"`
	LimitExceeded  bool            `json:"limitExceeded,omitempty"`
	SessionEnded   bool            `json:"sessionEnded,omitempty"`
	RateLimit      *rateLimitInfo  `json:"rateLimit,omitempty"`
	Metadata       *tutor.Metadata `json:"metadata,omitempty"`
}

// Handle processes one chat turn.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Nieprawidłowe żądanie.")
		return
	}

	var sess *session.ChatSession
	if req.SessionID != "" {
		var err error
		sess, err = h.governor.OpenOrCreate(req.SessionID, req.SessionName, topicOf(req.StudentData))
		if err != nil {
			h.log.Error("session open failed", "session_id", req.SessionID, "error", err)
			respondError(w, http.StatusInternalServerError, "Wystąpił błąd serwera. Spróbuj ponownie.")
			return
		}
		if err := h.governor.Admit(sess); err != nil {
			if !isAdmissionRejection(err) {
				// A store failure inside Admit is a server fault, not a
				// full session.
				h.log.Error("session admission failed", "session_id", req.SessionID, "error", err)
				respondError(w, http.StatusInternalServerError, "Wystąpił błąd serwera. Spróbuj ponownie.")
				return
			}
			respondJSON(w, http.StatusTooManyRequests, chatResponse{
				Error:         admissionMessage(err),
				LimitExceeded: true,
				SessionEnded:  true,
			})
			return
		}
	}

	turn := tutor.TurnRequest{
		Message:   req.Message,
		History:   req.History,
		Subject:   req.Subject,
		SessionID: req.SessionID,
	}
	if req.StudentData != nil {
		turn.Student = *req.StudentData
	}

	res := h.runner.HandleChatTurn(r.Context(), turn)

	rl := &rateLimitInfo{Remaining: res.RateRemaining, Limit: res.RateLimit}

	if !res.Success {
		status := http.StatusBadRequest
		switch {
		case res.Blocked:
			status = http.StatusForbidden
		case res.LimitExceeded:
			status = http.StatusTooManyRequests
		}
		respondJSON(w, status, chatResponse{
			Error:         res.Error,
			LimitExceeded: res.LimitExceeded,
			RateLimit:     rl,
		})
		return
	}

	sessionEnded := false
	if sess != nil {
		if res.ShouldRedirect {
			if err := h.governor.End(sess, session.EndReasonTopicMismatch); err != nil {
				h.log.Error("session end failed", "session_id", sess.ID, "error", err)
			}
			sessionEnded = true
		} else if res.Metadata != nil {
			if err := h.governor.RecordExchange(sess, res.Metadata.TotalTokens); err != nil {
				h.log.Error("exchange record failed", "session_id", sess.ID, "error", err)
			}
		}
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Success:        true,
		Response:       res.Response,
		ShouldRedirect: res.ShouldRedirect,
		SessionEnded:   sessionEnded,
		RateLimit:      rl,
		Metadata:       res.Metadata,
	})
}

func topicOf(p *tutor.StudentProfile) string {
	if p == nil {
		return ""
	}
	return p.Topic
}

// isAdmissionRejection reports whether the error is one of the
// governor's ceiling rejections rather than a store failure.
func isAdmissionRejection(err error) bool {
	return errors.Is(err, session.ErrSessionEnded) ||
		errors.Is(err, session.ErrMessageLimit) ||
		errors.Is(err, session.ErrDurationLimit)
}

// admissionMessage maps governor rejections to user-facing Polish text.
func admissionMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrMessageLimit):
		return "Osiągnięto limit wiadomości w tej sesji. Rozpocznij nową sesję, aby kontynuować."
	case errors.Is(err, session.ErrDurationLimit):
		return "Sesja trwała zbyt długo i została zakończona. Rozpocznij nową sesję."
	default:
		return "Ta sesja została zakończona. Rozpocznij nową sesję, aby kontynuować."
	}
}
