package handlers

import (
	"net/http"

	"github.com/kuba/mat-tutor-server/internal/usage"
)

// TokenStatusHandler serves GET /api/token-status so the client can show
// the monthly quota banner before the user types anything.
type TokenStatusHandler struct {
	ledger *usage.Ledger
}

// NewTokenStatusHandler creates the token status handler.
func NewTokenStatusHandler(ledger *usage.Ledger) *TokenStatusHandler {
	return &TokenStatusHandler{ledger: ledger}
}

type tokenUsageInfo struct {
	TotalTokens int     `json:"totalTokens"`
	Limit       int     `json:"limit"`
	PercentUsed float64 `json:"percentUsed"`
	Remaining   int     `json:"remaining"`
}

type resetInfo struct {
	DaysUntilReset int    `json:"daysUntilReset"`
	NextMonth      string `json:"nextMonth"`
}

type tokenStatusResponse struct {
	Success        bool           `json:"success"`
	IsBlocked      bool           `json:"isBlocked"`
	IsWarning      bool           `json:"isWarning"`
	Usage          tokenUsageInfo `json:"usage"`
	ResetInfo      resetInfo      `json:"resetInfo"`
	Message        string         `json:"message"`
	WarningMessage string         `json:"warningMessage,omitempty"`
}

// Handle reports the current month's usage against the cap.
func (h *TokenStatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	snap := h.ledger.CurrentMonth()

	resp := tokenStatusResponse{
		Success:   true,
		IsBlocked: snap.IsLimitReached,
		IsWarning: snap.IsWarning && !snap.IsLimitReached,
		Usage: tokenUsageInfo{
			TotalTokens: snap.TotalTokens,
			Limit:       snap.Limit,
			PercentUsed: snap.PercentUsed,
			Remaining:   snap.Remaining,
		},
		ResetInfo: resetInfo{
			DaysUntilReset: h.ledger.DaysUntilReset(),
			NextMonth:      h.ledger.NextMonth(),
		},
		Message: h.ledger.StatusMessage(),
	}
	if resp.IsWarning {
		resp.WarningMessage = h.ledger.StatusMessage()
	}

	respondJSON(w, http.StatusOK, resp)
}
