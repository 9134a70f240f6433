// Package tutor orchestrates one chat turn: quota and rate admission,
// content validation, topic control, prompt assembly, the external
// completion call and usage accounting.
package tutor

import (
	"context"
	"strings"
	"time"

	"github.com/kuba/mat-tutor-server/internal/contentfilter"
	"github.com/kuba/mat-tutor-server/internal/llm"
	"github.com/kuba/mat-tutor-server/internal/logger"
	"github.com/kuba/mat-tutor-server/internal/ratelimit"
	"github.com/kuba/mat-tutor-server/internal/session"
	"github.com/kuba/mat-tutor-server/internal/usage"
)

// Config bounds a single chat turn.
type Config struct {
	Subject          string        // the only supported subject
	MaxMessageLength int           // runes, chat messages
	MaxFormLength    int           // runes, profile free-text fields
	MaxHistory       int           // most recent turns forwarded
	RequestTimeout   time.Duration // external call ceiling
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Subject:          "matematyka",
		MaxMessageLength: 400,
		MaxFormLength:    500,
		MaxHistory:       20,
		RequestTimeout:   30 * time.Second,
	}
}

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	Message   string
	History   []session.Message
	Student   StudentProfile
	Subject   string
	SessionID string
}

// Metadata describes the completed external call.
type Metadata struct {
	TotalTokens      int    `json:"totalTokens"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	Model            string `json:"model"`
	DurationMs       int64  `json:"durationMs"`
}

// TurnResult is the structured outcome of a turn. Exactly one of the
// failure flags is set on rejection; Error always carries a user-facing
// Polish message, never upstream detail.
type TurnResult struct {
	Success        bool
	Response       string
	Error          string
	ShouldRedirect bool
	LimitExceeded  bool
	Blocked        bool
	RateRemaining  int
	RateLimit      int
	Metadata       *Metadata
}

// Orchestrator composes the policy components around the completion
// provider.
type Orchestrator struct {
	provider llm.Provider
	limiter  *ratelimit.SessionLimiter
	ledger   *usage.Ledger
	log      *logger.Logger
	cfg      Config
}

// NewOrchestrator wires the orchestrator. Zero config fields fall back
// to the defaults.
func NewOrchestrator(provider llm.Provider, limiter *ratelimit.SessionLimiter, ledger *usage.Ledger, log *logger.Logger, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.Subject == "" {
		cfg.Subject = def.Subject
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = def.MaxMessageLength
	}
	if cfg.MaxFormLength <= 0 {
		cfg.MaxFormLength = def.MaxFormLength
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	return &Orchestrator{
		provider: provider,
		limiter:  limiter,
		ledger:   ledger,
		log:      log,
		cfg:      cfg,
	}
}

// HandleChatTurn runs the full admission and completion pipeline for one
// turn. It never returns an error to the transport layer; every failure
// mode is a structured TurnResult.
func (o *Orchestrator) HandleChatTurn(ctx context.Context, req TurnRequest) *TurnResult {
	// Monthly cap first: a blocked month must not consume session budget.
	if snap := o.ledger.CurrentMonth(); snap.IsLimitReached {
		return &TurnResult{
			Blocked:   true,
			Error:     o.ledger.StatusMessage(),
			RateLimit: o.limiter.Limit(),
		}
	}

	if !o.limiter.Check(req.SessionID) {
		return &TurnResult{
			LimitExceeded: true,
			Error:         "Osiągnięto limit wiadomości w tej sesji. Rozpocznij nową sesję, aby kontynuować.",
			RateRemaining: 0,
			RateLimit:     o.limiter.Limit(),
		}
	}
	o.limiter.Record(req.SessionID)
	remaining := o.limiter.Remaining(req.SessionID)

	reject := func(msg string) *TurnResult {
		return &TurnResult{
			Error:         msg,
			RateRemaining: remaining,
			RateLimit:     o.limiter.Limit(),
		}
	}

	validation := contentfilter.ValidateAndSanitize(req.Message, contentfilter.Options{
		MaxLength:            o.cfg.MaxMessageLength,
		CheckProfanity:       true,
		CheckPromptInjection: true,
		CheckPersonalInfo:    true,
	})
	if !validation.IsValid {
		return reject(validation.Error)
	}
	message := validation.Sanitized

	for _, subject := range []string{req.Subject, req.Student.Subject} {
		if subject != "" && !strings.EqualFold(strings.TrimSpace(subject), o.cfg.Subject) {
			return reject("Obecnie dostępna jest tylko matematyka. Inne przedmioty pojawią się wkrótce.")
		}
	}

	profile, formErr := o.validateProfile(req.Student)
	if formErr != "" {
		return reject(formErr)
	}

	// The heuristic sees the raw text: escaping introduces entities like
	// &#39; whose digits would read as math notation.
	if !isMathRelated(req.Message, len(req.History) > 0) {
		o.log.Info("off-topic message short-circuited", "session_id", req.SessionID)
		return &TurnResult{
			Success:       true,
			Response:      redirectMessage,
			RateRemaining: remaining,
			RateLimit:     o.limiter.Limit(),
		}
	}

	llmReq := llm.Request{
		System:   buildSystemPrompt(profile),
		Messages: o.buildMessages(req.History, message),
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := o.provider.Complete(callCtx, llmReq)
	if err != nil {
		o.log.Error("completion call failed", "session_id", req.SessionID, "error", err)
		return &TurnResult{
			Error:         "Nie udało się połączyć z asystentem. Spróbuj ponownie za chwilę.",
			RateRemaining: remaining,
			RateLimit:     o.limiter.Limit(),
		}
	}
	duration := time.Since(start)

	content := resp.Content
	shouldRedirect := false
	if strings.Contains(content, offTopicSentinel) {
		shouldRedirect = true
		content = strings.TrimSpace(strings.ReplaceAll(content, offTopicSentinel, ""))
		if content == "" {
			content = redirectMessage
		}
	}

	// Best-effort accounting; a ledger problem never fails the turn.
	o.ledger.Log(usage.Entry{
		InputTokens:  resp.PromptTokens,
		OutputTokens: resp.CompletionTokens,
		TotalTokens:  resp.TotalTokens,
		Model:        resp.Model,
		SessionID:    req.SessionID,
	})

	return &TurnResult{
		Success:        true,
		Response:       content,
		ShouldRedirect: shouldRedirect,
		RateRemaining:  remaining,
		RateLimit:      o.limiter.Limit(),
		Metadata: &Metadata{
			TotalTokens:      resp.TotalTokens,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			Model:            resp.Model,
			DurationMs:       duration.Milliseconds(),
		},
	}
}

// validateProfile runs form validation over the free-text profile fields
// and returns the sanitized profile or a user-facing error.
func (o *Orchestrator) validateProfile(p StudentProfile) (StudentProfile, string) {
	if p.Problem != "" {
		res := contentfilter.ValidateFormInput(p.Problem, "Opis problemu", o.cfg.MaxFormLength)
		if !res.IsValid {
			return p, res.Error
		}
		p.Problem = res.Sanitized
	}
	if p.Interests != "" {
		res := contentfilter.ValidateFormInput(p.Interests, "Zainteresowania", o.cfg.MaxFormLength)
		if !res.IsValid {
			return p, res.Error
		}
		p.Interests = res.Sanitized
	}
	return p, ""
}

// buildMessages trims the client history to the configured window and
// appends the sanitized user message. History content is forwarded as
// prompt material only.
func (o *Orchestrator) buildMessages(history []session.Message, message string) []llm.Message {
	if len(history) > o.cfg.MaxHistory {
		history = history[len(history)-o.cfg.MaxHistory:]
	}
	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleUser
		switch m.Role {
		case string(llm.RoleAssistant):
			role = llm.RoleAssistant
		case string(llm.RoleSystem):
			// Client-supplied system turns are demoted: only the server
			// builds system prompts.
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}
