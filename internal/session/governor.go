package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/kuba/mat-tutor-server/internal/logger"
)

// Admission errors. Each maps to a user-facing "session ended" flow on
// the client, not a generic error banner.
var (
	ErrSessionEnded  = errors.New("session already ended")
	ErrMessageLimit  = errors.New("session message limit reached")
	ErrDurationLimit = errors.New("session duration limit reached")
)

// Governor enforces the per-session ceilings and owns the
// Active -> Ended transition. Every transition persists the session in
// the same call, so a session can never be observed mid-transition.
type Governor struct {
	store       *Store
	maxMessages int
	maxDuration time.Duration
	now         func() time.Time
	log         *logger.Logger
}

// NewGovernor creates a governor with the given ceilings.
func NewGovernor(store *Store, maxMessages int, maxDuration time.Duration, log *logger.Logger) *Governor {
	return &Governor{
		store:       store,
		maxMessages: maxMessages,
		maxDuration: maxDuration,
		now:         time.Now,
		log:         log,
	}
}

// OpenOrCreate loads the session record, creating an active one when the
// id is unknown.
func (g *Governor) OpenOrCreate(id, name, topic string) (*ChatSession, error) {
	sess, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	now := g.now()
	sess = &ChatSession{
		ID:            id,
		Name:          name,
		Topic:         topic,
		State:         StateActive,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := g.store.Create(sess); err != nil {
		return nil, err
	}
	g.log.Debug("session created", "session_id", id, "topic", topic)
	return sess, nil
}

// Admit decides whether the session may take another turn. Reaching a
// ceiling here transitions the session to Ended before the rejection is
// returned.
func (g *Governor) Admit(sess *ChatSession) error {
	if sess.Ended() {
		return ErrSessionEnded
	}
	if g.maxMessages > 0 && sess.UserMessages >= g.maxMessages {
		if err := g.End(sess, EndReasonMessageLimit); err != nil {
			return err
		}
		return ErrMessageLimit
	}
	if g.maxDuration > 0 && g.now().Sub(sess.CreatedAt) >= g.maxDuration {
		if err := g.End(sess, EndReasonDurationLimit); err != nil {
			return err
		}
		return ErrDurationLimit
	}
	return nil
}

// RecordExchange counts one completed user turn and its token cost on
// both the record and the store.
func (g *Governor) RecordExchange(sess *ChatSession, tokens int) error {
	now := g.now()
	if err := g.store.RecordExchange(sess.ID, tokens, now); err != nil {
		return err
	}
	sess.UserMessages++
	sess.TokensUsed += tokens
	sess.LastMessageAt = now
	return nil
}

// End transitions the session to Ended with the given reason. Ending an
// already-ended session is a no-op. A topic-mismatched session that
// never completed an exchange is purged rather than kept: it would only
// clutter history with zero-content sessions.
func (g *Governor) End(sess *ChatSession, reason EndReason) error {
	if sess.Ended() {
		return nil
	}

	sess.State = StateEnded
	sess.EndReason = reason

	if reason == EndReasonTopicMismatch && sess.UserMessages == 0 {
		if err := g.store.Delete(sess.ID); err != nil {
			return fmt.Errorf("failed to purge empty session: %w", err)
		}
		g.log.Info("session purged on topic mismatch", "session_id", sess.ID)
		return nil
	}

	if err := g.store.End(sess.ID, reason, g.now()); err != nil {
		return err
	}
	g.log.Info("session ended", "session_id", sess.ID, "reason", reason)
	return nil
}
