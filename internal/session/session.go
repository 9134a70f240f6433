// Package session owns the server-side view of tutoring sessions: the
// persisted session records and the lifecycle rules that end them.
package session

import "time"

// State is the session lifecycle state. Ended is terminal.
type State string

const (
	StateActive State = "active"
	StateEnded  State = "ended"
)

// EndReason names the transition that ended a session.
type EndReason string

const (
	EndReasonNone          EndReason = ""
	EndReasonMessageLimit  EndReason = "message_limit"
	EndReasonDurationLimit EndReason = "duration_limit"
	EndReasonTopicMismatch EndReason = "topic_mismatch"
	EndReasonUser          EndReason = "user"
)

// Message is one turn of a conversation as submitted by the client.
// The server treats client-supplied history as untrusted prompt
// material, never as session state.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatSession is the persisted, server-authoritative session record.
// UserMessages counts only completed user turns; it is the counter the
// message ceiling is enforced against, regardless of what the client
// reports.
type ChatSession struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Topic         string    `json:"topic,omitempty"`
	State         State     `json:"state"`
	EndReason     EndReason `json:"endReason,omitempty"`
	UserMessages  int       `json:"userMessages"`
	TokensUsed    int       `json:"tokensUsed"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// Ended reports whether the session has reached its terminal state.
func (s *ChatSession) Ended() bool {
	return s.State == StateEnded
}
