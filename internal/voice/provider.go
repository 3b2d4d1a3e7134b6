package voice

import (
	"context"

	"sparrow-api/internal/personas"
)

// Provider defines the provider-agnostic voice-session interface used by
// business logic.
//
// Rules:
// - No provider HTTP calls outside voice adapters.
// - Keep request/response types provider-agnostic.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// CreateSession requests a signed, short-lived session for the given
	// persona and call type.
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)

	// EndSession closes a live session. Callers treat failures as
	// best-effort; the session expires on its own server-side.
	EndSession(ctx context.Context, conversationID string) error

	// FetchTranscript retrieves the provider's record of the conversation.
	FetchTranscript(ctx context.Context, conversationID string) ([]TranscriptMessage, error)
}

// SessionRequest carries everything the voice agent needs to play the
// prospect.
type SessionRequest struct {
	CallID   string          `json:"call_id"`
	CallType string          `json:"call_type"`
	Persona  personas.Config `json:"persona"`
}

// Session is the playable result handed back to the client.
type Session struct {
	ConversationID string `json:"conversationId"`
	SignedURL      string `json:"signedUrl"`
	VoiceID        string `json:"voiceId,omitempty"`
}

// TranscriptMessage is one provider-recorded utterance.
type TranscriptMessage struct {
	Speaker     string `json:"speaker"` // "user" | "prospect"
	Content     string `json:"content"`
	TimestampMS int64  `json:"timestamp_ms"`
}
