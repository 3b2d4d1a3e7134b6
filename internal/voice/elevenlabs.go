package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsProvider talks to the ElevenLabs Conversational AI REST API.
// There is no official Go SDK; the surface we need is three endpoints.
type ElevenLabsProvider struct {
	apiKey  string
	agentID string
	voiceID string

	baseURL string
	http    *http.Client
}

type ElevenLabsConfig struct {
	APIKey  string
	AgentID string
	VoiceID string

	// BaseURL overrides the API host (tests).
	BaseURL string
	// Timeout bounds each provider call. Defaults to 15s.
	Timeout time.Duration
}

func NewElevenLabsProvider(cfg ElevenLabsConfig) (*ElevenLabsProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("voice: elevenlabs api key is required")
	}
	if cfg.AgentID == "" {
		return nil, errors.New("voice: elevenlabs agent id is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = elevenLabsBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ElevenLabsProvider{
		apiKey:  cfg.APIKey,
		agentID: cfg.AgentID,
		voiceID: cfg.VoiceID,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

func (p *ElevenLabsProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/user", nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", p.apiKey)
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("voice: elevenlabs health check status %d", resp.StatusCode)
	}
	return nil
}

type signedURLRequest struct {
	AgentID          string            `json:"agent_id"`
	CallType         string            `json:"call_type,omitempty"`
	DynamicVariables map[string]string `json:"dynamic_variables,omitempty"`
}

type signedURLResponse struct {
	ConversationID string `json:"conversation_id"`
	SignedURL      string `json:"signed_url"`
}

func (p *ElevenLabsProvider) CreateSession(ctx context.Context, sreq SessionRequest) (Session, error) {
	body := signedURLRequest{
		AgentID:  p.agentID,
		CallType: sreq.CallType,
		DynamicVariables: map[string]string{
			"prospect_name":        sreq.Persona.Name,
			"prospect_role":        sreq.Persona.Role,
			"prospect_company":     sreq.Persona.Company,
			"prospect_industry":    sreq.Persona.Industry,
			"prospect_personality": sreq.Persona.Personality,
			"prospect_background":  sreq.Persona.Background,
			"difficulty":           sreq.Persona.Difficulty,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/convai/conversation/signed-url", bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("voice: signed url request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Session{}, fmt.Errorf("voice: signed url status %d: %s", resp.StatusCode, string(b))
	}

	var out signedURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("voice: signed url response unparseable: %w", err)
	}
	if out.SignedURL == "" || out.ConversationID == "" {
		return Session{}, errors.New("voice: signed url response incomplete")
	}

	return Session{
		ConversationID: out.ConversationID,
		SignedURL:      out.SignedURL,
		VoiceID:        p.voiceID,
	}, nil
}

func (p *ElevenLabsProvider) EndSession(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return errors.New("voice: conversation id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.baseURL+"/v1/convai/conversations/"+conversationID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 404 means the session already ended server-side; not an error.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("voice: end session status %d", resp.StatusCode)
	}
	return nil
}

type conversationResponse struct {
	Transcript []struct {
		Role           string  `json:"role"` // "user" | "agent"
		Message        string  `json:"message"`
		TimeInCallSecs float64 `json:"time_in_call_secs"`
	} `json:"transcript"`
}

func (p *ElevenLabsProvider) FetchTranscript(ctx context.Context, conversationID string) ([]TranscriptMessage, error) {
	if conversationID == "" {
		return nil, errors.New("voice: conversation id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/convai/conversations/"+conversationID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: conversation fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("voice: conversation fetch status %d", resp.StatusCode)
	}

	var out conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("voice: conversation response unparseable: %w", err)
	}

	msgs := make([]TranscriptMessage, 0, len(out.Transcript))
	for _, t := range out.Transcript {
		speaker := "prospect"
		if t.Role == "user" {
			speaker = "user"
		}
		msgs = append(msgs, TranscriptMessage{
			Speaker:     speaker,
			Content:     t.Message,
			TimestampMS: int64(t.TimeInCallSecs * 1000),
		})
	}
	return msgs, nil
}
