package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sparrow-api/internal/personas"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *ElevenLabsProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewElevenLabsProvider(ElevenLabsConfig{
		APIKey:  "xi-test",
		AgentID: "agent-1",
		VoiceID: "voice-1",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	return p
}

func TestCreateSession(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversation/signed-url" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "xi-test" {
			t.Errorf("missing api key header")
		}
		var body signedURLRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("body decode: %v", err)
		}
		if body.AgentID != "agent-1" || body.DynamicVariables["prospect_name"] != "Dana" {
			t.Errorf("unexpected body: %+v", body)
		}
		_ = json.NewEncoder(w).Encode(signedURLResponse{
			ConversationID: "conv_123",
			SignedURL:      "wss://example/convo?token=abc",
		})
	})

	sess, err := p.CreateSession(context.Background(), SessionRequest{
		CallID:   "call-1",
		CallType: "cold_call",
		Persona:  personas.Config{Name: "Dana", Role: "CTO"},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ConversationID != "conv_123" || sess.SignedURL == "" || sess.VoiceID != "voice-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestCreateSession_ProviderError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"agent not found"}`, http.StatusUnprocessableEntity)
	})
	if _, err := p.CreateSession(context.Background(), SessionRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEndSession_TreatsNotFoundAsSuccess(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := p.EndSession(context.Background(), "conv_123"); err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
}

func TestFetchTranscript(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversations/conv_123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"transcript":[
			{"role":"agent","message":"Hello?","time_in_call_secs":1.5},
			{"role":"user","message":"Hi, this is Sam.","time_in_call_secs":3}
		]}`))
	})

	msgs, err := p.FetchTranscript(context.Background(), "conv_123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Speaker != "prospect" || msgs[0].TimestampMS != 1500 {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Speaker != "user" || msgs[1].TimestampMS != 3000 {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
}
