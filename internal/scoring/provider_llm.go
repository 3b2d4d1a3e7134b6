package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the minimal LLM surface scoring needs. *llm.Client satisfies it.
type Completer interface {
	Name() string
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// LLMProvider scores calls with a chat-completion model.
type LLMProvider struct {
	client Completer
}

func NewLLMProvider(client Completer) *LLMProvider {
	return &LLMProvider{client: client}
}

func (p *LLMProvider) Name() string { return p.client.Name() }

const quickSystemPrompt = `You are a sales coach grading a practice cold call.
Score the salesperson 0-10 on each skill and overall. Respond with a single
JSON object:
{"overall": number, "categories": {"opening": number, "discovery": number,
 "objection_handling": number, "call_control": number, "closing": number},
 "outcome": "meeting_booked"|"callback"|"rejected"|"no_decision",
 "confidence": number between 0 and 1}`

const deepSystemPrompt = `You are a sales coach writing a detailed debrief of a
practice cold call. You are given the transcript and a first-pass score.
Respond with a single JSON object:
{"overall": number, "categories": {"opening": number, "discovery": number,
 "objection_handling": number, "call_control": number, "closing": number},
 "outcome": "meeting_booked"|"callback"|"rejected"|"no_decision",
 "confidence": number between 0 and 1,
 "feedback": [{"category": string, "timestamp": "M:SS",
  "type": "positive"|"negative"|"missed_opportunity",
  "content": string, "suggestion": string, "excerpt": string}]}
Pick three to six concrete moments for feedback. Timestamps are minute:second
offsets into the call.`

func (p *LLMProvider) QuickScore(ctx context.Context, in Input) (Scores, error) {
	raw, err := p.client.CompleteJSON(ctx, quickSystemPrompt, buildCallContext(in))
	if err != nil {
		return Scores{}, err
	}
	var out Scores
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Scores{}, fmt.Errorf("scoring: %s quick response unparseable: %w", p.Name(), err)
	}
	if out.Outcome == "" {
		out.Outcome = OutcomeNoDecision
	}
	return out, nil
}

func (p *LLMProvider) DeepAnalyze(ctx context.Context, in Input, quick Scores) (DeepAnalysis, error) {
	quickJSON, _ := json.Marshal(quick)
	user := buildCallContext(in) + "\n\nFirst-pass scores:\n" + string(quickJSON)

	raw, err := p.client.CompleteJSON(ctx, deepSystemPrompt, user)
	if err != nil {
		return DeepAnalysis{}, err
	}
	var out DeepAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return DeepAnalysis{}, fmt.Errorf("scoring: %s deep response unparseable: %w", p.Name(), err)
	}
	return out, nil
}

func buildCallContext(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Call type: %s\n", in.CallType)
	fmt.Fprintf(&b, "Prospect: %s, %s at %s (%s)\n",
		in.Persona.Name, in.Persona.Role, in.Persona.Company, in.Persona.Personality)
	if len(in.Persona.Objections) > 0 {
		fmt.Fprintf(&b, "Known objections: %s\n", strings.Join(in.Persona.Objections, "; "))
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(in.Transcript)
	return b.String()
}
