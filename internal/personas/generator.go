package personas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sparrow-api/pkg/logger"
)

// Completer is the minimal LLM surface persona generation needs.
// *llm.Client satisfies it.
type Completer interface {
	Name() string
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// GenerateRequest describes the persona the user wants to practice against.
type GenerateRequest struct {
	Industry    string `json:"industry"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Difficulty  string `json:"difficulty"`
	CallType    string `json:"callType"`
}

var ErrGenerationFailed = errors.New("personas: generation failed")

// Generator produces persona configs from an LLM, primary first, then
// fallback. Unlike scoring there is no neutral default: a persona is required
// to start a call, so both providers failing is a hard error.
type Generator struct {
	primary  Completer
	fallback Completer
}

func NewGenerator(primary, fallback Completer) *Generator {
	return &Generator{primary: primary, fallback: fallback}
}

func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (Config, string, error) {
	if err := req.validate(); err != nil {
		return Config{}, "", err
	}

	system, user := buildGeneratePrompts(req)
	log := logger.From(ctx)

	for _, c := range []Completer{g.primary, g.fallback} {
		if c == nil {
			continue
		}
		raw, err := c.CompleteJSON(ctx, system, user)
		if err != nil {
			log.Warn("persona generation attempt failed", "provider", c.Name(), "err", err)
			continue
		}
		cfg, err := parsePersona(raw, req)
		if err != nil {
			log.Warn("persona response unparseable", "provider", c.Name(), "err", err)
			continue
		}
		return cfg, c.Name(), nil
	}

	return Config{}, "", ErrGenerationFailed
}

var ErrInvalidGenerateRequest = errors.New("personas: invalid generate request")

func (r GenerateRequest) validate() error {
	if strings.TrimSpace(r.Industry) == "" ||
		strings.TrimSpace(r.Role) == "" ||
		strings.TrimSpace(r.Personality) == "" ||
		strings.TrimSpace(r.Difficulty) == "" ||
		strings.TrimSpace(r.CallType) == "" {
		return ErrInvalidGenerateRequest
	}
	return nil
}

func buildGeneratePrompts(req GenerateRequest) (system, user string) {
	system = `You generate realistic B2B sales prospects for a cold-call training simulator.
Respond with a single JSON object:
{"name": string, "role": string, "company": string, "industry": string,
 "personality": string, "difficulty": string, "objections": [string],
 "background": string}
The prospect must feel like a real person: plausible name, company and two to
four objections they would actually raise on this kind of call.`

	user = fmt.Sprintf(
		"Industry: %s\nRole: %s\nPersonality: %s\nDifficulty: %s\nCall type: %s",
		req.Industry, req.Role, req.Personality, req.Difficulty, req.CallType,
	)
	return system, user
}

func parsePersona(raw string, req GenerateRequest) (Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Name == "" || cfg.Role == "" {
		return Config{}, errors.New("persona missing name or role")
	}
	// Request fields win over whatever the model echoed back.
	if cfg.Industry == "" {
		cfg.Industry = req.Industry
	}
	if cfg.Personality == "" {
		cfg.Personality = req.Personality
	}
	cfg.Difficulty = req.Difficulty
	return cfg, nil
}
