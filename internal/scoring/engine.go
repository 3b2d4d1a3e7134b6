package scoring

import (
	"context"
	"strings"
	"time"

	"sparrow-api/internal/personas"
	"sparrow-api/pkg/logger"
)

// Input carries everything the providers need to judge a call.
type Input struct {
	CallType   string
	Persona    personas.Config
	Transcript string
}

// Provider is one scoring backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	Name() string
	QuickScore(ctx context.Context, in Input) (Scores, error)
	DeepAnalyze(ctx context.Context, in Input, quick Scores) (DeepAnalysis, error)
}

// Engine runs the two-stage scoring pipeline over an ordered provider chain.
//
// Quick stage: providers are tried in order; the first success wins. If every
// provider fails the neutral default is used and the recorded provider is the
// last one attempted. Deep stage: runs only on the provider that won the
// quick stage, and its failure is non-fatal (quick scores stand, feedback is
// empty). A deep result with higher self-reported confidence supersedes the
// quick scores wholesale.
type Engine struct {
	providers []Provider
	clock     func() time.Time
}

func NewEngine(providers ...Provider) *Engine {
	return &Engine{providers: providers, clock: time.Now}
}

// Score never returns an error: the chain ends in a default that always
// succeeds. A completed call must always get a debrief.
func (e *Engine) Score(ctx context.Context, in Input) Result {
	log := logger.From(ctx)

	if strings.TrimSpace(in.Transcript) == "" {
		log.Info("scoring skipped: empty transcript")
		return Result{Scores: NeutralDefault(), Provider: "none", Feedback: []FeedbackItem{}}
	}

	res := Result{Feedback: []FeedbackItem{}}

	var winner Provider
	quickStart := e.clock()
	for _, p := range e.providers {
		scores, err := p.QuickScore(ctx, in)
		res.Provider = p.Name()
		if err != nil {
			log.Warn("quick score failed", "provider", p.Name(), "err", err)
			continue
		}
		scores.clamp()
		res.Scores = scores
		winner = p
		break
	}
	res.QuickLatencyMS = e.clock().Sub(quickStart).Milliseconds()

	if winner == nil {
		// Provider stays as the last attempted name.
		res.Scores = NeutralDefault()
		log.Warn("all quick-score providers failed, using neutral default", "recorded_provider", res.Provider)
		return res
	}

	deepStart := e.clock()
	deep, err := winner.DeepAnalyze(ctx, in, res.Scores)
	res.DeepLatencyMS = e.clock().Sub(deepStart).Milliseconds()
	if err != nil {
		log.Warn("deep analysis failed, keeping quick scores", "provider", winner.Name(), "err", err)
		return res
	}

	if deep.Feedback != nil {
		res.Feedback = deep.Feedback
	}
	if deep.Confidence > res.Confidence {
		// Confidence-based override, not a merge.
		override := Scores{
			Overall:    deep.Overall,
			Categories: deep.Categories,
			Outcome:    res.Outcome,
			Confidence: deep.Confidence,
		}
		if deep.Outcome != "" {
			override.Outcome = deep.Outcome
		}
		override.clamp()
		res.Scores = override
	}

	return res
}
