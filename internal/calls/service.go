package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sparrow-api/internal/personas"
	"sparrow-api/internal/plans"
	"sparrow-api/internal/progress"
	"sparrow-api/internal/scoring"
	"sparrow-api/internal/users"
	"sparrow-api/internal/voice"
	"sparrow-api/pkg/logger"
)

var (
	ErrNotFound          = errors.New("calls: call not found")
	ErrNotOwner          = errors.New("calls: not the owner")
	ErrCallNotActive     = errors.New("calls: call is not active")
	ErrInvalidArgument   = errors.New("calls: invalid argument")
	ErrSessionCapReached = errors.New("calls: another session is already live")
	ErrVoiceUnavailable  = errors.New("calls: failed to initialize voice agent")
)

// Service orchestrates the call lifecycle end to end: quota and concurrency
// checks, voice session setup, and the completion pipeline that turns a raw
// transcript into scores, feedback and progress.
type Service struct {
	repo     Repository
	users    *users.Service
	personas *personas.Service
	plans    *plans.Service
	progress *progress.Service
	voice    voice.Provider
	engine   *scoring.Engine
	limiter  SessionLimiter

	clock func() time.Time
}

func NewService(
	repo Repository,
	usersSvc *users.Service,
	personasSvc *personas.Service,
	plansSvc *plans.Service,
	progressSvc *progress.Service,
	voiceProvider voice.Provider,
	engine *scoring.Engine,
	limiter SessionLimiter,
) *Service {
	return &Service{
		repo:     repo,
		users:    usersSvc,
		personas: personasSvc,
		plans:    plansSvc,
		progress: progressSvc,
		voice:    voiceProvider,
		engine:   engine,
		limiter:  limiter,
		clock:    time.Now,
	}
}

// StartRequest begins a practice call. Either ProspectID or an inline Persona
// must be given; ProspectID wins when both are set.
type StartRequest struct {
	CallType   string          `json:"call_type"`
	ProspectID string          `json:"prospect_id"`
	Persona    personas.Config `json:"persona"`
}

// StartResult is what the client needs to join the live session.
type StartResult struct {
	Call    Call          `json:"call"`
	Session voice.Session `json:"session"`
}

// Start provisions a call: resolves the user, checks plan quota and the
// per-user session cap, creates the voice session and activates the call.
// A voice-provider failure abandons the call and releases the cap so the
// user is never charged quota or locked out by a setup error.
func (s *Service) Start(ctx context.Context, subject, email string, req StartRequest) (StartResult, error) {
	log := logger.From(ctx)

	if req.CallType == "" {
		return StartResult{}, fmt.Errorf("%w: call_type is required", ErrInvalidArgument)
	}

	u, err := s.users.EnsureBySubject(ctx, subject, email)
	if err != nil {
		return StartResult{}, err
	}

	if err := s.plans.Allow(ctx, u.ID, u.Plan); err != nil {
		return StartResult{}, err
	}

	persona := req.Persona
	if req.ProspectID != "" {
		p, err := s.personas.Get(ctx, u.ID, req.ProspectID)
		if err != nil {
			return StartResult{}, err
		}
		persona = p.Config
	}
	if persona.Name == "" {
		return StartResult{}, fmt.Errorf("%w: a prospect or persona is required", ErrInvalidArgument)
	}

	ok, err := s.limiter.Acquire(ctx, u.ID)
	if err != nil {
		return StartResult{}, fmt.Errorf("calls: session cap: %w", err)
	}
	if !ok {
		return StartResult{}, ErrSessionCapReached
	}

	now := s.clock().UTC()
	c := Call{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		ProspectID: req.ProspectID,
		CallType:   req.CallType,
		Persona:    persona,
		Status:     StatusReady,
		StartedAt:  now,
		CreatedAt:  now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		_ = s.limiter.Release(ctx, u.ID)
		return StartResult{}, err
	}

	sess, err := s.voice.CreateSession(ctx, voice.SessionRequest{
		CallID:   c.ID,
		CallType: c.CallType,
		Persona:  persona,
	})
	if err != nil {
		log.Error("voice session setup failed, abandoning call", "call_id", c.ID, "err", err)
		if aerr := s.repo.MarkAbandoned(ctx, c.ID, s.clock().UTC()); aerr != nil {
			log.Error("failed to abandon call after voice error", "call_id", c.ID, "err", aerr)
		}
		_ = s.limiter.Release(ctx, u.ID)
		return StartResult{}, fmt.Errorf("%w: %v", ErrVoiceUnavailable, err)
	}

	activatedAt := s.clock().UTC()
	if err := s.repo.MarkActive(ctx, c.ID, sess.ConversationID, activatedAt); err != nil {
		_ = s.limiter.Release(ctx, u.ID)
		return StartResult{}, err
	}
	c.Status = StatusActive
	c.ConversationID = sess.ConversationID
	c.StartedAt = activatedAt

	if err := s.repo.SaveTranscript(ctx, c.ID, []Message{}); err != nil {
		log.Warn("failed to seed empty transcript", "call_id", c.ID, "err", err)
	}

	if req.ProspectID != "" {
		if err := s.personas.RecordUse(ctx, req.ProspectID); err != nil {
			log.Warn("failed to record prospect use", "prospect_id", req.ProspectID, "err", err)
		}
	}
	s.plans.Invalidate(ctx, u.ID)

	return StartResult{Call: c, Session: sess}, nil
}

// EndRequest finalizes a call. DurationSeconds and Transcript come from the
// client when available; both have server-side fallbacks.
type EndRequest struct {
	DurationSeconds int       `json:"duration_seconds"`
	Transcript      []Message `json:"transcript"`
}

// EndResult is the full debrief returned to the client.
type EndResult struct {
	CallID          string         `json:"call_id"`
	DurationSeconds int            `json:"duration_seconds"`
	Scores          scoring.Result `json:"scores"`
	Feedback        []Feedback     `json:"feedback"`
	Transcript      []Message      `json:"transcript"`
}

// End completes an active call and runs the debrief pipeline. The
// active->completed transition is the idempotency gate: a second End on the
// same call fails with ErrCallNotActive before any side effects repeat.
// Scoring and progress failures never fail the request; the call still
// completes with whatever debrief could be produced.
func (s *Service) End(ctx context.Context, subject, callID string, req EndRequest) (EndResult, error) {
	log := logger.From(ctx)

	u, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return EndResult{}, ErrNotFound
		}
		return EndResult{}, err
	}

	c, err := s.repo.Get(ctx, callID)
	if err != nil {
		return EndResult{}, err
	}
	if c.UserID != u.ID {
		return EndResult{}, ErrNotOwner
	}

	now := s.clock().UTC()
	duration := req.DurationSeconds
	if duration <= 0 {
		duration = int(now.Sub(c.StartedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
	}

	moved, err := s.repo.CompleteIfActive(ctx, c.ID, duration, now)
	if err != nil {
		return EndResult{}, err
	}
	if !moved {
		return EndResult{}, ErrCallNotActive
	}

	if c.ConversationID != "" {
		if err := s.voice.EndSession(ctx, c.ConversationID); err != nil {
			log.Warn("voice session teardown failed", "call_id", c.ID, "err", err)
		}
	}
	if err := s.limiter.Release(ctx, u.ID); err != nil {
		log.Warn("session cap release failed", "user_id", u.ID, "err", err)
	}

	transcript := s.reconcileTranscript(ctx, c, req.Transcript)
	if err := s.repo.SaveTranscript(ctx, c.ID, transcript); err != nil {
		log.Error("failed to save transcript", "call_id", c.ID, "err", err)
	}

	res := s.engine.Score(ctx, scoring.Input{
		CallType:   c.CallType,
		Persona:    c.Persona,
		Transcript: transcriptText(transcript),
	})

	if err := s.repo.InsertScore(ctx, scoreRow(c.ID, res, now)); err != nil {
		log.Error("failed to persist score", "call_id", c.ID, "err", err)
	}

	feedback := feedbackRows(c.ID, res.Feedback, now)
	if err := s.repo.InsertFeedback(ctx, feedback); err != nil {
		log.Error("failed to persist feedback", "call_id", c.ID, "err", err)
	}

	if _, err := s.progress.Apply(ctx, u.ID, res); err != nil {
		log.Error("failed to update progress", "user_id", u.ID, "err", err)
	}

	return EndResult{
		CallID:          c.ID,
		DurationSeconds: duration,
		Scores:          res,
		Feedback:        feedback,
		Transcript:      transcript,
	}, nil
}

// reconcileTranscript prefers the client copy, falls back to the voice
// provider's record, and settles for empty when neither exists.
func (s *Service) reconcileTranscript(ctx context.Context, c Call, client []Message) []Message {
	if len(client) > 0 {
		return client
	}
	if c.ConversationID == "" {
		return []Message{}
	}
	fetched, err := s.voice.FetchTranscript(ctx, c.ConversationID)
	if err != nil {
		logger.From(ctx).Warn("transcript fetch failed", "call_id", c.ID, "err", err)
		return []Message{}
	}
	msgs := make([]Message, 0, len(fetched))
	for _, m := range fetched {
		msgs = append(msgs, Message{Speaker: m.Speaker, Content: m.Content, TimestampMS: m.TimestampMS})
	}
	return msgs
}

func transcriptText(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Speaker)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

func scoreRow(callID string, res scoring.Result, at time.Time) Score {
	return Score{
		CallID:        callID,
		Overall:       res.Overall,
		Opening:       res.Categories.Opening,
		Discovery:     res.Categories.Discovery,
		Objection:     res.Categories.ObjectionHandling,
		Communication: res.Categories.CallControl,
		Closing:       res.Categories.Closing,
		Outcome:       string(res.Outcome),
		Confidence:    res.Confidence,
		Provider:      res.Provider,
		CreatedAt:     at,
	}
}

const feedbackTitleMax = 100

func feedbackRows(callID string, items []scoring.FeedbackItem, at time.Time) []Feedback {
	out := make([]Feedback, 0, len(items))
	for _, item := range items {
		category := item.Category
		if c, ok := scoring.CategoryFromInternal(item.Category); ok {
			category = c.Persisted()
		}
		out = append(out, Feedback{
			ID:          uuid.NewString(),
			CallID:      callID,
			Category:    category,
			TimestampMS: scoring.ParseClockTimestamp(item.Timestamp),
			Type:        string(item.Type),
			Title:       truncateTitle(item.Content),
			Content:     item.Content,
			Suggestion:  item.Suggestion,
			Excerpt:     item.Excerpt,
			CreatedAt:   at,
		})
	}
	return out
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= feedbackTitleMax {
		return content
	}
	return string(runes[:feedbackTitleMax])
}

// Detail is a fully hydrated call for review screens.
type Detail struct {
	Call       Call       `json:"call"`
	Transcript []Message  `json:"transcript"`
	Score      *Score     `json:"score,omitempty"`
	Feedback   []Feedback `json:"feedback"`
}

// List returns the user's call history, newest first.
func (s *Service) List(ctx context.Context, subject string, limit, offset int) ([]Call, error) {
	u, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return []Call{}, nil
		}
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, u.ID, limit, offset)
}

// GetDetail returns one call with transcript, score and feedback.
func (s *Service) GetDetail(ctx context.Context, subject, callID string) (Detail, error) {
	u, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}

	c, err := s.repo.Get(ctx, callID)
	if err != nil {
		return Detail{}, err
	}
	if c.UserID != u.ID {
		return Detail{}, ErrNotOwner
	}

	transcript, err := s.repo.GetTranscript(ctx, callID)
	if err != nil {
		return Detail{}, err
	}
	feedback, err := s.repo.ListFeedback(ctx, callID)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Call: c, Transcript: transcript, Feedback: feedback}
	score, err := s.repo.GetScore(ctx, callID)
	switch {
	case err == nil:
		d.Score = &score
	case errors.Is(err, ErrNotFound):
		// Calls that never completed have no score row.
	default:
		return Detail{}, err
	}
	return d, nil
}
