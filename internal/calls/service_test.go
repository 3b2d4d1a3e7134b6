package calls

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sparrow-api/internal/personas"
	"sparrow-api/internal/plans"
	"sparrow-api/internal/progress"
	"sparrow-api/internal/scoring"
	"sparrow-api/internal/users"
	"sparrow-api/internal/voice"
)

type fakeVoice struct {
	createErr  error
	fetchErr   error
	transcript []voice.TranscriptMessage
	onCreate   func()

	created int
	ended   []string
}

func (f *fakeVoice) Name() string { return "fake" }

func (f *fakeVoice) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeVoice) CreateSession(ctx context.Context, req voice.SessionRequest) (voice.Session, error) {
	f.created++
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return voice.Session{}, f.createErr
	}
	return voice.Session{ConversationID: "conv-" + req.CallID, SignedURL: "wss://fake/session"}, nil
}

func (f *fakeVoice) EndSession(ctx context.Context, conversationID string) error {
	f.ended = append(f.ended, conversationID)
	return nil
}

func (f *fakeVoice) FetchTranscript(ctx context.Context, conversationID string) ([]voice.TranscriptMessage, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.transcript, nil
}

type fakeScorer struct {
	scores   scoring.Scores
	deep     scoring.DeepAnalysis
	quickErr error
	deepErr  error
}

func (f *fakeScorer) Name() string { return "groq" }

func (f *fakeScorer) QuickScore(ctx context.Context, in scoring.Input) (scoring.Scores, error) {
	if f.quickErr != nil {
		return scoring.Scores{}, f.quickErr
	}
	return f.scores, nil
}

func (f *fakeScorer) DeepAnalyze(ctx context.Context, in scoring.Input, quick scoring.Scores) (scoring.DeepAnalysis, error) {
	if f.deepErr != nil {
		return scoring.DeepAnalysis{}, f.deepErr
	}
	return f.deep, nil
}

type fixture struct {
	svc      *Service
	repo     *MemoryRepository
	users    *users.Service
	progress *progress.Service
	voice    *fakeVoice
	scorer   *fakeScorer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := NewMemoryRepository()
	usersSvc := users.NewService(users.NewMemoryRepository())
	personasSvc := personas.NewService(personas.NewMemoryRepository())
	progressSvc := progress.NewService(progress.NewMemoryRepository())
	fv := &fakeVoice{}
	fs := &fakeScorer{
		scores: scoring.Scores{
			Overall: 7,
			Categories: scoring.CategoryScores{
				Opening: 7, Discovery: 7, ObjectionHandling: 6, CallControl: 8, Closing: 7,
			},
			Outcome:    scoring.OutcomeCallback,
			Confidence: 0.8,
		},
		deepErr: errors.New("deep unavailable"),
	}

	svc := NewService(
		repo,
		usersSvc,
		personasSvc,
		plans.NewService(repo, nil),
		progressSvc,
		fv,
		scoring.NewEngine(fs),
		NewMemorySessionLimiter(),
	)
	return &fixture{svc: svc, repo: repo, users: usersSvc, progress: progressSvc, voice: fv, scorer: fs}
}

func startRequest() StartRequest {
	return StartRequest{
		CallType: "cold_call",
		Persona:  personas.Config{Name: "Dana", Role: "CTO", Difficulty: "medium"},
	}
}

func clientTranscript() []Message {
	return []Message{
		{Speaker: "prospect", Content: "Hello?", TimestampMS: 1000},
		{Speaker: "user", Content: "Hi Dana, this is Sam from Sparrow.", TimestampMS: 3000},
	}
}

func TestStart_ActivatesCallAndSeedsTranscript(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Start(context.Background(), "user_1", "", startRequest())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Call.Status != StatusActive {
		t.Fatalf("expected active call, got %q", res.Call.Status)
	}
	if res.Session.SignedURL == "" || res.Session.ConversationID == "" {
		t.Fatalf("expected a playable session, got %+v", res.Session)
	}

	stored, _ := f.repo.Get(context.Background(), res.Call.ID)
	if stored.ConversationID != res.Session.ConversationID {
		t.Fatalf("conversation id not recorded: %+v", stored)
	}
	msgs, _ := f.repo.GetTranscript(context.Background(), res.Call.ID)
	if len(msgs) != 0 {
		t.Fatalf("expected seeded empty transcript, got %d messages", len(msgs))
	}
}

func TestStart_VoiceFailureAbandonsAndReleasesCap(t *testing.T) {
	f := newFixture(t)
	f.voice.createErr = errors.New("agent unreachable")

	_, err := f.svc.Start(context.Background(), "user_1", "", startRequest())
	if !errors.Is(err, ErrVoiceUnavailable) {
		t.Fatalf("expected ErrVoiceUnavailable, got %v", err)
	}

	u, _ := f.users.GetBySubject(context.Background(), "user_1")
	list, _ := f.repo.ListByUser(context.Background(), u.ID, 10, 0)
	if len(list) != 1 || list[0].Status != StatusAbandoned {
		t.Fatalf("expected one abandoned call, got %+v", list)
	}

	// The failed start must not consume the session cap or quota.
	f.voice.createErr = nil
	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); err != nil {
		t.Fatalf("second start should succeed: %v", err)
	}
}

func TestStart_SecondLiveSessionRejected(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); !errors.Is(err, ErrSessionCapReached) {
		t.Fatalf("expected ErrSessionCapReached, got %v", err)
	}
}

func TestStart_FreePlanQuotaExhausted(t *testing.T) {
	f := newFixture(t)
	u, _ := f.users.EnsureBySubject(context.Background(), "user_1", "")

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		_ = f.repo.Insert(context.Background(), Call{
			ID: "past-" + strings.Repeat("x", i+1), UserID: u.ID,
			CallType: "cold_call", Status: StatusCompleted,
			StartedAt: now, CreatedAt: now,
		})
	}

	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); !errors.Is(err, plans.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestStart_AbandonedCallsDoNotConsumeQuota(t *testing.T) {
	f := newFixture(t)
	u, _ := f.users.EnsureBySubject(context.Background(), "user_1", "")

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		_ = f.repo.Insert(context.Background(), Call{
			ID: "past-" + strings.Repeat("y", i+1), UserID: u.ID,
			CallType: "cold_call", Status: StatusAbandoned,
			StartedAt: now, CreatedAt: now,
		})
	}

	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); err != nil {
		t.Fatalf("abandoned calls must not count: %v", err)
	}
}

func TestEnd_CompletesAndPersistsDebrief(t *testing.T) {
	f := newFixture(t)
	f.scorer.deepErr = nil
	f.scorer.deep = scoring.DeepAnalysis{
		Overall: 8,
		Categories: scoring.CategoryScores{
			Opening: 8, Discovery: 8, ObjectionHandling: 7, CallControl: 9, Closing: 8,
		},
		Outcome:    scoring.OutcomeMeetingBooked,
		Confidence: 0.95,
		Feedback: []scoring.FeedbackItem{
			{
				Category:  "objection_handling",
				Timestamp: "1:15",
				Type:      scoring.FeedbackPositive,
				Content:   strings.Repeat("a", 150),
			},
		},
	}

	started, err := f.svc.Start(context.Background(), "user_1", "", startRequest())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{
		DurationSeconds: 180,
		Transcript:      clientTranscript(),
	})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.DurationSeconds != 180 {
		t.Fatalf("expected client duration, got %d", res.DurationSeconds)
	}
	if res.Scores.Overall != 8 || res.Scores.Outcome != scoring.OutcomeMeetingBooked {
		t.Fatalf("expected deep override, got %+v", res.Scores)
	}

	score, err := f.repo.GetScore(context.Background(), started.Call.ID)
	if err != nil {
		t.Fatalf("score not persisted: %v", err)
	}
	if score.Objection != 7 || score.Communication != 9 {
		t.Fatalf("category remap wrong: %+v", score)
	}
	if score.Provider != "groq" {
		t.Fatalf("expected provider groq, got %q", score.Provider)
	}

	fb, _ := f.repo.ListFeedback(context.Background(), started.Call.ID)
	if len(fb) != 1 {
		t.Fatalf("expected 1 feedback row, got %d", len(fb))
	}
	if fb[0].Category != "objection" {
		t.Fatalf("feedback category not remapped: %q", fb[0].Category)
	}
	if fb[0].TimestampMS != 75000 {
		t.Fatalf("expected 75000ms, got %d", fb[0].TimestampMS)
	}
	if len(fb[0].Title) != 100 {
		t.Fatalf("title should be truncated to 100 chars, got %d", len(fb[0].Title))
	}

	u, _ := f.users.GetBySubject(context.Background(), "user_1")
	p, _ := f.progress.Get(context.Background(), u.ID)
	if p.TotalCalls != 1 {
		t.Fatalf("progress not applied: %+v", p)
	}
}

func TestEnd_DuplicateEndConflicts(t *testing.T) {
	f := newFixture(t)
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())

	if _, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{Transcript: clientTranscript()}); err != nil {
		t.Fatalf("first end: %v", err)
	}
	_, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{Transcript: clientTranscript()})
	if !errors.Is(err, ErrCallNotActive) {
		t.Fatalf("expected ErrCallNotActive, got %v", err)
	}
}

func TestEnd_EmptyTranscriptGetsNeutralDefault(t *testing.T) {
	f := newFixture(t)
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())

	res, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.Scores.Provider != "none" {
		t.Fatalf("expected provider none, got %q", res.Scores.Provider)
	}
	if res.Scores.Overall != 5 || res.Scores.Confidence != 0 {
		t.Fatalf("expected neutral default, got %+v", res.Scores)
	}
}

func TestEnd_ProviderTranscriptUsedWhenClientOmitsIt(t *testing.T) {
	f := newFixture(t)
	f.voice.transcript = []voice.TranscriptMessage{
		{Speaker: "prospect", Content: "Hello?", TimestampMS: 900},
		{Speaker: "user", Content: "Hi, quick question for you.", TimestampMS: 2500},
	}
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())

	res, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(res.Transcript) != 2 {
		t.Fatalf("expected provider transcript, got %d messages", len(res.Transcript))
	}
	if res.Scores.Provider != "groq" {
		t.Fatalf("provider transcript should be scored, got %q", res.Scores.Provider)
	}
}

func TestEnd_NotOwner(t *testing.T) {
	f := newFixture(t)
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())
	_, _ = f.users.EnsureBySubject(context.Background(), "user_2", "")

	if _, err := f.svc.End(context.Background(), "user_2", started.Call.ID, EndRequest{}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestStart_StampsStartedAtOnActivation(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	f.svc.clock = func() time.Time { return now }
	f.voice.onCreate = func() { now = now.Add(5 * time.Second) }

	started, err := f.svc.Start(context.Background(), "user_1", "", startRequest())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	want := time.Date(2026, 8, 28, 10, 0, 5, 0, time.UTC)
	if !started.Call.StartedAt.Equal(want) {
		t.Fatalf("started_at should be stamped on activation, got %v", started.Call.StartedAt)
	}
	stored, _ := f.repo.Get(context.Background(), started.Call.ID)
	if !stored.StartedAt.Equal(want) {
		t.Fatalf("persisted started_at %v, want %v", stored.StartedAt, want)
	}

	// Session setup time must not inflate server-derived durations.
	now = want.Add(60 * time.Second)
	res, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{Transcript: clientTranscript()})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.DurationSeconds != 60 {
		t.Fatalf("expected 60s of talk time, got %d", res.DurationSeconds)
	}
}

func TestEnd_ServerDerivedDuration(t *testing.T) {
	f := newFixture(t)
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())

	f.svc.clock = func() time.Time { return started.Call.StartedAt.Add(95 * time.Second) }
	res, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{Transcript: clientTranscript()})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.DurationSeconds != 95 {
		t.Fatalf("expected derived duration 95, got %d", res.DurationSeconds)
	}
}

func TestEnd_ReleasesCapForNextCall(t *testing.T) {
	f := newFixture(t)
	started, _ := f.svc.Start(context.Background(), "user_1", "", startRequest())
	if _, err := f.svc.End(context.Background(), "user_1", started.Call.ID, EndRequest{Transcript: clientTranscript()}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := f.svc.Start(context.Background(), "user_1", "", startRequest()); err != nil {
		t.Fatalf("cap should be free after end: %v", err)
	}
	if len(f.voice.ended) != 1 {
		t.Fatalf("voice session should have been ended once, got %d", len(f.voice.ended))
	}
}
