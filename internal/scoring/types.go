package scoring

// Outcome is the categorical result of a call.
type Outcome string

const (
	OutcomeMeetingBooked Outcome = "meeting_booked"
	OutcomeCallback      Outcome = "callback"
	OutcomeRejected      Outcome = "rejected"
	OutcomeNoDecision    Outcome = "no_decision"
)

// CategoryScores holds the five skill scores, 0-10 each.
// JSON uses the internal category names.
type CategoryScores struct {
	Opening           float64 `json:"opening"`
	Discovery         float64 `json:"discovery"`
	ObjectionHandling float64 `json:"objection_handling"`
	CallControl       float64 `json:"call_control"`
	Closing           float64 `json:"closing"`
}

// Get returns the score for a category.
func (s CategoryScores) Get(c Category) float64 {
	switch c {
	case CategoryOpening:
		return s.Opening
	case CategoryDiscovery:
		return s.Discovery
	case CategoryObjectionHandling:
		return s.ObjectionHandling
	case CategoryCallControl:
		return s.CallControl
	case CategoryClosing:
		return s.Closing
	}
	return 0
}

// Set assigns the score for a category.
func (s *CategoryScores) Set(c Category, v float64) {
	switch c {
	case CategoryOpening:
		s.Opening = v
	case CategoryDiscovery:
		s.Discovery = v
	case CategoryObjectionHandling:
		s.ObjectionHandling = v
	case CategoryCallControl:
		s.CallControl = v
	case CategoryClosing:
		s.Closing = v
	}
}

// Scores is the quick-stage result shape.
type Scores struct {
	Overall    float64        `json:"overall"`
	Categories CategoryScores `json:"categories"`
	Outcome    Outcome        `json:"outcome"`
	Confidence float64        `json:"confidence"`
}

// DeepAnalysis is the second-stage result: optional re-scored values plus
// discrete feedback moments.
type DeepAnalysis struct {
	Overall    float64        `json:"overall"`
	Categories CategoryScores `json:"categories"`
	Outcome    Outcome        `json:"outcome"`
	Confidence float64        `json:"confidence"`
	Feedback   []FeedbackItem `json:"feedback"`
}

type FeedbackType string

const (
	FeedbackPositive          FeedbackType = "positive"
	FeedbackNegative          FeedbackType = "negative"
	FeedbackMissedOpportunity FeedbackType = "missed_opportunity"
)

// FeedbackItem is one coaching moment. Timestamp is the model-reported
// "M:SS" offset into the call; conversion to milliseconds happens at the
// persistence boundary.
type FeedbackItem struct {
	Category   string       `json:"category"`
	Timestamp  string       `json:"timestamp"`
	Type       FeedbackType `json:"type"`
	Content    string       `json:"content"`
	Suggestion string       `json:"suggestion,omitempty"`
	Excerpt    string       `json:"excerpt,omitempty"`
}

// Result is the final outcome of the two-stage pipeline.
type Result struct {
	Scores

	// Provider that produced the scores. When every provider failed this is
	// the last one attempted; when scoring was skipped for an empty
	// transcript it is "none".
	Provider string `json:"scoring_provider"`

	QuickLatencyMS int64 `json:"quick_latency_ms"`
	DeepLatencyMS  int64 `json:"deep_latency_ms"`

	Feedback []FeedbackItem `json:"feedback"`
}

const neutralScore = 5.0

// NeutralDefault is the fixed fallback used when scoring cannot run: all
// categories at 5, no decision, zero confidence. It guarantees scoring never
// blocks call completion.
func NeutralDefault() Scores {
	return Scores{
		Overall: neutralScore,
		Categories: CategoryScores{
			Opening:           neutralScore,
			Discovery:         neutralScore,
			ObjectionHandling: neutralScore,
			CallControl:       neutralScore,
			Closing:           neutralScore,
		},
		Outcome:    OutcomeNoDecision,
		Confidence: 0,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func (s *Scores) clamp() {
	s.Overall = clampScore(s.Overall)
	for _, c := range Categories() {
		s.Categories.Set(c, clampScore(s.Categories.Get(c)))
	}
	if s.Confidence < 0 {
		s.Confidence = 0
	}
	if s.Confidence > 1 {
		s.Confidence = 1
	}
}
