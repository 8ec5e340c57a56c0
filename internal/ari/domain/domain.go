// Package domain provides core value types for the lead qualification engine.
// Everything here is pure data with no I/O so the scoring, routing, and state
// machine packages stay deterministic and unit-testable.
package domain

import "strings"

// State is a conversation's position in the qualification journey.
type State string

const (
	StateGreeting   State = "greeting"
	StateQualifying State = "qualifying"
	StateScoring    State = "scoring"
	StateBooking    State = "booking"
	StatePayment    State = "payment"
	StateScheduling State = "scheduling"
	StateHandoff    State = "handoff"
	StateCompleted  State = "completed"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateGreeting, StateQualifying, StateScoring, StateBooking,
		StatePayment, StateScheduling, StateHandoff, StateCompleted:
		return true
	}
	return false
}

// Temperature is the coarse lead bucket derived from the score.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// LeadStatus maps a temperature to the CRM lead status shown to agents.
func (t Temperature) LeadStatus() string {
	switch t {
	case TemperatureHot:
		return "hot_lead"
	case TemperatureCold:
		return "cold_lead"
	default:
		return "prospect"
	}
}

// RoutingAction is the transient decision produced by the routing policy.
// It is consumed synchronously by the state machine and never persisted.
type RoutingAction string

const (
	ActionContinueQualifying RoutingAction = "continue_qualifying"
	ActionHandoffHot         RoutingAction = "handoff_hot"
	ActionHandoffWarm        RoutingAction = "handoff_warm"
	ActionSendCommunityCold  RoutingAction = "send_community_cold"
	ActionContinueNurturing  RoutingAction = "continue_nurturing"
)

// FormData is the free-form qualification data collected from a lead.
type FormData map[string]string

// Get returns the trimmed value for a field.
func (f FormData) Get(field string) string {
	return strings.TrimSpace(f[field])
}

// Has reports whether a field is present and non-empty.
func (f FormData) Has(field string) bool {
	return f.Get(field) != ""
}

// Clone returns a copy safe to mutate.
func (f FormData) Clone() FormData {
	out := make(FormData, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// DocumentStatus tracks readiness of the four study-abroad documents.
// nil means the lead has not been asked yet.
type DocumentStatus struct {
	Passport    *bool `json:"passport,omitempty"`
	CV          *bool `json:"cv,omitempty"`
	EnglishTest *bool `json:"english_test,omitempty"`
	Transcript  *bool `json:"transcript,omitempty"`
}

// Answer returns the recorded answer for a document key, or nil when
// the lead has not answered (or the key is unknown).
func (d DocumentStatus) Answer(key string) *bool {
	switch key {
	case "passport":
		return d.Passport
	case "cv":
		return d.CV
	case "english_test":
		return d.EnglishTest
	case "transcript":
		return d.Transcript
	}
	return nil
}

// SetAnswer records an answer for a document key.
func (d *DocumentStatus) SetAnswer(key string, value bool) {
	switch key {
	case "passport":
		d.Passport = &value
	case "cv":
		d.CV = &value
	case "english_test":
		d.EnglishTest = &value
	case "transcript":
		d.Transcript = &value
	}
}

// AllAsked reports whether every document has a known answer.
func (d DocumentStatus) AllAsked() bool {
	return d.Passport != nil && d.CV != nil && d.EnglishTest != nil && d.Transcript != nil
}

// ReadyCount returns the number of documents confirmed ready.
func (d DocumentStatus) ReadyCount() int {
	count := 0
	for _, flag := range []*bool{d.Passport, d.CV, d.EnglishTest, d.Transcript} {
		if flag != nil && *flag {
			count++
		}
	}
	return count
}

// ScoreBreakdown itemizes the four scoring components.
type ScoreBreakdown struct {
	BasicScore         float64 `json:"basic_score"`
	QualificationScore float64 `json:"qualification_score"`
	DocumentScore      float64 `json:"document_score"`
	EngagementScore    float64 `json:"engagement_score"`
}

// ScoreResult is the full output of the scoring engine. Reasons is a
// human-readable trace of which rules fired, for agent-facing transparency.
type ScoreResult struct {
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Reasons   []string       `json:"reasons"`
}

// Weights holds the scoring point values and thresholds. Operators can tune
// these per workspace; Defaults() matches the stock model.
type Weights struct {
	HotThreshold             int
	WarmThreshold            int
	NameWeight               int
	EmailWeight              int
	ValidEmailBonus          int
	QualificationFieldWeight int
	TimelinePenalty          int
	IELTSBonus               int
	DocumentWeight           float64
	DefaultEngagement        int
	AutoHandoffMessageLimit  int
	WarmHandoffMessageLimit  int
}

// Defaults returns the stock scoring weights.
func Defaults() Weights {
	return Weights{
		HotThreshold:             70,
		WarmThreshold:            40,
		NameWeight:               15,
		EmailWeight:              5,
		ValidEmailBonus:          5,
		QualificationFieldWeight: 10,
		TimelinePenalty:          10,
		IELTSBonus:               3,
		DocumentWeight:           7.5,
		DefaultEngagement:        5,
		AutoHandoffMessageLimit:  10,
		WarmHandoffMessageLimit:  5,
	}
}

// TemperatureFor classifies a score using the configured thresholds.
// Total and monotonic over all integers.
func (w Weights) TemperatureFor(score int) Temperature {
	switch {
	case score >= w.HotThreshold:
		return TemperatureHot
	case score >= w.WarmThreshold:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}
