// Package rules implements the deterministic fast path evaluated before
// the AI engine: keyword triggers (handoff, manager commands) and FAQ
// templates, plus new-versus-returning lead detection.
package rules

import (
	"strings"
	"time"
)

// Action is what a matched rule asks the pipeline to do.
type Action string

const (
	ActionHandoff     Action = "handoff"
	ActionManagerBot  Action = "manager_bot"
	ActionFAQResponse Action = "faq_response"
	ActionPassThrough Action = "pass_through"
)

// MatchMode controls how a trigger keyword is compared to the message.
type MatchMode string

const (
	MatchExact      MatchMode = "exact"
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "starts_with"
)

// LeadType classifies a sender by recency of their last message.
type LeadType string

const (
	LeadNew       LeadType = "new"
	LeadReturning LeadType = "returning"
)

// KeywordTrigger is a high-priority rule. Triggers are checked before FAQ
// templates and can escalate to a human or the manager bot.
type KeywordTrigger struct {
	ID               string
	Keywords         []string
	Action           Action
	ResponseTemplate string
	CaseSensitive    bool
	MatchMode        MatchMode
	Enabled          bool
}

// FAQTemplate answers a common question with canned copy.
type FAQTemplate struct {
	ID              string
	TriggerKeywords []string
	Response        string
	Enabled         bool
}

// Config is one workspace's rule set.
type Config struct {
	KeywordTriggers   []KeywordTrigger
	FAQTemplates      []FAQTemplate
	AIFallbackEnabled bool
}

// DefaultConfig is used for workspaces that have not configured any rules.
// The escalation triggers stay on so leads can always reach a human.
func DefaultConfig() Config {
	return Config{
		KeywordTriggers: []KeywordTrigger{
			{
				ID:        "handoff-trigger",
				Keywords:  []string{"human", "agent", "speak to person", "real person", "bicara dengan orang", "mau ngobrol sama orang"},
				Action:    ActionHandoff,
				MatchMode: MatchContains,
				Enabled:   true,
			},
			{
				ID:        "manager-trigger",
				Keywords:  []string{"!summary", "!report", "!analysis"},
				Action:    ActionManagerBot,
				MatchMode: MatchStartsWith,
				Enabled:   true,
			},
		},
		AIFallbackEnabled: true,
	}
}

// Match is the outcome of trying one rule set against a message.
type Match struct {
	RuleID         string
	Action         Action
	Response       string
	MatchedKeyword string
}

func normalize(text string, caseSensitive bool) string {
	trimmed := strings.TrimSpace(text)
	if caseSensitive {
		return trimmed
	}
	return strings.ToLower(trimmed)
}

func keywordMatches(message, keyword string, mode MatchMode, caseSensitive bool) bool {
	m := normalize(message, caseSensitive)
	k := normalize(keyword, caseSensitive)

	switch mode {
	case MatchExact:
		return m == k
	case MatchContains:
		return strings.Contains(m, k)
	case MatchStartsWith:
		return strings.HasPrefix(m, k)
	}
	return false
}

// MatchTrigger returns the first enabled keyword trigger matching the
// message, in configuration order.
func MatchTrigger(message string, triggers []KeywordTrigger) (Match, bool) {
	for _, trigger := range triggers {
		if !trigger.Enabled {
			continue
		}
		for _, keyword := range trigger.Keywords {
			if keywordMatches(message, keyword, trigger.MatchMode, trigger.CaseSensitive) {
				return Match{
					RuleID:         trigger.ID,
					Action:         trigger.Action,
					Response:       trigger.ResponseTemplate,
					MatchedKeyword: keyword,
				}, true
			}
		}
	}
	return Match{}, false
}

// MatchFAQ returns the first enabled FAQ template whose keyword appears in
// the message. FAQ matching is always case-insensitive contains.
func MatchFAQ(message string, templates []FAQTemplate) (Match, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, template := range templates {
		if !template.Enabled {
			continue
		}
		for _, keyword := range template.TriggerKeywords {
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return Match{
					RuleID:         template.ID,
					Action:         ActionFAQResponse,
					Response:       template.Response,
					MatchedKeyword: keyword,
				}, true
			}
		}
	}
	return Match{}, false
}

// IsCommand reports whether the message is a bot command ("!..." or "/...").
func IsCommand(message string) bool {
	trimmed := strings.TrimSpace(message)
	return strings.HasPrefix(trimmed, "!") || strings.HasPrefix(trimmed, "/")
}

// DetectLeadType classifies a sender as new or returning: a lead whose
// last message fell inside the detection window is returning; anyone else,
// including first-time senders, is new.
func DetectLeadType(lastMessageAt *time.Time, windowHours int, now time.Time) LeadType {
	if lastMessageAt == nil || windowHours <= 0 {
		return LeadNew
	}
	if now.Sub(*lastMessageAt) < time.Duration(windowHours)*time.Hour {
		return LeadReturning
	}
	return LeadNew
}

// Result is the contract between the rules engine and the message pipeline.
// Handled=false means the message falls through to the AI engine.
type Result struct {
	Handled              bool
	Action               Action
	Response             string
	LeadType             LeadType
	MatchedRule          string
	ShouldHandoff        bool
	ShouldTriggerManager bool
}

// Evaluate runs the rule set against one message: keyword triggers first,
// then FAQ templates, then fall through to AI (or a generic receipt when
// AI fallback is disabled).
func Evaluate(cfg Config, message string, leadType LeadType) Result {
	if match, ok := MatchTrigger(message, cfg.KeywordTriggers); ok {
		return Result{
			Handled:              true,
			Action:               match.Action,
			Response:             match.Response,
			LeadType:             leadType,
			MatchedRule:          match.RuleID,
			ShouldHandoff:        match.Action == ActionHandoff,
			ShouldTriggerManager: match.Action == ActionManagerBot,
		}
	}

	if match, ok := MatchFAQ(message, cfg.FAQTemplates); ok {
		return Result{
			Handled:     true,
			Action:      ActionFAQResponse,
			Response:    match.Response,
			LeadType:    leadType,
			MatchedRule: match.RuleID,
		}
	}

	if !cfg.AIFallbackEnabled {
		return Result{
			Handled:  true,
			Action:   ActionPassThrough,
			Response: "Pesan Anda telah diterima. Tim kami akan segera merespons.",
			LeadType: leadType,
		}
	}

	return Result{Handled: false, Action: ActionPassThrough, LeadType: leadType}
}
