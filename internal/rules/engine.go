package rules

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/platform/logger"
)

// Engine loads the workspace rule set and evaluates messages against it.
type Engine struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

// NewEngine creates the rules engine. store may be nil in tests, in which
// case every workspace uses the default rule set.
func NewEngine(store Store, log *logger.Logger) *Engine {
	return &Engine{store: store, log: log, now: time.Now}
}

// EvaluateParams describes one inbound message.
type EvaluateParams struct {
	WorkspaceID uuid.UUID
	Message     string
	// LastMessageAt is the conversation's previous activity timestamp,
	// nil for a first contact.
	LastMessageAt *time.Time
	// DetectionWindowHours separates returning leads from new ones.
	DetectionWindowHours int
}

// Evaluate classifies the lead and runs the workspace rules. Config load
// failures degrade to the default rule set so the escalation keywords
// keep working.
func (e *Engine) Evaluate(ctx context.Context, p EvaluateParams) Result {
	cfg := DefaultConfig()
	if e.store != nil {
		stored, found, err := e.store.ConfigFor(ctx, p.WorkspaceID)
		if err != nil {
			e.log.Error("rules: config load failed, using defaults",
				"workspace_id", p.WorkspaceID.String(), "error", err)
		} else if found {
			cfg = stored
		}
	}

	leadType := DetectLeadType(p.LastMessageAt, p.DetectionWindowHours, e.now())
	result := Evaluate(cfg, p.Message, leadType)

	if result.Handled {
		e.log.Debug("rules: message handled",
			"workspace_id", p.WorkspaceID.String(),
			"rule", result.MatchedRule,
			"action", string(result.Action),
			"lead_type", string(result.LeadType))
	}
	return result
}
