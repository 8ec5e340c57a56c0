package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/platform/apperr"
)

// Rule kinds as stored.
const (
	KindTrigger = "trigger"
	KindFAQ     = "faq"
)

// Rule is one stored workspace rule row. Triggers and FAQ templates share
// the table; FAQ rows ignore action, match_mode, and case_sensitive.
type Rule struct {
	ID            uuid.UUID
	WorkspaceID   uuid.UUID
	Kind          string
	Name          string
	Keywords      []string
	Action        Action
	Response      string
	MatchMode     MatchMode
	CaseSensitive bool
	Enabled       bool
	Priority      int
}

// Store provides workspace rule persistence.
type Store interface {
	ConfigFor(ctx context.Context, workspaceID uuid.UUID) (Config, bool, error)
	List(ctx context.Context, workspaceID uuid.UUID) ([]Rule, error)
	Create(ctx context.Context, rule Rule) (Rule, error)
	Update(ctx context.Context, rule Rule) (Rule, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL rules store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const ruleColumns = `id, workspace_id, kind, name, keywords, action, response, match_mode, case_sensitive, enabled, priority`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	var action, matchMode string
	err := row.Scan(&r.ID, &r.WorkspaceID, &r.Kind, &r.Name, &r.Keywords,
		&action, &r.Response, &matchMode, &r.CaseSensitive, &r.Enabled, &r.Priority)
	r.Action = Action(action)
	r.MatchMode = MatchMode(matchMode)
	return r, err
}

// ConfigFor assembles the workspace's rule set. The second return value
// reports whether the workspace has any stored rules; callers fall back to
// DefaultConfig when it is false.
func (s *pgStore) ConfigFor(ctx context.Context, workspaceID uuid.UUID) (Config, bool, error) {
	items, err := s.List(ctx, workspaceID)
	if err != nil {
		return Config{}, false, err
	}
	if len(items) == 0 {
		return Config{}, false, nil
	}

	cfg := Config{AIFallbackEnabled: true}
	for _, r := range items {
		switch r.Kind {
		case KindTrigger:
			cfg.KeywordTriggers = append(cfg.KeywordTriggers, KeywordTrigger{
				ID:               r.ID.String(),
				Keywords:         r.Keywords,
				Action:           r.Action,
				ResponseTemplate: r.Response,
				CaseSensitive:    r.CaseSensitive,
				MatchMode:        r.MatchMode,
				Enabled:          r.Enabled,
			})
		case KindFAQ:
			cfg.FAQTemplates = append(cfg.FAQTemplates, FAQTemplate{
				ID:              r.ID.String(),
				TriggerKeywords: r.Keywords,
				Response:        r.Response,
				Enabled:         r.Enabled,
			})
		}
	}
	return cfg, true, nil
}

// List retrieves all rules for a workspace ordered by priority.
func (s *pgStore) List(ctx context.Context, workspaceID uuid.UUID) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE workspace_id = $1 ORDER BY priority ASC, created_at ASC`

	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create stores a new rule.
func (s *pgStore) Create(ctx context.Context, rule Rule) (Rule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	query := `
		INSERT INTO rules (id, workspace_id, kind, name, keywords, action, response, match_mode, case_sensitive, enabled, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + ruleColumns

	out, err := scanRule(s.pool.QueryRow(ctx, query,
		rule.ID, rule.WorkspaceID, rule.Kind, rule.Name, rule.Keywords,
		string(rule.Action), rule.Response, string(rule.MatchMode), rule.CaseSensitive, rule.Enabled, rule.Priority))
	if err != nil {
		return Rule{}, fmt.Errorf("create rule: %w", err)
	}
	return out, nil
}

// Update replaces a rule's definition.
func (s *pgStore) Update(ctx context.Context, rule Rule) (Rule, error) {
	query := `
		UPDATE rules SET
			name = $3, keywords = $4, action = $5, response = $6,
			match_mode = $7, case_sensitive = $8, enabled = $9, priority = $10,
			updated_at = now()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + ruleColumns

	out, err := scanRule(s.pool.QueryRow(ctx, query,
		rule.ID, rule.WorkspaceID, rule.Name, rule.Keywords,
		string(rule.Action), rule.Response, string(rule.MatchMode), rule.CaseSensitive, rule.Enabled, rule.Priority))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, apperr.NotFound("rule not found")
		}
		return Rule{}, fmt.Errorf("update rule: %w", err)
	}
	return out, nil
}

// Delete removes a rule.
func (s *pgStore) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rules WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("rule not found")
	}
	return nil
}
