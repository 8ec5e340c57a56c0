package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/platform/apperr"
)

// SearchCriteria filters destination matching.
type SearchCriteria struct {
	Country   string
	MaxBudget *int64
	MinIELTS  *float64
	Program   string
}

// Store reads and writes the workspace destination knowledge base.
type Store interface {
	ForCountry(ctx context.Context, workspaceID uuid.UUID, country string) ([]Destination, error)
	FindMatching(ctx context.Context, workspaceID uuid.UUID, criteria SearchCriteria) ([]Destination, error)
	Promoted(ctx context.Context, workspaceID uuid.UUID, limit int) ([]Destination, error)
	Create(ctx context.Context, d Destination) (Destination, error)
	Update(ctx context.Context, d Destination) (Destination, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
	List(ctx context.Context, workspaceID uuid.UUID) ([]Destination, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed destination store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const destinationColumns = `id, workspace_id, country, COALESCE(city, ''), university_name,
	requirements, programs, is_promoted, priority, COALESCE(notes, '')`

func scanDestination(row pgx.Row) (Destination, error) {
	var d Destination
	var requirements []byte
	err := row.Scan(&d.ID, &d.WorkspaceID, &d.Country, &d.City, &d.UniversityName,
		&requirements, &d.Programs, &d.IsPromoted, &d.Priority, &d.Notes)
	if err != nil {
		return Destination{}, err
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &d.Requirements); err != nil {
			return Destination{}, fmt.Errorf("decode requirements: %w", err)
		}
	}
	return d, nil
}

func collectDestinations(rows pgx.Rows) ([]Destination, error) {
	defer rows.Close()
	var out []Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *pgStore) ForCountry(ctx context.Context, workspaceID uuid.UUID, country string) ([]Destination, error) {
	if country == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations
		WHERE workspace_id = $1 AND country ILIKE $2
		ORDER BY is_promoted DESC, priority DESC`,
		workspaceID, NormalizeCountry(country))
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	return collectDestinations(rows)
}

func (s *pgStore) FindMatching(ctx context.Context, workspaceID uuid.UUID, criteria SearchCriteria) ([]Destination, error) {
	query := `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE workspace_id = $1`
	args := []interface{}{workspaceID}

	if criteria.Country != "" {
		args = append(args, NormalizeCountry(criteria.Country))
		query += fmt.Sprintf(" AND country ILIKE $%d", len(args))
	}
	if criteria.MaxBudget != nil {
		args = append(args, *criteria.MaxBudget)
		query += fmt.Sprintf(" AND (requirements->>'budget_min') IS NOT NULL AND (requirements->>'budget_min')::bigint <= $%d", len(args))
	}
	if criteria.MinIELTS != nil {
		args = append(args, *criteria.MinIELTS)
		query += fmt.Sprintf(" AND (requirements->>'ielts_min') IS NOT NULL AND (requirements->>'ielts_min')::float8 <= $%d", len(args))
	}
	if criteria.Program != "" {
		args = append(args, "%"+criteria.Program+"%")
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(programs) p WHERE p ILIKE $%d)", len(args))
	}
	query += " ORDER BY is_promoted DESC, priority DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matching destinations: %w", err)
	}
	return collectDestinations(rows)
}

func (s *pgStore) Promoted(ctx context.Context, workspaceID uuid.UUID, limit int) ([]Destination, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations
		WHERE workspace_id = $1 AND is_promoted = true
		ORDER BY priority DESC
		LIMIT $2`,
		workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query promoted destinations: %w", err)
	}
	return collectDestinations(rows)
}

func (s *pgStore) List(ctx context.Context, workspaceID uuid.UUID) ([]Destination, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations
		WHERE workspace_id = $1
		ORDER BY country, is_promoted DESC, priority DESC`,
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return collectDestinations(rows)
}

func (s *pgStore) Create(ctx context.Context, d Destination) (Destination, error) {
	requirements, err := json.Marshal(d.Requirements)
	if err != nil {
		return Destination{}, fmt.Errorf("encode requirements: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO destinations (workspace_id, country, city, university_name, requirements, programs, is_promoted, priority, notes)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING `+destinationColumns,
		d.WorkspaceID, NormalizeCountry(d.Country), d.City, d.UniversityName,
		requirements, d.Programs, d.IsPromoted, d.Priority, d.Notes)
	return scanDestination(row)
}

func (s *pgStore) Update(ctx context.Context, d Destination) (Destination, error) {
	requirements, err := json.Marshal(d.Requirements)
	if err != nil {
		return Destination{}, fmt.Errorf("encode requirements: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE destinations
		SET country = $3, city = NULLIF($4, ''), university_name = $5, requirements = $6,
		    programs = $7, is_promoted = $8, priority = $9, notes = NULLIF($10, '')
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+destinationColumns,
		d.WorkspaceID, d.ID, NormalizeCountry(d.Country), d.City, d.UniversityName,
		requirements, d.Programs, d.IsPromoted, d.Priority, d.Notes)
	out, err := scanDestination(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Destination{}, apperr.NotFound("destination not found")
	}
	return out, err
}

func (s *pgStore) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM destinations WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("destination not found")
	}
	return nil
}
