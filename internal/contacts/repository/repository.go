package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/platform/apperr"
)

const contactNotFoundMessage = "contact not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contacts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const contactColumns = `id, workspace_id, phone, normalized_phone, name, form_data, document_status,
	lead_score, lead_temperature, lead_status, tags, assigned_to, created_at, updated_at`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.Phone, &c.NormalizedPhone, &c.Name, &c.FormData, &c.DocumentStatus,
		&c.LeadScore, &c.LeadTemperature, &c.LeadStatus, &c.Tags, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByID retrieves a contact scoped to a workspace.
func (r *Repo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND workspace_id = $2`

	c, err := scanContact(r.pool.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return Contact{}, fmt.Errorf("get contact by id: %w", err)
	}
	return c, nil
}

// GetByNormalizedPhone retrieves a contact by its normalized phone.
func (r *Repo) GetByNormalizedPhone(ctx context.Context, workspaceID uuid.UUID, normalizedPhone string) (Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE workspace_id = $1 AND normalized_phone = $2`

	c, err := scanContact(r.pool.QueryRow(ctx, query, workspaceID, normalizedPhone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return Contact{}, fmt.Errorf("get contact by phone: %w", err)
	}
	return c, nil
}

// List retrieves contacts with optional temperature filter and name/phone search.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Contact, int, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	where := `WHERE workspace_id = $1`
	args := []interface{}{params.WorkspaceID}

	if params.Temperature != nil {
		args = append(args, *params.Temperature)
		where += fmt.Sprintf(` AND lead_temperature = $%d`, len(args))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR phone LIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM contacts %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		contactColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// FindOrCreate resolves a contact by normalized phone, creating it on first
// inbound message. The upsert keeps concurrent webhook deliveries for the
// same phone converging on a single row.
func (r *Repo) FindOrCreate(ctx context.Context, workspaceID uuid.UUID, phone, normalizedPhone, name string) (Contact, error) {
	query := `
		INSERT INTO contacts (workspace_id, phone, normalized_phone, name, form_data, document_status, tags)
		VALUES ($1, $2, $3, $4, '{}', '{}', '{}')
		ON CONFLICT (workspace_id, normalized_phone) DO UPDATE SET
			name = CASE WHEN contacts.name = '' THEN EXCLUDED.name ELSE contacts.name END,
			updated_at = now()
		RETURNING ` + contactColumns

	c, err := scanContact(r.pool.QueryRow(ctx, query, workspaceID, phone, normalizedPhone, name))
	if err != nil {
		return Contact{}, fmt.Errorf("find or create contact: %w", err)
	}
	return c, nil
}

// Update applies partial profile updates. Form data fields are merged into
// the existing map; existing keys are overwritten by non-empty new values.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Contact, error) {
	query := `
		UPDATE contacts SET
			name = COALESCE($3, name),
			form_data = CASE WHEN $4::jsonb IS NULL THEN form_data ELSE form_data || $4::jsonb END,
			document_status = COALESCE($5, document_status),
			assigned_to = COALESCE($6, assigned_to),
			tags = (SELECT array_agg(DISTINCT t) FROM unnest(tags || $7::text[]) AS t),
			updated_at = now()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + contactColumns

	var formData interface{}
	if params.FormData != nil {
		formData = params.FormData
	}
	addTags := params.AddTags
	if addTags == nil {
		addTags = []string{}
	}

	c, err := scanContact(r.pool.QueryRow(ctx, query,
		params.ID, params.WorkspaceID, params.Name, formData, params.DocumentStatus, params.AssignedTo, addTags,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return c, nil
}

// UpdateScore persists a recomputed lead score and its derived buckets.
func (r *Repo) UpdateScore(ctx context.Context, params ScoreParams) error {
	query := `
		UPDATE contacts SET
			lead_score = $2, lead_temperature = $3, lead_status = $4, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, params.ID, params.LeadScore, params.LeadTemperature, params.LeadStatus)
	if err != nil {
		return fmt.Errorf("update contact score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// Merge folds a duplicate contact into the kept one inside a single
// transaction: profile fields prefer the kept contact's non-empty values,
// tags are unioned, the score takes the max, the duplicate's conversation
// folds into the kept contact's thread, appointments are reassigned, and
// the duplicate row is deleted. The delete is verified; a missed delete
// aborts the whole merge.
func (r *Repo) Merge(ctx context.Context, params MergeParams) (Contact, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Contact{}, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	kept, err := lockContact(ctx, tx, params.WorkspaceID, params.KeptContactID)
	if err != nil {
		return Contact{}, err
	}
	merged, err := lockContact(ctx, tx, params.WorkspaceID, params.MergedContactID)
	if err != nil {
		return Contact{}, err
	}

	if params.ActivePhone != kept.Phone && params.ActivePhone != merged.Phone {
		return Contact{}, apperr.Validation("active phone must belong to one of the merged contacts")
	}

	folded := foldContacts(kept, merged, params.ActivePhone)

	if err := reassignConversation(ctx, tx, params.WorkspaceID, kept.ID, merged.ID); err != nil {
		return Contact{}, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE appointments SET contact_id = $1 WHERE contact_id = $2`,
		kept.ID, merged.ID,
	); err != nil {
		return Contact{}, fmt.Errorf("reassign appointments: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND workspace_id = $2`, merged.ID, params.WorkspaceID)
	if err != nil {
		return Contact{}, fmt.Errorf("delete merged contact: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return Contact{}, fmt.Errorf("delete merged contact: expected 1 row, got %d", tag.RowsAffected())
	}

	updateQuery := `
		UPDATE contacts SET
			phone = $3, normalized_phone = $4, name = $5, form_data = $6, document_status = $7,
			lead_score = $8, lead_temperature = $9, lead_status = $10, tags = $11, assigned_to = $12,
			updated_at = now()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + contactColumns

	out, err := scanContact(tx.QueryRow(ctx, updateQuery,
		kept.ID, params.WorkspaceID, folded.Phone, folded.NormalizedPhone, folded.Name,
		folded.FormData, folded.DocumentStatus, folded.LeadScore, folded.LeadTemperature,
		folded.LeadStatus, folded.Tags, folded.AssignedTo,
	))
	if err != nil {
		return Contact{}, fmt.Errorf("update kept contact: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Contact{}, fmt.Errorf("commit merge: %w", err)
	}
	return out, nil
}

// threadSnapshot is the slice of a conversation row the merge needs to
// fold two threads into one.
type threadSnapshot struct {
	ID                 uuid.UUID
	UnreadCount        int
	LastMessagePreview string
	LastMessageAt      *time.Time
	WarmMessageCount   int
}

// reassignConversation moves the losing contact's thread to the kept
// contact. The schema allows one conversation per contact, so when both
// sides have a thread the losing thread's messages move into the kept
// one, the counters fold, and the emptied row is deleted.
func reassignConversation(ctx context.Context, tx pgx.Tx, workspaceID, keptContactID, mergedContactID uuid.UUID) error {
	losing, found, err := threadForContact(ctx, tx, workspaceID, mergedContactID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	kept, found, err := threadForContact(ctx, tx, workspaceID, keptContactID)
	if err != nil {
		return err
	}
	if !found {
		if _, err := tx.Exec(ctx,
			`UPDATE conversations SET contact_id = $1, updated_at = now() WHERE id = $2`,
			keptContactID, losing.ID,
		); err != nil {
			return fmt.Errorf("reassign conversation: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE messages SET conversation_id = $1 WHERE conversation_id = $2`,
		kept.ID, losing.ID,
	); err != nil {
		return fmt.Errorf("move merged messages: %w", err)
	}

	folded := foldThreads(kept, losing)
	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET
			unread_count = $2, last_message_preview = $3, last_message_at = $4,
			warm_message_count = $5, updated_at = now()
		WHERE id = $1`,
		kept.ID, folded.UnreadCount, folded.LastMessagePreview, folded.LastMessageAt, folded.WarmMessageCount,
	); err != nil {
		return fmt.Errorf("fold conversation counters: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, losing.ID)
	if err != nil {
		return fmt.Errorf("delete merged conversation: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("delete merged conversation: expected 1 row, got %d", tag.RowsAffected())
	}
	return nil
}

func threadForContact(ctx context.Context, tx pgx.Tx, workspaceID, contactID uuid.UUID) (threadSnapshot, bool, error) {
	var t threadSnapshot
	err := tx.QueryRow(ctx, `
		SELECT id, unread_count, last_message_preview, last_message_at, warm_message_count
		FROM conversations WHERE workspace_id = $1 AND contact_id = $2 FOR UPDATE`,
		workspaceID, contactID,
	).Scan(&t.ID, &t.UnreadCount, &t.LastMessagePreview, &t.LastMessageAt, &t.WarmMessageCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return threadSnapshot{}, false, nil
	}
	if err != nil {
		return threadSnapshot{}, false, fmt.Errorf("load conversation for merge: %w", err)
	}
	return t, true, nil
}

// foldThreads sums the activity counters and keeps whichever thread's
// last message is newer for the preview.
func foldThreads(kept, losing threadSnapshot) threadSnapshot {
	out := kept
	out.UnreadCount += losing.UnreadCount
	out.WarmMessageCount += losing.WarmMessageCount
	if losing.LastMessageAt != nil && (out.LastMessageAt == nil || losing.LastMessageAt.After(*out.LastMessageAt)) {
		out.LastMessageAt = losing.LastMessageAt
		out.LastMessagePreview = losing.LastMessagePreview
	}
	return out
}

func lockContact(ctx context.Context, tx pgx.Tx, workspaceID, id uuid.UUID) (Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND workspace_id = $2 FOR UPDATE`

	c, err := scanContact(tx.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return Contact{}, fmt.Errorf("lock contact: %w", err)
	}
	return c, nil
}

// foldContacts combines two contact rows. The kept contact's non-empty
// fields win; the score takes the max of the two.
func foldContacts(kept, merged Contact, activePhone string) Contact {
	out := kept

	if activePhone == merged.Phone {
		out.Phone = merged.Phone
		out.NormalizedPhone = merged.NormalizedPhone
	}
	if out.Name == "" {
		out.Name = merged.Name
	}

	formData := merged.FormData.Clone()
	if formData == nil {
		formData = domain.FormData{}
	}
	for k, v := range kept.FormData {
		if v != "" {
			formData[k] = v
		}
	}
	out.FormData = formData

	out.DocumentStatus = foldDocuments(kept.DocumentStatus, merged.DocumentStatus)

	if merged.LeadScore > out.LeadScore {
		out.LeadScore = merged.LeadScore
		out.LeadTemperature = merged.LeadTemperature
		out.LeadStatus = merged.LeadStatus
	}

	out.Tags = unionTags(kept.Tags, merged.Tags)

	if out.AssignedTo == nil {
		out.AssignedTo = merged.AssignedTo
	}
	return out
}

func foldDocuments(kept, merged domain.DocumentStatus) domain.DocumentStatus {
	out := kept
	if out.Passport == nil {
		out.Passport = merged.Passport
	}
	if out.CV == nil {
		out.CV = merged.CV
	}
	if out.EnglishTest == nil {
		out.EnglishTest = merged.EnglishTest
	}
	if out.Transcript == nil {
		out.Transcript = merged.Transcript
	}
	return out
}

func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, tag := range append(append([]string{}, a...), b...) {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
