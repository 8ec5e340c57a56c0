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

const conversationNotFoundMessage = "conversation not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conversations repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const conversationColumns = `id, workspace_id, contact_id, state, unread_count, last_message_preview,
	last_message_at, messages_in_state, warm_message_count, pending_document_key,
	scheduling_day, handoff_summary, handoff_at, created_at, updated_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.ContactID, &c.State, &c.UnreadCount, &c.LastMessagePreview,
		&c.LastMessageAt, &c.MessagesInState, &c.WarmMessageCount, &c.PendingDocumentKey,
		&c.SchedulingDay, &c.HandoffSummary, &c.HandoffAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// FindOrCreate resolves the active conversation for a contact. The upsert
// keeps concurrent webhook deliveries converging on one row.
func (r *Repo) FindOrCreate(ctx context.Context, workspaceID, contactID uuid.UUID) (Conversation, error) {
	query := `
		INSERT INTO conversations (workspace_id, contact_id, state)
		VALUES ($1, $2, 'greeting')
		ON CONFLICT (workspace_id, contact_id) DO UPDATE SET updated_at = now()
		RETURNING ` + conversationColumns

	c, err := scanConversation(r.pool.QueryRow(ctx, query, workspaceID, contactID))
	if err != nil {
		return Conversation{}, fmt.Errorf("find or create conversation: %w", err)
	}
	return c, nil
}

// GetByID retrieves a conversation scoped to a workspace.
func (r *Repo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND workspace_id = $2`

	c, err := scanConversation(r.pool.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, apperr.NotFound(conversationNotFoundMessage)
		}
		return Conversation{}, fmt.Errorf("get conversation by id: %w", err)
	}
	return c, nil
}

// List retrieves conversations ordered by most recent activity.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Conversation, int, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	where := `WHERE workspace_id = $1`
	args := []interface{}{params.WorkspaceID}
	if params.State != nil {
		args = append(args, *params.State)
		where += fmt.Sprintf(` AND state = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM conversations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM conversations %s ORDER BY last_message_at DESC NULLS LAST LIMIT $%d OFFSET $%d`,
		conversationColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// SetState moves the conversation to a new state and resets the in-state
// message counter.
func (r *Repo) SetState(ctx context.Context, conversationID uuid.UUID, state domain.State) error {
	query := `
		UPDATE conversations
		SET state = $2, messages_in_state = 0, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, conversationID, string(state))
	if err != nil {
		return fmt.Errorf("set conversation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage)
	}
	return nil
}

// IncrementUnread atomically bumps the unread and in-state counters. The
// increment happens in SQL so concurrent webhook deliveries never lose
// updates to a read-modify-write race.
func (r *Repo) IncrementUnread(ctx context.Context, conversationID uuid.UUID, n int, warm bool) error {
	query := `
		UPDATE conversations SET
			unread_count = unread_count + $2,
			messages_in_state = messages_in_state + $2,
			warm_message_count = warm_message_count + CASE WHEN $3 THEN $2 ELSE 0 END,
			updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, conversationID, n, warm)
	if err != nil {
		return fmt.Errorf("increment unread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage)
	}
	return nil
}

// MarkRead clears the unread counter.
func (r *Repo) MarkRead(ctx context.Context, workspaceID, conversationID uuid.UUID) error {
	query := `UPDATE conversations SET unread_count = 0, updated_at = now() WHERE id = $1 AND workspace_id = $2`

	tag, err := r.pool.Exec(ctx, query, conversationID, workspaceID)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage)
	}
	return nil
}

// UpdatePreview stores the latest message preview and timestamp.
func (r *Repo) UpdatePreview(ctx context.Context, conversationID uuid.UUID, preview string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_preview = $2, last_message_at = $3, updated_at = now()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, conversationID, preview, at); err != nil {
		return fmt.Errorf("update conversation preview: %w", err)
	}
	return nil
}

// SetPendingDocument records which document the agent just asked about.
func (r *Repo) SetPendingDocument(ctx context.Context, conversationID uuid.UUID, key *string) error {
	query := `UPDATE conversations SET pending_document_key = $2, updated_at = now() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, conversationID, key); err != nil {
		return fmt.Errorf("set pending document: %w", err)
	}
	return nil
}

// SetSchedulingDay stores the weekday the lead picked during the slot dialog.
func (r *Repo) SetSchedulingDay(ctx context.Context, conversationID uuid.UUID, day *int) error {
	query := `UPDATE conversations SET scheduling_day = $2, updated_at = now() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, conversationID, day); err != nil {
		return fmt.Errorf("set scheduling day: %w", err)
	}
	return nil
}

// ClaimHandoff records the handoff summary only when the current episode has
// none yet. The WHERE clause makes the claim atomic, so exactly one caller
// wins even under concurrent processing.
func (r *Repo) ClaimHandoff(ctx context.Context, conversationID uuid.UUID, summary string) (bool, error) {
	query := `
		UPDATE conversations
		SET handoff_summary = $2, handoff_at = now(), updated_at = now()
		WHERE id = $1 AND handoff_summary IS NULL`

	tag, err := r.pool.Exec(ctx, query, conversationID, summary)
	if err != nil {
		return false, fmt.Errorf("claim handoff: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ResetEpisode clears handoff bookkeeping and counters, returning the
// conversation to the start of the journey.
func (r *Repo) ResetEpisode(ctx context.Context, workspaceID, conversationID uuid.UUID) error {
	query := `
		UPDATE conversations SET
			state = 'greeting', messages_in_state = 0, warm_message_count = 0,
			pending_document_key = NULL, scheduling_day = NULL,
			handoff_summary = NULL, handoff_at = NULL,
			updated_at = now()
		WHERE id = $1 AND workspace_id = $2`

	tag, err := r.pool.Exec(ctx, query, conversationID, workspaceID)
	if err != nil {
		return fmt.Errorf("reset conversation episode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage)
	}
	return nil
}

// ExistsByProviderID reports whether a provider message id has already been
// stored for the workspace. Dedup hits are a normal, frequent no-op.
func (r *Repo) ExistsByProviderID(ctx context.Context, workspaceID uuid.UUID, providerID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM messages WHERE workspace_id = $1 AND provider_message_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, workspaceID, providerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check provider message id: %w", err)
	}
	return exists, nil
}

const messageColumns = `id, workspace_id, conversation_id, direction, sender_type, message_type,
	content, provider_message_id, reply_to_provider_id, media_url, metadata, created_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.WorkspaceID, &m.ConversationID, &m.Direction, &m.SenderType, &m.MessageType,
		&m.Content, &m.ProviderMessageID, &m.ReplyToProviderID, &m.MediaURL, &m.Metadata, &m.CreatedAt,
	)
	return m, err
}

// Append stores a new message. The unique index on provider_message_id makes
// the insert a no-op under webhook retries; the stored row is returned either way.
func (r *Repo) Append(ctx context.Context, msg Message) (Message, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	query := `
		INSERT INTO messages
			(id, workspace_id, conversation_id, direction, sender_type, message_type,
			 content, provider_message_id, reply_to_provider_id, media_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (workspace_id, provider_message_id) WHERE provider_message_id IS NOT NULL
			DO UPDATE SET workspace_id = messages.workspace_id
		RETURNING ` + messageColumns

	out, err := scanMessage(r.pool.QueryRow(ctx, query,
		msg.ID, msg.WorkspaceID, msg.ConversationID, msg.Direction, msg.SenderType, msg.MessageType,
		msg.Content, msg.ProviderMessageID, msg.ReplyToProviderID, msg.MediaURL, msg.Metadata,
	))
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return out, nil
}

// ListRecent retrieves the newest messages for prompt context, oldest first.
func (r *Repo) ListRecent(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + `
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) AS recent
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListByConversation retrieves a message page for the dashboard, newest first.
func (r *Repo) ListByConversation(ctx context.Context, workspaceID, conversationID uuid.UUID, offset, limit int) ([]Message, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	countQuery := `SELECT count(*) FROM messages WHERE workspace_id = $1 AND conversation_id = $2`
	if err := r.pool.QueryRow(ctx, countQuery, workspaceID, conversationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE workspace_id = $1 AND conversation_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, workspaceID, conversationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
