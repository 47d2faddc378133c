package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

const messageColumns = `id, lead_id, created_by, message_type, status,
	subject, body, language, is_ai_generated, ai_prompt, ai_model, ai_tokens_used,
	sent_at, delivered_at, opened_at, replied_at,
	external_id, thread_id, metadata, error_message, created_at, updated_at`

func scanMessage(row rowScanner) (*entity.Message, error) {
	var (
		m                                        entity.Message
		subject, language, aiPrompt, aiModel     sql.NullString
		externalID, threadID, errorMessage       sql.NullString
		aiTokens                                 sql.NullInt64
		sentAt, deliveredAt, openedAt, repliedAt sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.LeadID, &m.CreatedBy, &m.MessageType, &m.Status,
		&subject, &m.Body, &language, &m.IsAIGenerated, &aiPrompt, &aiModel, &aiTokens,
		&sentAt, &deliveredAt, &openedAt, &repliedAt,
		&externalID, &threadID, &m.Metadata, &errorMessage, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Subject = fromNullString(subject)
	m.Language = fromNullString(language)
	m.AIPrompt = fromNullString(aiPrompt)
	m.AIModel = fromNullString(aiModel)
	m.AITokensUsed = fromNullInt(aiTokens)
	m.SentAt = fromNullTime(sentAt)
	m.DeliveredAt = fromNullTime(deliveredAt)
	m.OpenedAt = fromNullTime(openedAt)
	m.RepliedAt = fromNullTime(repliedAt)
	m.ExternalID = fromNullString(externalID)
	m.ThreadID = fromNullString(threadID)
	m.ErrorMessage = fromNullString(errorMessage)
	return &m, nil
}

func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	query := `
		INSERT INTO messages (lead_id, created_by, message_type, status,
			subject, body, language, is_ai_generated, ai_prompt, ai_model, ai_tokens_used,
			external_id, thread_id, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		m.LeadID, m.CreatedBy, m.MessageType, m.Status,
		nullString(m.Subject), m.Body, nullString(m.Language),
		m.IsAIGenerated, nullString(m.AIPrompt), nullString(m.AIModel), nullInt(m.AITokensUsed),
		nullString(m.ExternalID), nullString(m.ThreadID), m.Metadata,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*entity.Message, error) {
	return scanMessage(r.DB.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

type MessageFilter struct {
	CreatorID   *int64
	LeadID      *int64
	MessageType string
	Status      string
	Skip        int
	Limit       int
}

func (r *MessageRepository) List(ctx context.Context, f MessageFilter) ([]entity.Message, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CreatorID != nil {
		conds = append(conds, "created_by = "+arg(*f.CreatorID))
	}
	if f.LeadID != nil {
		conds = append(conds, "lead_id = "+arg(*f.LeadID))
	}
	if f.MessageType != "" {
		conds = append(conds, "message_type = "+arg(f.MessageType))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + messageColumns + " FROM messages" + where +
		" ORDER BY created_at DESC OFFSET " + arg(f.Skip) + " LIMIT " + arg(f.Limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]entity.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, *m)
	}
	return messages, total, rows.Err()
}

func (r *MessageRepository) Update(ctx context.Context, m *entity.Message) error {
	query := `
		UPDATE messages SET
			message_type = $2, status = $3, subject = $4, body = $5, language = $6,
			external_id = $7, thread_id = $8, metadata = $9, error_message = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		m.ID, m.MessageType, m.Status, nullString(m.Subject), m.Body, nullString(m.Language),
		nullString(m.ExternalID), nullString(m.ThreadID), m.Metadata, nullString(m.ErrorMessage),
	).Scan(&m.UpdatedAt)
}

// MarkSent transitions a message after an SMTP attempt: sent with a
// timestamp on success, failed with the error recorded otherwise.
func (r *MessageRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE messages SET status = $2, sent_at = $3, error_message = NULL, updated_at = NOW() WHERE id = $1`,
		id, entity.MessageSent, sentAt)
	return err
}

func (r *MessageRepository) MarkFailed(ctx context.Context, id int64, sendErr string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE messages SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1`,
		id, entity.MessageFailed, sendErr)
	return err
}
