package database

import (
	"context"
	"database/sql"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type InteractionRepository struct {
	DB *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

// Append adds one interaction and bumps the lead's last_contacted, both in
// one transaction.
func (r *InteractionRepository) Append(ctx context.Context, it *entity.LeadInteraction) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO lead_interactions (lead_id, author_type, author_name, message, context)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, it.LeadID, it.AuthorType, nullString(it.AuthorName), it.Message, it.Context,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE leads SET last_contacted = NOW(), updated_at = NOW() WHERE id = $1`,
		it.LeadID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByLead returns the full log oldest-first.
func (r *InteractionRepository) ListByLead(ctx context.Context, leadID int64) ([]entity.LeadInteraction, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, author_type, author_name, message, context, created_at
		FROM lead_interactions
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInteractions(rows)
}

func collectInteractions(rows *sql.Rows) ([]entity.LeadInteraction, error) {
	items := make([]entity.LeadInteraction, 0)
	for rows.Next() {
		var (
			it         entity.LeadInteraction
			authorName sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.LeadID, &it.AuthorType, &authorName, &it.Message, &it.Context, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.AuthorName = fromNullString(authorName)
		items = append(items, it)
	}
	return items, rows.Err()
}
