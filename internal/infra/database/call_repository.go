package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type CallRepository struct {
	DB *sql.DB
}

func NewCallRepository(db *sql.DB) *CallRepository {
	return &CallRepository{DB: db}
}

const callColumns = `id, lead_id, agent_id, from_number, to_number, direction, status,
	start_time, end_time, duration_seconds,
	recording_url, recording_duration, consent_given,
	external_call_id, provider, metadata, error_message, created_at, updated_at`

func scanCall(row rowScanner) (*entity.Call, error) {
	var (
		c                                       entity.Call
		leadID, duration, recordingDuration     sql.NullInt64
		startTime, endTime                      sql.NullTime
		recordingURL, externalID, provider, msg sql.NullString
	)
	err := row.Scan(
		&c.ID, &leadID, &c.AgentID, &c.FromNumber, &c.ToNumber, &c.Direction, &c.Status,
		&startTime, &endTime, &duration,
		&recordingURL, &recordingDuration, &c.ConsentGiven,
		&externalID, &provider, &c.Metadata, &msg, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.LeadID = fromNullInt(leadID)
	c.StartTime = fromNullTime(startTime)
	c.EndTime = fromNullTime(endTime)
	c.DurationSeconds = fromNullInt(duration)
	c.RecordingURL = fromNullString(recordingURL)
	c.RecordingDuration = fromNullInt(recordingDuration)
	c.ExternalCallID = fromNullString(externalID)
	c.Provider = fromNullString(provider)
	c.ErrorMessage = fromNullString(msg)
	return &c, nil
}

func (r *CallRepository) Create(ctx context.Context, c *entity.Call) error {
	query := `
		INSERT INTO calls (lead_id, agent_id, from_number, to_number, direction, status,
			start_time, end_time, duration_seconds,
			recording_url, recording_duration, consent_given,
			external_call_id, provider, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		nullInt(c.LeadID), c.AgentID, c.FromNumber, c.ToNumber, c.Direction, c.Status,
		nullTime(c.StartTime), nullTime(c.EndTime), nullInt(c.DurationSeconds),
		nullString(c.RecordingURL), nullInt(c.RecordingDuration), c.ConsentGiven,
		nullString(c.ExternalCallID), nullString(c.Provider), c.Metadata,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CallRepository) FindByID(ctx context.Context, id int64) (*entity.Call, error) {
	return scanCall(r.DB.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id))
}

type CallFilter struct {
	AgentID   *int64
	LeadID    *int64
	Direction string
	Status    string
	Skip      int
	Limit     int
}

func (r *CallRepository) List(ctx context.Context, f CallFilter) ([]entity.Call, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AgentID != nil {
		conds = append(conds, "agent_id = "+arg(*f.AgentID))
	}
	if f.LeadID != nil {
		conds = append(conds, "lead_id = "+arg(*f.LeadID))
	}
	if f.Direction != "" {
		conds = append(conds, "direction = "+arg(f.Direction))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM calls"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + callColumns + " FROM calls" + where +
		" ORDER BY created_at DESC OFFSET " + arg(f.Skip) + " LIMIT " + arg(f.Limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	calls := make([]entity.Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, 0, err
		}
		calls = append(calls, *c)
	}
	return calls, total, rows.Err()
}

func (r *CallRepository) Update(ctx context.Context, c *entity.Call) error {
	query := `
		UPDATE calls SET
			status = $2, start_time = $3, end_time = $4, duration_seconds = $5,
			recording_url = $6, recording_duration = $7, consent_given = $8,
			external_call_id = $9, provider = $10, metadata = $11, error_message = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		c.ID, c.Status, nullTime(c.StartTime), nullTime(c.EndTime), nullInt(c.DurationSeconds),
		nullString(c.RecordingURL), nullInt(c.RecordingDuration), c.ConsentGiven,
		nullString(c.ExternalCallID), nullString(c.Provider), c.Metadata, nullString(c.ErrorMessage),
	).Scan(&c.UpdatedAt)
}
