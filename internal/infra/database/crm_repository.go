package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type CRMRepository struct {
	DB *sql.DB
}

func NewCRMRepository(db *sql.DB) *CRMRepository {
	return &CRMRepository{DB: db}
}

const crmColumns = `id, name, crm_type, access_token, refresh_token, client_id, client_secret,
	org_id, org_name, is_active, sync_leads, sync_contacts, sync_deals, sync_companies,
	sync_direction, field_mapping, last_sync_at, sync_count, error_count, last_error,
	metadata, created_at, updated_at`

func scanCRMConnection(row rowScanner) (*entity.CRMConnection, error) {
	var (
		c                                      entity.CRMConnection
		accessToken, refreshToken              sql.NullString
		clientID, clientSecret, orgID, orgName sql.NullString
		lastSyncAt                             sql.NullTime
		lastError                              sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.CRMType, &accessToken, &refreshToken, &clientID, &clientSecret,
		&orgID, &orgName, &c.IsActive, &c.SyncLeads, &c.SyncContacts, &c.SyncDeals, &c.SyncCompanies,
		&c.SyncDirection, &c.FieldMapping, &lastSyncAt, &c.SyncCount, &c.ErrorCount, &lastError,
		&c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AccessToken = fromNullString(accessToken)
	c.RefreshToken = fromNullString(refreshToken)
	c.ClientID = fromNullString(clientID)
	c.ClientSecret = fromNullString(clientSecret)
	c.OrgID = fromNullString(orgID)
	c.OrgName = fromNullString(orgName)
	c.LastSyncAt = fromNullTime(lastSyncAt)
	c.LastError = fromNullString(lastError)
	return &c, nil
}

func (r *CRMRepository) Create(ctx context.Context, c *entity.CRMConnection) error {
	query := `
		INSERT INTO crm_connections (name, crm_type, access_token, refresh_token,
			client_id, client_secret, org_id, org_name,
			is_active, sync_leads, sync_contacts, sync_deals, sync_companies,
			sync_direction, field_mapping, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		c.Name, c.CRMType, nullString(c.AccessToken), nullString(c.RefreshToken),
		nullString(c.ClientID), nullString(c.ClientSecret), nullString(c.OrgID), nullString(c.OrgName),
		c.IsActive, c.SyncLeads, c.SyncContacts, c.SyncDeals, c.SyncCompanies,
		c.SyncDirection, c.FieldMapping, c.Metadata,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CRMRepository) FindByID(ctx context.Context, id int64) (*entity.CRMConnection, error) {
	return scanCRMConnection(r.DB.QueryRowContext(ctx, `SELECT `+crmColumns+` FROM crm_connections WHERE id = $1`, id))
}

func (r *CRMRepository) List(ctx context.Context) ([]entity.CRMConnection, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+crmColumns+` FROM crm_connections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := make([]entity.CRMConnection, 0)
	for rows.Next() {
		c, err := scanCRMConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *c)
	}
	return conns, rows.Err()
}

// FirstActive returns the connection lead changes are mirrored to, or
// sql.ErrNoRows when none is configured.
func (r *CRMRepository) FirstActive(ctx context.Context) (*entity.CRMConnection, error) {
	return scanCRMConnection(r.DB.QueryRowContext(ctx,
		`SELECT `+crmColumns+` FROM crm_connections WHERE is_active ORDER BY id LIMIT 1`))
}

func (r *CRMRepository) Update(ctx context.Context, c *entity.CRMConnection) error {
	query := `
		UPDATE crm_connections SET
			name = $2, crm_type = $3, access_token = $4, refresh_token = $5,
			client_id = $6, client_secret = $7, org_id = $8, org_name = $9,
			is_active = $10, sync_leads = $11, sync_contacts = $12, sync_deals = $13,
			sync_companies = $14, sync_direction = $15, field_mapping = $16, metadata = $17,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		c.ID, c.Name, c.CRMType, nullString(c.AccessToken), nullString(c.RefreshToken),
		nullString(c.ClientID), nullString(c.ClientSecret), nullString(c.OrgID), nullString(c.OrgName),
		c.IsActive, c.SyncLeads, c.SyncContacts, c.SyncDeals,
		c.SyncCompanies, c.SyncDirection, c.FieldMapping, c.Metadata,
	).Scan(&c.UpdatedAt)
}

func (r *CRMRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM crm_connections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordSyncSuccess and RecordSyncFailure keep the per-connection sync
// stats; called by the queue worker after each job.
func (r *CRMRepository) RecordSyncSuccess(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE crm_connections
		SET last_sync_at = $2, sync_count = sync_count + 1, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, id, at)
	return err
}

func (r *CRMRepository) RecordSyncFailure(ctx context.Context, id int64, syncErr string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE crm_connections
		SET error_count = error_count + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`, id, syncErr)
	return err
}
