package database

import (
	"context"
	"database/sql"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type InstagramRepository struct {
	DB *sql.DB
}

func NewInstagramRepository(db *sql.DB) *InstagramRepository {
	return &InstagramRepository{DB: db}
}

const instagramColumns = `id, username, business_account_id, profile_url, followers_count,
	access_token, status, connected_at, last_sync_at, metadata, created_at, updated_at`

func scanInstagramAccount(row rowScanner) (*entity.InstagramAccount, error) {
	var (
		a                            entity.InstagramAccount
		businessID, profileURL       sql.NullString
		followers                    sql.NullInt64
		accessToken                  sql.NullString
		connectedAt, lastSyncAt      sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Username, &businessID, &profileURL, &followers,
		&accessToken, &a.Status, &connectedAt, &lastSyncAt, &a.Metadata,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.BusinessAccountID = fromNullString(businessID)
	a.ProfileURL = fromNullString(profileURL)
	a.FollowersCount = fromNullInt(followers)
	a.AccessToken = fromNullString(accessToken)
	a.ConnectedAt = fromNullTime(connectedAt)
	a.LastSyncAt = fromNullTime(lastSyncAt)
	return &a, nil
}

// Get returns the single configured account, or sql.ErrNoRows.
func (r *InstagramRepository) Get(ctx context.Context) (*entity.InstagramAccount, error) {
	return scanInstagramAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+instagramColumns+` FROM instagram_accounts ORDER BY id LIMIT 1`))
}

func (r *InstagramRepository) Create(ctx context.Context, a *entity.InstagramAccount) error {
	query := `
		INSERT INTO instagram_accounts (username, business_account_id, profile_url,
			followers_count, access_token, status, connected_at, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		a.Username, nullString(a.BusinessAccountID), nullString(a.ProfileURL),
		nullInt(a.FollowersCount), nullString(a.AccessToken), a.Status,
		nullTime(a.ConnectedAt), a.Metadata,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *InstagramRepository) Update(ctx context.Context, a *entity.InstagramAccount) error {
	query := `
		UPDATE instagram_accounts SET
			username = $2, business_account_id = $3, profile_url = $4,
			followers_count = $5, access_token = $6, status = $7,
			connected_at = $8, last_sync_at = $9, metadata = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		a.ID, a.Username, nullString(a.BusinessAccountID), nullString(a.ProfileURL),
		nullInt(a.FollowersCount), nullString(a.AccessToken), a.Status,
		nullTime(a.ConnectedAt), nullTime(a.LastSyncAt), a.Metadata,
	).Scan(&a.UpdatedAt)
}
