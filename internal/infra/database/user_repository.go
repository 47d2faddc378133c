package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, username, full_name, hashed_password, role,
	is_active, is_verified, phone, avatar_url, timezone, language,
	created_at, updated_at, last_login`

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u                                   entity.User
		fullName, phone, avatar, tz, lang   sql.NullString
		lastLogin                           sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &fullName, &u.HashedPassword, &u.Role,
		&u.IsActive, &u.IsVerified, &phone, &avatar, &tz, &lang,
		&u.CreatedAt, &u.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	u.FullName = fromNullString(fullName)
	u.Phone = fromNullString(phone)
	u.AvatarURL = fromNullString(avatar)
	u.Timezone = fromNullString(tz)
	u.Language = fromNullString(lang)
	u.LastLogin = fromNullTime(lastLogin)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (email, username, full_name, hashed_password, role,
			is_active, is_verified, phone, avatar_url, timezone, language)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		u.Email, u.Username, nullString(u.FullName), u.HashedPassword, u.Role,
		u.IsActive, u.IsVerified, nullString(u.Phone), nullString(u.AvatarURL),
		nullString(u.Timezone), nullString(u.Language),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// ExistsByEmailOrUsername backs the uniqueness check on user creation.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		email, username,
	).Scan(&exists)
	return exists, err
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]entity.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET
			email = $2, username = $3, full_name = $4, hashed_password = $5, role = $6,
			is_active = $7, is_verified = $8, phone = $9, avatar_url = $10,
			timezone = $11, language = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		u.ID, u.Email, u.Username, nullString(u.FullName), u.HashedPassword, u.Role,
		u.IsActive, u.IsVerified, nullString(u.Phone), nullString(u.AvatarURL),
		nullString(u.Timezone), nullString(u.Language),
	).Scan(&u.UpdatedAt)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}
