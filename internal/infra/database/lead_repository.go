package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, name, email, phone, company, position, website,
	address, city, state, country, postal_code,
	industry, company_size, annual_revenue,
	status, score, score_category, source, source_data,
	assigned_to, tags, custom_fields, notes, crm_id, crm_type,
	created_at, updated_at, last_contacted, next_follow_up`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l                                              entity.Lead
		email, phone, company, position, website       sql.NullString
		address, city, state, country, postal          sql.NullString
		industry, companySize, annualRevenue           sql.NullString
		scoreCategory, source, notes, crmID, crmType   sql.NullString
		assignedTo                                     sql.NullInt64
		lastContacted, nextFollowUp                    sql.NullTime
	)

	err := row.Scan(
		&l.ID, &l.Name, &email, &phone, &company, &position, &website,
		&address, &city, &state, &country, &postal,
		&industry, &companySize, &annualRevenue,
		&l.Status, &l.Score, &scoreCategory, &source, &l.SourceData,
		&assignedTo, &l.Tags, &l.CustomFields, &notes, &crmID, &crmType,
		&l.CreatedAt, &l.UpdatedAt, &lastContacted, &nextFollowUp,
	)
	if err != nil {
		return nil, err
	}

	l.Email = fromNullString(email)
	l.Phone = fromNullString(phone)
	l.Company = fromNullString(company)
	l.Position = fromNullString(position)
	l.Website = fromNullString(website)
	l.Address = fromNullString(address)
	l.City = fromNullString(city)
	l.State = fromNullString(state)
	l.Country = fromNullString(country)
	l.PostalCode = fromNullString(postal)
	l.Industry = fromNullString(industry)
	l.CompanySize = fromNullString(companySize)
	l.AnnualRevenue = fromNullString(annualRevenue)
	l.ScoreCategory = fromNullString(scoreCategory)
	l.Source = fromNullString(source)
	l.Notes = fromNullString(notes)
	l.CRMID = fromNullString(crmID)
	l.CRMType = fromNullString(crmType)
	l.AssignedTo = fromNullInt(assignedTo)
	l.LastContacted = fromNullTime(lastContacted)
	l.NextFollowUp = fromNullTime(nextFollowUp)

	return &l, nil
}

func (r *LeadRepository) Create(ctx context.Context, l *entity.Lead) error {
	query := `
		INSERT INTO leads (
			name, email, phone, company, position, website,
			address, city, state, country, postal_code,
			industry, company_size, annual_revenue,
			status, score, score_category, source, source_data,
			assigned_to, tags, custom_fields, notes, crm_id, crm_type,
			next_follow_up
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		l.Name, nullString(l.Email), nullString(l.Phone), nullString(l.Company),
		nullString(l.Position), nullString(l.Website),
		nullString(l.Address), nullString(l.City), nullString(l.State),
		nullString(l.Country), nullString(l.PostalCode),
		nullString(l.Industry), nullString(l.CompanySize), nullString(l.AnnualRevenue),
		l.Status, l.Score, nullString(l.ScoreCategory), nullString(l.Source), l.SourceData,
		nullInt(l.AssignedTo), l.Tags, l.CustomFields, nullString(l.Notes),
		nullString(l.CRMID), nullString(l.CRMType),
		nullTime(l.NextFollowUp),
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(r.DB.QueryRowContext(ctx, query, id))
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1`
	return scanLead(r.DB.QueryRowContext(ctx, query, email))
}

// LeadFilter narrows List. OwnerID restricts visibility for non-admin
// callers; AssignedTo is the admin-side filter.
type LeadFilter struct {
	OwnerID       *int64
	AssignedTo    *int64
	Search        string
	Status        string
	ScoreCategory string
	Skip          int
	Limit         int
}

func (r *LeadRepository) List(ctx context.Context, f LeadFilter) ([]entity.Lead, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != nil {
		conds = append(conds, "assigned_to = "+arg(*f.OwnerID))
	} else if f.AssignedTo != nil {
		conds = append(conds, "assigned_to = "+arg(*f.AssignedTo))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR company ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.ScoreCategory != "" {
		conds = append(conds, "score_category = "+arg(f.ScoreCategory))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + leadColumns + " FROM leads" + where +
		" ORDER BY created_at DESC OFFSET " + arg(f.Skip) + " LIMIT " + arg(f.Limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]entity.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *l)
	}
	return leads, total, rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, l *entity.Lead) error {
	query := `
		UPDATE leads SET
			name = $2, email = $3, phone = $4, company = $5, position = $6, website = $7,
			address = $8, city = $9, state = $10, country = $11, postal_code = $12,
			industry = $13, company_size = $14, annual_revenue = $15,
			status = $16, score = $17, score_category = $18, source = $19, source_data = $20,
			assigned_to = $21, tags = $22, custom_fields = $23, notes = $24,
			crm_id = $25, crm_type = $26, next_follow_up = $27,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		l.ID, l.Name, nullString(l.Email), nullString(l.Phone), nullString(l.Company),
		nullString(l.Position), nullString(l.Website),
		nullString(l.Address), nullString(l.City), nullString(l.State),
		nullString(l.Country), nullString(l.PostalCode),
		nullString(l.Industry), nullString(l.CompanySize), nullString(l.AnnualRevenue),
		l.Status, l.Score, nullString(l.ScoreCategory), nullString(l.Source), l.SourceData,
		nullInt(l.AssignedTo), l.Tags, l.CustomFields, nullString(l.Notes),
		nullString(l.CRMID), nullString(l.CRMType), nullTime(l.NextFollowUp),
	).Scan(&l.UpdatedAt)
}

// Delete removes the lead; interactions go with it via ON DELETE CASCADE.
func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
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

func (r *LeadRepository) RecentByLead(ctx context.Context, leadID int64, limit int) ([]entity.LeadInteraction, error) {
	query := `
		SELECT id, lead_id, author_type, author_name, message, context, created_at
		FROM lead_interactions
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInteractions(rows)
}

// RecordExchange appends the operator message and the assistant reply and
// bumps last_contacted in one transaction.
func (r *LeadRepository) RecordExchange(ctx context.Context, leadID int64, operator, assistant *entity.LeadInteraction, contactedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range []*entity.LeadInteraction{operator, assistant} {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO lead_interactions (lead_id, author_type, author_name, message, context)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, leadID, it.AuthorType, nullString(it.AuthorName), it.Message, it.Context,
		).Scan(&it.ID, &it.CreatedAt)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE leads SET last_contacted = $2, updated_at = NOW() WHERE id = $1`,
		leadID, contactedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}
