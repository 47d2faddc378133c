package database

import (
	"context"
	"database/sql"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

type ForecastRepository struct {
	DB *sql.DB
}

func NewForecastRepository(db *sql.DB) *ForecastRepository {
	return &ForecastRepository{DB: db}
}

const forecastColumns = `id, period_type, period_start, period_end,
	predicted_revenue, predicted_deals, predicted_leads,
	accuracy_score, confidence_level,
	model_name, model_version, model_parameters,
	actual_revenue, actual_deals, actual_leads,
	manager_breakdown, product_breakdown, notes, created_at, updated_at`

func scanForecast(row rowScanner) (*entity.Forecast, error) {
	var (
		f                        entity.Forecast
		accuracy, confidence     sql.NullFloat64
		modelName, modelVersion  sql.NullString
		actualRevenue            sql.NullFloat64
		actualDeals, actualLeads sql.NullInt64
		notes                    sql.NullString
	)
	err := row.Scan(
		&f.ID, &f.PeriodType, &f.PeriodStart, &f.PeriodEnd,
		&f.PredictedRevenue, &f.PredictedDeals, &f.PredictedLeads,
		&accuracy, &confidence,
		&modelName, &modelVersion, &f.ModelParameters,
		&actualRevenue, &actualDeals, &actualLeads,
		&f.ManagerBreakdown, &f.ProductBreakdown, &notes, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.AccuracyScore = fromNullFloat(accuracy)
	f.ConfidenceLevel = fromNullFloat(confidence)
	f.ModelName = fromNullString(modelName)
	f.ModelVersion = fromNullString(modelVersion)
	f.ActualRevenue = fromNullFloat(actualRevenue)
	f.ActualDeals = fromNullInt(actualDeals)
	f.ActualLeads = fromNullInt(actualLeads)
	f.Notes = fromNullString(notes)
	return &f, nil
}

func (r *ForecastRepository) Create(ctx context.Context, f *entity.Forecast) error {
	query := `
		INSERT INTO forecasts (period_type, period_start, period_end,
			predicted_revenue, predicted_deals, predicted_leads,
			accuracy_score, confidence_level,
			model_name, model_version, model_parameters,
			manager_breakdown, product_breakdown, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		f.PeriodType, f.PeriodStart, f.PeriodEnd,
		f.PredictedRevenue, f.PredictedDeals, f.PredictedLeads,
		nullFloat(f.AccuracyScore), nullFloat(f.ConfidenceLevel),
		nullString(f.ModelName), nullString(f.ModelVersion), f.ModelParameters,
		f.ManagerBreakdown, f.ProductBreakdown, nullString(f.Notes),
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *ForecastRepository) FindByID(ctx context.Context, id int64) (*entity.Forecast, error) {
	return scanForecast(r.DB.QueryRowContext(ctx, `SELECT `+forecastColumns+` FROM forecasts WHERE id = $1`, id))
}

func (r *ForecastRepository) List(ctx context.Context) ([]entity.Forecast, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+forecastColumns+` FROM forecasts ORDER BY period_start DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forecasts := make([]entity.Forecast, 0)
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		forecasts = append(forecasts, *f)
	}
	return forecasts, rows.Err()
}

func (r *ForecastRepository) Update(ctx context.Context, f *entity.Forecast) error {
	query := `
		UPDATE forecasts SET
			period_type = $2, period_start = $3, period_end = $4,
			predicted_revenue = $5, predicted_deals = $6, predicted_leads = $7,
			accuracy_score = $8, confidence_level = $9,
			model_name = $10, model_version = $11, model_parameters = $12,
			actual_revenue = $13, actual_deals = $14, actual_leads = $15,
			manager_breakdown = $16, product_breakdown = $17, notes = $18,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		f.ID, f.PeriodType, f.PeriodStart, f.PeriodEnd,
		f.PredictedRevenue, f.PredictedDeals, f.PredictedLeads,
		nullFloat(f.AccuracyScore), nullFloat(f.ConfidenceLevel),
		nullString(f.ModelName), nullString(f.ModelVersion), f.ModelParameters,
		nullFloat(f.ActualRevenue), nullInt(f.ActualDeals), nullInt(f.ActualLeads),
		f.ManagerBreakdown, f.ProductBreakdown, nullString(f.Notes),
	).Scan(&f.UpdatedAt)
}

func (r *ForecastRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM forecasts WHERE id = $1`, id)
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
