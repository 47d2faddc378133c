package entity

import (
	"time"
)

type Forecast struct {
	ID int64 `json:"id"`

	PeriodType  string    `json:"period_type"` // monthly, quarterly, yearly
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	PredictedRevenue float64 `json:"predicted_revenue"`
	PredictedDeals   int64   `json:"predicted_deals"`
	PredictedLeads   int64   `json:"predicted_leads"`

	AccuracyScore   *float64 `json:"accuracy_score,omitempty"`
	ConfidenceLevel *float64 `json:"confidence_level,omitempty"`

	ModelName       string  `json:"model_name,omitempty"`
	ModelVersion    string  `json:"model_version,omitempty"`
	ModelParameters JSONMap `json:"model_parameters,omitempty"`

	ActualRevenue *float64 `json:"actual_revenue,omitempty"`
	ActualDeals   *int64   `json:"actual_deals,omitempty"`
	ActualLeads   *int64   `json:"actual_leads,omitempty"`

	ManagerBreakdown JSONMap `json:"manager_breakdown,omitempty"`
	ProductBreakdown JSONMap `json:"product_breakdown,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
