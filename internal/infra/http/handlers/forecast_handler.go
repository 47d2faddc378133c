package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

// ForecastHandler serves revenue forecasts. Routes are restricted to
// analysts and admins at the router level.
type ForecastHandler struct {
	forecasts *database.ForecastRepository
}

func NewForecastHandler(forecasts *database.ForecastRepository) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts}
}

type forecastRequest struct {
	PeriodType  string    `json:"period_type"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	PredictedRevenue float64 `json:"predicted_revenue"`
	PredictedDeals   int64   `json:"predicted_deals"`
	PredictedLeads   int64   `json:"predicted_leads"`

	ConfidenceLevel *float64 `json:"confidence_level"`

	ModelName       string         `json:"model_name"`
	ModelVersion    string         `json:"model_version"`
	ModelParameters entity.JSONMap `json:"model_parameters"`

	ActualRevenue *float64 `json:"actual_revenue"`
	ActualDeals   *int64   `json:"actual_deals"`
	ActualLeads   *int64   `json:"actual_leads"`

	ManagerBreakdown entity.JSONMap `json:"manager_breakdown"`
	ProductBreakdown entity.JSONMap `json:"product_breakdown"`

	Notes string `json:"notes"`
}

func validPeriodType(t string) bool {
	switch t {
	case "monthly", "quarterly", "yearly":
		return true
	}
	return false
}

func (h *ForecastHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.forecasts.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("forecast list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list forecasts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

func (h *ForecastHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validPeriodType(req.PeriodType) {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "period_type must be monthly, quarterly or yearly")
		return
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "period_end must be after period_start")
		return
	}

	f := &entity.Forecast{
		PeriodType:       req.PeriodType,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		PredictedRevenue: req.PredictedRevenue,
		PredictedDeals:   req.PredictedDeals,
		PredictedLeads:   req.PredictedLeads,
		ConfidenceLevel:  req.ConfidenceLevel,
		ModelName:        req.ModelName,
		ModelVersion:     req.ModelVersion,
		ModelParameters:  req.ModelParameters,
		ActualRevenue:    req.ActualRevenue,
		ActualDeals:      req.ActualDeals,
		ActualLeads:      req.ActualLeads,
		ManagerBreakdown: req.ManagerBreakdown,
		ProductBreakdown: req.ProductBreakdown,
		Notes:            req.Notes,
	}
	if err := h.forecasts.Create(r.Context(), f); err != nil {
		log.Error().Err(err).Msg("forecast insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create forecast")
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (h *ForecastHandler) Update(w http.ResponseWriter, r *http.Request) {
	f, ok := h.load(w, r)
	if !ok {
		return
	}
	var req forecastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PeriodType != "" {
		if !validPeriodType(req.PeriodType) {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "period_type must be monthly, quarterly or yearly")
			return
		}
		f.PeriodType = req.PeriodType
	}
	if !req.PeriodStart.IsZero() {
		f.PeriodStart = req.PeriodStart
	}
	if !req.PeriodEnd.IsZero() {
		f.PeriodEnd = req.PeriodEnd
	}
	if !f.PeriodEnd.After(f.PeriodStart) {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "period_end must be after period_start")
		return
	}
	f.PredictedRevenue = req.PredictedRevenue
	f.PredictedDeals = req.PredictedDeals
	f.PredictedLeads = req.PredictedLeads
	f.ConfidenceLevel = req.ConfidenceLevel
	f.ModelName = req.ModelName
	f.ModelVersion = req.ModelVersion
	f.ModelParameters = req.ModelParameters
	f.ActualRevenue = req.ActualRevenue
	f.ActualDeals = req.ActualDeals
	f.ActualLeads = req.ActualLeads
	f.ManagerBreakdown = req.ManagerBreakdown
	f.ProductBreakdown = req.ProductBreakdown
	f.Notes = req.Notes

	if err := h.forecasts.Update(r.Context(), f); err != nil {
		log.Error().Err(err).Int64("forecast_id", f.ID).Msg("forecast update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update forecast")
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (h *ForecastHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "forecastID")
	if !ok {
		return
	}
	if err := h.forecasts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "forecast not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to delete forecast")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ForecastHandler) load(w http.ResponseWriter, r *http.Request) (*entity.Forecast, bool) {
	id, ok := pathID(w, r, "forecastID")
	if !ok {
		return nil, false
	}
	f, err := h.forecasts.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "forecast not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load forecast")
		return nil, false
	}
	return f, true
}
