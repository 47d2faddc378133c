package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

type CallHandler struct {
	calls *database.CallRepository
}

func NewCallHandler(calls *database.CallRepository) *CallHandler {
	return &CallHandler{calls: calls}
}

type createCallRequest struct {
	LeadID       *int64               `json:"lead_id"`
	FromNumber   string               `json:"from_number"`
	ToNumber     string               `json:"to_number"`
	Direction    entity.CallDirection `json:"direction"`
	ConsentGiven bool                 `json:"consent_given"`
	Provider     string               `json:"provider"`
	Metadata     entity.JSONMap       `json:"metadata"`
}

func (h *CallHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())
	limit, offset := pagination(r)

	q := r.URL.Query()
	filter := database.CallFilter{
		Direction: q.Get("direction"),
		Status:    q.Get("status"),
		Skip:      offset,
		Limit:     limit,
	}
	if leadID := int64(queryInt(r, "lead_id", 0)); leadID > 0 {
		filter.LeadID = &leadID
	}
	if !caller.IsAdmin() {
		filter.AgentID = &caller.ID
	}

	items, total, err := h.calls.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("call list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list calls")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *CallHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())

	var req createCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FromNumber == "" || req.ToNumber == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "from_number and to_number are required")
		return
	}
	if req.Direction == "" {
		req.Direction = entity.CallOutbound
	}
	if !req.Direction.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid direction")
		return
	}

	now := time.Now().UTC()
	call := &entity.Call{
		LeadID:       req.LeadID,
		AgentID:      caller.ID,
		FromNumber:   req.FromNumber,
		ToNumber:     req.ToNumber,
		Direction:    req.Direction,
		Status:       entity.CallInitiated,
		StartTime:    &now,
		ConsentGiven: req.ConsentGiven,
		Provider:     req.Provider,
		Metadata:     req.Metadata,
	}
	if err := h.calls.Create(r.Context(), call); err != nil {
		log.Error().Err(err).Msg("call insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create call")
		return
	}
	respondJSON(w, http.StatusCreated, call)
}

func (h *CallHandler) Get(w http.ResponseWriter, r *http.Request) {
	call, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, call)
}

type updateCallRequest struct {
	Status          *entity.CallStatus `json:"status"`
	EndTime         *time.Time         `json:"end_time"`
	DurationSeconds *int64             `json:"duration_seconds"`
	RecordingURL    *string            `json:"recording_url"`
	ErrorMessage    *string            `json:"error_message"`
}

func (h *CallHandler) Update(w http.ResponseWriter, r *http.Request) {
	call, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req updateCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid status")
			return
		}
		call.Status = *req.Status
	}
	if req.EndTime != nil {
		call.EndTime = req.EndTime
	}
	if req.DurationSeconds != nil {
		call.DurationSeconds = req.DurationSeconds
	}
	if req.RecordingURL != nil {
		call.RecordingURL = *req.RecordingURL
	}
	if req.ErrorMessage != nil {
		call.ErrorMessage = *req.ErrorMessage
	}

	if err := h.calls.Update(r.Context(), call); err != nil {
		log.Error().Err(err).Int64("call_id", call.ID).Msg("call update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update call")
		return
	}
	respondJSON(w, http.StatusOK, call)
}

func (h *CallHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*entity.Call, bool) {
	id, ok := pathID(w, r, "callID")
	if !ok {
		return nil, false
	}
	call, err := h.calls.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "call not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load call")
		return nil, false
	}
	caller, _ := middleware.PrincipalFrom(r.Context())
	if !caller.IsAdmin() && call.AgentID != caller.ID {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "call belongs to another agent")
		return nil, false
	}
	return call, true
}
