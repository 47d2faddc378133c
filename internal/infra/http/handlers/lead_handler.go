package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/infra/queue"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

type LeadHandler struct {
	leads        *database.LeadRepository
	interactions *database.InteractionRepository
	crm          *database.CRMRepository
	producer     queue.SyncProducer
}

func NewLeadHandler(
	leads *database.LeadRepository,
	interactions *database.InteractionRepository,
	crm *database.CRMRepository,
	producer queue.SyncProducer,
) *LeadHandler {
	return &LeadHandler{leads: leads, interactions: interactions, crm: crm, producer: producer}
}

type leadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Website  string `json:"website"`

	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`

	Industry      string `json:"industry"`
	CompanySize   string `json:"company_size"`
	AnnualRevenue string `json:"annual_revenue"`

	Status        entity.LeadStatus `json:"status"`
	Score         *float64          `json:"score"`
	ScoreCategory string            `json:"score_category"`

	Source     string         `json:"source"`
	SourceData entity.JSONMap `json:"source_data"`

	AssignedTo *int64 `json:"assigned_to"`

	Tags         entity.StringList `json:"tags"`
	CustomFields entity.JSONMap    `json:"custom_fields"`
	Notes        string            `json:"notes"`

	NextFollowUp *time.Time `json:"next_follow_up"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())
	limit, offset := pagination(r)

	q := r.URL.Query()
	filter := database.LeadFilter{
		Search:        q.Get("search"),
		Status:        q.Get("status"),
		ScoreCategory: q.Get("score_category"),
		Skip:          offset,
		Limit:         limit,
	}
	// Non-admins only list leads assigned to them.
	if !caller.IsAdmin() {
		filter.AssignedTo = &caller.ID
	}

	leads, total, err := h.leads.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("lead list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list leads")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  leads,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())

	var req leadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "name is required")
		return
	}
	if req.Status == "" {
		req.Status = entity.LeadStatusNew
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid status")
		return
	}
	if req.Company == "" {
		req.Company = "New client"
	}

	if req.Email != "" {
		if _, err := h.leads.FindByEmail(r.Context(), req.Email); err == nil {
			respondError(w, http.StatusConflict, usecase.CodeConflict, "a lead with this email already exists")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create lead")
			return
		}
	}

	lead := h.applyRequest(&entity.Lead{}, req)
	// Sales reps create leads for themselves unless they say otherwise.
	if lead.AssignedTo == nil && !caller.IsAdmin() {
		lead.AssignedTo = &caller.ID
	}

	if err := h.leads.Create(r.Context(), lead); err != nil {
		log.Error().Err(err).Msg("lead insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create lead")
		return
	}

	h.mirrorToCRM(r.Context(), lead.ID, "lead_created")
	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req leadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "name is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid status")
		return
	}

	caller, _ := middleware.PrincipalFrom(r.Context())
	assignedBefore := lead.AssignedTo
	lead = h.applyRequest(lead, req)
	// Only admins reassign leads.
	if !caller.IsAdmin() {
		lead.AssignedTo = assignedBefore
	}

	if err := h.leads.Update(r.Context(), lead); err != nil {
		log.Error().Err(err).Int64("lead_id", lead.ID).Msg("lead update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update lead")
		return
	}

	h.mirrorToCRM(r.Context(), lead.ID, "lead_updated")
	respondJSON(w, http.StatusOK, lead)
}

// Delete is admin-only; interactions cascade with the lead.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFrom(r.Context())
	if !caller.IsAdmin() {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "not enough permissions")
		return
	}
	lead, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if err := h.leads.Delete(r.Context(), lead.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "lead not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to delete lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	items, err := h.interactions.ListByLead(r.Context(), lead.ID)
	if err != nil {
		log.Error().Err(err).Int64("lead_id", lead.ID).Msg("interaction list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list interactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

type appendInteractionRequest struct {
	AuthorType entity.InteractionAuthor `json:"author_type"`
	AuthorName string                   `json:"author_name"`
	Message    string                   `json:"message"`
	Context    entity.JSONMap           `json:"context"`
}

func (h *LeadHandler) AppendInteraction(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req appendInteractionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "message is required")
		return
	}
	if req.AuthorType == "" {
		req.AuthorType = entity.AuthorAdmin
	}
	if !req.AuthorType.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid author_type")
		return
	}
	if req.AuthorName == "" && req.AuthorType == entity.AuthorAdmin {
		caller, _ := middleware.PrincipalFrom(r.Context())
		req.AuthorName = caller.DisplayName()
	}

	it := &entity.LeadInteraction{
		LeadID:     lead.ID,
		AuthorType: req.AuthorType,
		AuthorName: req.AuthorName,
		Message:    req.Message,
		Context:    req.Context,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.interactions.Append(r.Context(), it); err != nil {
		log.Error().Err(err).Int64("lead_id", lead.ID).Msg("interaction append failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to record interaction")
		return
	}
	middleware.RecordInteractions(1)
	respondJSON(w, http.StatusCreated, it)
}

// loadOwned resolves the path lead and enforces the CRUD ownership rule:
// admins see everything, everyone else only their assigned leads.
func (h *LeadHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*entity.Lead, bool) {
	id, ok := pathID(w, r, "leadID")
	if !ok {
		return nil, false
	}
	lead, err := h.leads.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "lead not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load lead")
		return nil, false
	}
	caller, _ := middleware.PrincipalFrom(r.Context())
	if !lead.OwnedBy(caller) {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "lead belongs to another user")
		return nil, false
	}
	return lead, true
}

func (h *LeadHandler) applyRequest(lead *entity.Lead, req leadRequest) *entity.Lead {
	lead.Name = req.Name
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Company = req.Company
	lead.Position = req.Position
	lead.Website = req.Website
	lead.Address = req.Address
	lead.City = req.City
	lead.State = req.State
	lead.Country = req.Country
	lead.PostalCode = req.PostalCode
	lead.Industry = req.Industry
	lead.CompanySize = req.CompanySize
	lead.AnnualRevenue = req.AnnualRevenue
	if req.Status != "" {
		lead.Status = req.Status
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}
	lead.ScoreCategory = req.ScoreCategory
	lead.Source = req.Source
	lead.SourceData = req.SourceData
	if req.AssignedTo != nil {
		lead.AssignedTo = req.AssignedTo
	}
	lead.Tags = req.Tags
	lead.CustomFields = req.CustomFields
	lead.Notes = req.Notes
	lead.NextFollowUp = req.NextFollowUp
	return lead
}

// mirrorToCRM enqueues a single-lead sync job when an active CRM connection
// exists. Failures are logged and never fail the originating request.
func (h *LeadHandler) mirrorToCRM(ctx context.Context, leadID int64, trigger string) {
	conn, err := h.crm.FirstActive(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Msg("crm connection lookup failed, skipping mirror")
		}
		return
	}
	payload := queue.SyncPayload{
		ConnectionID: conn.ID,
		CRMType:      conn.CRMType,
		Trigger:      trigger,
		LeadID:       &leadID,
		EnqueuedAt:   time.Now().UTC(),
	}
	if err := h.producer.PublishSync(ctx, payload); err != nil {
		log.Warn().Err(err).Int64("lead_id", leadID).Str("trigger", trigger).Msg("crm mirror publish failed")
	}
}
