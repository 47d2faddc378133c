package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/integration/crm"
	"github.com/Ibrakam/Sales-Machine/internal/infra/queue"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

// CRMHandler manages CRM connections and their sync jobs. Admin only.
type CRMHandler struct {
	connections *database.CRMRepository
	producer    queue.SyncProducer
}

func NewCRMHandler(connections *database.CRMRepository, producer queue.SyncProducer) *CRMHandler {
	return &CRMHandler{connections: connections, producer: producer}
}

type crmConnectionRequest struct {
	Name    string `json:"name"`
	CRMType string `json:"crm_type"`

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	OrgID   string `json:"org_id"`
	OrgName string `json:"org_name"`

	IsActive      *bool `json:"is_active"`
	SyncLeads     *bool `json:"sync_leads"`
	SyncContacts  *bool `json:"sync_contacts"`
	SyncDeals     *bool `json:"sync_deals"`
	SyncCompanies *bool `json:"sync_companies"`

	SyncDirection string `json:"sync_direction"`

	FieldMapping entity.JSONMap `json:"field_mapping"`
	Metadata     entity.JSONMap `json:"metadata"`
}

func validSyncDirection(d string) bool {
	switch d {
	case "push", "pull", "bidirectional":
		return true
	}
	return false
}

func (h *CRMHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.connections.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("crm connection list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list connections")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

func (h *CRMHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req crmConnectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "name and access_token are required")
		return
	}
	if !crm.Supported(req.CRMType) {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "unsupported crm_type")
		return
	}
	if req.SyncDirection == "" {
		req.SyncDirection = "push"
	}
	if !validSyncDirection(req.SyncDirection) {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "sync_direction must be push, pull or bidirectional")
		return
	}

	conn := &entity.CRMConnection{
		Name:          req.Name,
		CRMType:       req.CRMType,
		AccessToken:   req.AccessToken,
		RefreshToken:  req.RefreshToken,
		ClientID:      req.ClientID,
		ClientSecret:  req.ClientSecret,
		OrgID:         req.OrgID,
		OrgName:       req.OrgName,
		IsActive:      true,
		SyncLeads:     true,
		SyncDirection: req.SyncDirection,
		FieldMapping:  req.FieldMapping,
		Metadata:      req.Metadata,
	}
	applyOptionalFlags(conn, req)

	if err := h.connections.Create(r.Context(), conn); err != nil {
		log.Error().Err(err).Msg("crm connection insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create connection")
		return
	}
	respondJSON(w, http.StatusCreated, conn)
}

func (h *CRMHandler) Get(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

func (h *CRMHandler) Update(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.load(w, r)
	if !ok {
		return
	}
	var req crmConnectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != "" {
		conn.Name = req.Name
	}
	if req.CRMType != "" {
		if !crm.Supported(req.CRMType) {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "unsupported crm_type")
			return
		}
		conn.CRMType = req.CRMType
	}
	if req.AccessToken != "" {
		conn.AccessToken = req.AccessToken
	}
	if req.RefreshToken != "" {
		conn.RefreshToken = req.RefreshToken
	}
	if req.SyncDirection != "" {
		if !validSyncDirection(req.SyncDirection) {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "sync_direction must be push, pull or bidirectional")
			return
		}
		conn.SyncDirection = req.SyncDirection
	}
	if req.FieldMapping != nil {
		conn.FieldMapping = req.FieldMapping
	}
	if req.Metadata != nil {
		conn.Metadata = req.Metadata
	}
	applyOptionalFlags(conn, req)

	if err := h.connections.Update(r.Context(), conn); err != nil {
		log.Error().Err(err).Int64("connection_id", conn.ID).Msg("crm connection update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update connection")
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

func (h *CRMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "connectionID")
	if !ok {
		return
	}
	if err := h.connections.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "connection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to delete connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync enqueues a full sync job for the connection and returns the job id.
// The worker consumes the job asynchronously.
func (h *CRMHandler) Sync(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.load(w, r)
	if !ok {
		return
	}
	if !conn.IsActive {
		respondError(w, http.StatusConflict, usecase.CodeConflict, "connection is inactive")
		return
	}

	payload := queue.SyncPayload{
		JobID:        uuid.New().String(),
		ConnectionID: conn.ID,
		CRMType:      conn.CRMType,
		Trigger:      "full_sync",
		EnqueuedAt:   time.Now().UTC(),
	}
	if err := h.producer.PublishSync(r.Context(), payload); err != nil {
		log.Error().Err(err).Int64("connection_id", conn.ID).Msg("sync enqueue failed")
		respondError(w, http.StatusInternalServerError, usecase.CodeProviderError, "failed to enqueue sync job")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":        payload.JobID,
		"connection_id": conn.ID,
		"status":        "queued",
	})
}

func (h *CRMHandler) Status(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"connection_id": conn.ID,
		"crm_type":      conn.CRMType,
		"is_active":     conn.IsActive,
		"last_sync_at":  conn.LastSyncAt,
		"sync_count":    conn.SyncCount,
		"error_count":   conn.ErrorCount,
		"last_error":    conn.LastError,
	})
}

func (h *CRMHandler) load(w http.ResponseWriter, r *http.Request) (*entity.CRMConnection, bool) {
	id, ok := pathID(w, r, "connectionID")
	if !ok {
		return nil, false
	}
	conn, err := h.connections.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "connection not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load connection")
		return nil, false
	}
	return conn, true
}

func applyOptionalFlags(conn *entity.CRMConnection, req crmConnectionRequest) {
	if req.IsActive != nil {
		conn.IsActive = *req.IsActive
	}
	if req.SyncLeads != nil {
		conn.SyncLeads = *req.SyncLeads
	}
	if req.SyncContacts != nil {
		conn.SyncContacts = *req.SyncContacts
	}
	if req.SyncDeals != nil {
		conn.SyncDeals = *req.SyncDeals
	}
	if req.SyncCompanies != nil {
		conn.SyncCompanies = *req.SyncCompanies
	}
}
