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

// InstagramHandler manages the workspace's single Instagram business
// account and imports leads from it. The Graph API integration is not
// wired yet, so Sync imports a fixed demo batch.
type InstagramHandler struct {
	accounts *database.InstagramRepository
	leads    *database.LeadRepository
}

func NewInstagramHandler(accounts *database.InstagramRepository, leads *database.LeadRepository) *InstagramHandler {
	return &InstagramHandler{accounts: accounts, leads: leads}
}

func (h *InstagramHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "no instagram account connected")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

type connectAccountRequest struct {
	Username          string `json:"username"`
	AccessToken       string `json:"access_token"`
	BusinessAccountID string `json:"business_account_id"`
	ProfileURL        string `json:"profile_url"`
	FollowersCount    *int64 `json:"followers_count"`
}

// ConnectAccount creates or replaces the singleton account row.
func (h *InstagramHandler) ConnectAccount(w http.ResponseWriter, r *http.Request) {
	var req connectAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "username and access_token are required")
		return
	}

	now := time.Now().UTC()
	account, err := h.accounts.Get(r.Context())
	switch {
	case err == nil:
		account.Username = req.Username
		account.AccessToken = req.AccessToken
		account.BusinessAccountID = req.BusinessAccountID
		account.ProfileURL = req.ProfileURL
		account.FollowersCount = req.FollowersCount
		account.Status = entity.InstagramConnected
		account.ConnectedAt = &now
		if err := h.accounts.Update(r.Context(), account); err != nil {
			log.Error().Err(err).Msg("instagram account update failed")
			respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to connect account")
			return
		}
		respondJSON(w, http.StatusOK, account)
	case errors.Is(err, sql.ErrNoRows):
		account = &entity.InstagramAccount{
			Username:          req.Username,
			AccessToken:       req.AccessToken,
			BusinessAccountID: req.BusinessAccountID,
			ProfileURL:        req.ProfileURL,
			FollowersCount:    req.FollowersCount,
			Status:            entity.InstagramConnected,
			ConnectedAt:       &now,
		}
		if err := h.accounts.Create(r.Context(), account); err != nil {
			log.Error().Err(err).Msg("instagram account insert failed")
			respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to connect account")
			return
		}
		respondJSON(w, http.StatusCreated, account)
	default:
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to connect account")
	}
}

type updateAccountRequest struct {
	Status         *entity.InstagramStatus `json:"status"`
	ProfileURL     *string                 `json:"profile_url"`
	FollowersCount *int64                  `json:"followers_count"`
}

func (h *InstagramHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "no instagram account connected")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load account")
		return
	}
	var req updateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid status")
			return
		}
		account.Status = *req.Status
	}
	if req.ProfileURL != nil {
		account.ProfileURL = *req.ProfileURL
	}
	if req.FollowersCount != nil {
		account.FollowersCount = req.FollowersCount
	}
	if err := h.accounts.Update(r.Context(), account); err != nil {
		log.Error().Err(err).Msg("instagram account update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update account")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

type importedLead struct {
	name     string
	email    string
	username string
	company  string
}

// demoImportBatch stands in for a Graph API page of conversation leads.
var demoImportBatch = []importedLead{
	{name: "Alice Johnson", email: "alice.johnson@instagram-lead.example", username: "alice.j.design", company: "AJ Design Studio"},
	{name: "Marcus Webb", email: "marcus.webb@instagram-lead.example", username: "marcuswebb_fit", company: "Webb Fitness"},
	{name: "Elena Petrova", email: "elena.petrova@instagram-lead.example", username: "elena.travels", company: "Wander Agency"},
}

// Sync imports the demo batch as leads. Leads whose email already exists
// are skipped, so repeated syncs stay idempotent.
func (h *InstagramHandler) Sync(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "no instagram account connected")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load account")
		return
	}
	if account.Status != entity.InstagramConnected {
		respondError(w, http.StatusConflict, usecase.CodeConflict, "account is not connected")
		return
	}

	imported, skipped := 0, 0
	for _, d := range demoImportBatch {
		_, err := h.leads.FindByEmail(r.Context(), d.email)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to import leads")
			return
		}
		lead := &entity.Lead{
			Name:    d.name,
			Email:   d.email,
			Company: d.company,
			Status:  entity.LeadStatusNew,
			Source:  "social",
			SourceData: entity.JSONMap{
				"instagram_username": d.username,
				"account":            account.Username,
			},
		}
		if err := h.leads.Create(r.Context(), lead); err != nil {
			log.Error().Err(err).Str("email", d.email).Msg("instagram lead import failed")
			respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to import leads")
			return
		}
		imported++
	}

	now := time.Now().UTC()
	account.LastSyncAt = &now
	if account.Metadata == nil {
		account.Metadata = entity.JSONMap{}
	}
	if prev, ok := account.Metadata["sync_count"].(float64); ok {
		account.Metadata["sync_count"] = prev + 1
	} else {
		account.Metadata["sync_count"] = float64(1)
	}
	if err := h.accounts.Update(r.Context(), account); err != nil {
		log.Warn().Err(err).Msg("failed to record instagram sync metadata")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"imported":     imported,
		"skipped":      skipped,
		"last_sync_at": now,
	})
}
