package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

type AuthHandler struct {
	users  *database.UserRepository
	tokens *auth.TokenManager
}

func NewAuthHandler(users *database.UserRepository, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "email and password are required")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid credentials")
			return
		}
		log.Error().Err(err).Msg("login lookup failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to look up user")
		return
	}
	if !user.IsActive || !auth.CheckPassword(req.Password, user.HashedPassword) {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid credentials")
		return
	}

	h.issueTokens(w, r, user.ID)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claims, err := h.tokens.Verify(req.RefreshToken, auth.TokenRefresh)
	if err != nil {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid refresh token")
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid refresh token")
		return
	}
	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil || !user.IsActive {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "invalid refresh token")
		return
	}
	h.issueTokens(w, r, user.ID)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Timezone *string `json:"timezone"`
	Language *string `json:"language"`
	Password *string `json:"password"`
}

// UpdateMe lets the principal edit their own profile. Role and active
// flags stay admin-only.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "not authenticated")
		return
	}
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.Language != nil {
		user.Language = *req.Language
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "password must be at least 8 characters")
			return
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to update profile")
			return
		}
		user.HashedPassword = hashed
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("profile update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, userID int64) {
	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("token issue lookup failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to look up user")
		return
	}

	access, err := h.tokens.IssueAccess(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign access token")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue tokens")
		return
	}
	refresh, err := h.tokens.IssueRefresh(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign refresh token")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue tokens")
		return
	}

	if err := h.users.TouchLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		// Login still succeeds, the timestamp is informational.
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(h.tokens.AccessExpiry().Seconds()),
	})
}
