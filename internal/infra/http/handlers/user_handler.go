package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

// UserHandler is the admin-only user management surface. Route-level
// middleware enforces the admin role before any of these run.
type UserHandler struct {
	users *database.UserRepository
}

func NewUserHandler(users *database.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Role     entity.Role `json:"role"`
	Phone    string      `json:"phone"`
	Timezone string      `json:"timezone"`
	Language string      `json:"language"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "email, username and a password of at least 8 characters are required")
		return
	}
	if req.Role == "" {
		req.Role = entity.RoleSalesRep
	}
	if !req.Role.Valid() {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid role")
		return
	}

	exists, err := h.users.ExistsByEmailOrUsername(r.Context(), req.Email, req.Username)
	if err != nil {
		log.Error().Err(err).Msg("user uniqueness check failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create user")
		return
	}
	if exists {
		respondError(w, http.StatusConflict, usecase.CodeConflict, "email or username already in use")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("password hashing failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
		return
	}

	user := &entity.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hashed,
		Role:           req.Role,
		IsActive:       true,
		Phone:          req.Phone,
		Timezone:       req.Timezone,
		Language:       req.Language,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		log.Error().Err(err).Msg("user insert failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("user list failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": users, "limit": limit, "offset": offset})
}

// Get returns a user profile. Non-admins may only look up themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if caller, ok := middleware.PrincipalFrom(r.Context()); ok && !caller.IsAdmin() && caller.ID != id {
		respondError(w, http.StatusForbidden, usecase.CodeForbidden, "not enough permissions")
		return
	}
	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	FullName *string      `json:"full_name"`
	Role     *entity.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
	Phone    *string      `json:"phone"`
	Timezone *string      `json:"timezone"`
	Language *string      `json:"language"`
	Password *string      `json:"password"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to load user")
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid role")
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
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
			respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to update user")
			return
		}
		user.HashedPassword = hashed
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("user update failed")
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if caller, ok := middleware.PrincipalFrom(r.Context()); ok && caller.ID == id {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "cannot delete your own account")
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, usecase.CodeNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, usecase.CodePersistenceError, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
