package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// respondDomainError maps usecase error codes onto HTTP statuses. Unknown
// errors are reported as internal without leaking their message.
func respondDomainError(w http.ResponseWriter, err error) {
	code := usecase.ErrorCode(err)
	status, ok := map[string]int{
		usecase.CodeInvalidInput:     http.StatusBadRequest,
		usecase.CodeUnauthorized:     http.StatusUnauthorized,
		usecase.CodeForbidden:        http.StatusForbidden,
		usecase.CodeNotFound:         http.StatusNotFound,
		usecase.CodeConflict:         http.StatusConflict,
		usecase.CodeProviderError:    http.StatusInternalServerError,
		usecase.CodePersistenceError: http.StatusInternalServerError,
	}[code]
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}
	respondError(w, status, code, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, usecase.CodeInvalidInput, "invalid "+param)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func pagination(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset = queryInt(r, "offset", 0)
	return limit, offset
}
