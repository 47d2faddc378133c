package middleware_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
)

type MockUserResolver struct {
	mock.Mock
}

func (m *MockUserResolver) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func okHandler(t *testing.T, want *entity.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.PrincipalFrom(r.Context())
		assert.True(t, ok)
		if want != nil {
			assert.Equal(t, want.ID, user.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 30*time.Minute, time.Hour)
	user := &entity.User{ID: 9, Email: "rep@example.com", Role: entity.RoleSalesRep, IsActive: true}

	t.Run("Valid Token", func(t *testing.T) {
		users := new(MockUserResolver)
		users.On("FindByID", mock.Anything, int64(9)).Return(user, nil)
		authn := middleware.NewAuthenticator(tokens, users)

		token, _ := tokens.IssueAccess(user)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authn.RequireUser(okHandler(t, user)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing Header", func(t *testing.T) {
		authn := middleware.NewAuthenticator(tokens, new(MockUserResolver))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		authn.RequireUser(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("Refresh Token Rejected", func(t *testing.T) {
		authn := middleware.NewAuthenticator(tokens, new(MockUserResolver))
		refresh, _ := tokens.IssueRefresh(user)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rec := httptest.NewRecorder()

		authn.RequireUser(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Unknown User", func(t *testing.T) {
		users := new(MockUserResolver)
		users.On("FindByID", mock.Anything, int64(9)).Return(nil, sql.ErrNoRows)
		authn := middleware.NewAuthenticator(tokens, users)

		token, _ := tokens.IssueAccess(user)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authn.RequireUser(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Inactive User", func(t *testing.T) {
		inactive := &entity.User{ID: 9, Email: "rep@example.com", Role: entity.RoleSalesRep, IsActive: false}
		users := new(MockUserResolver)
		users.On("FindByID", mock.Anything, int64(9)).Return(inactive, nil)
		authn := middleware.NewAuthenticator(tokens, users)

		token, _ := tokens.IssueAccess(inactive)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authn.RequireUser(okHandler(t, nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// runWithPrincipal pushes the request through RequireUser so the role
// check sees a real principal on the context.
func runWithPrincipal(t *testing.T, user *entity.User, role entity.Role, next http.Handler) *httptest.ResponseRecorder {
	tokens := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	users := new(MockUserResolver)
	users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	authn := middleware.NewAuthenticator(tokens, users)

	token, err := tokens.IssueAccess(user)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	authn.RequireUser(middleware.RequireRole(role)(next)).ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Matching Role", func(t *testing.T) {
		rec := runWithPrincipal(t, &entity.User{ID: 1, Role: entity.RoleAnalyst, IsActive: true}, entity.RoleAnalyst, next)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Admin Passes Everywhere", func(t *testing.T) {
		rec := runWithPrincipal(t, &entity.User{ID: 1, Role: entity.RoleAdmin, IsActive: true}, entity.RoleAnalyst, next)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Wrong Role", func(t *testing.T) {
		rec := runWithPrincipal(t, &entity.User{ID: 1, Role: entity.RoleSalesRep, IsActive: true}, entity.RoleAnalyst, next)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("No Principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		middleware.RequireRole(entity.RoleAdmin)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
