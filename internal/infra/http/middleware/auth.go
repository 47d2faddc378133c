package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
)

type principalKey struct{}

// UserResolver loads the principal behind a verified token. Satisfied by
// database.UserRepository.
type UserResolver interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}

type Authenticator struct {
	Tokens *auth.TokenManager
	Users  UserResolver
}

func NewAuthenticator(tokens *auth.TokenManager, users UserResolver) *Authenticator {
	return &Authenticator{Tokens: tokens, Users: users}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"UNAUTHORIZED","message":"` + message + `"}`))
}

// RequireUser resolves the bearer token to an active user and stores it on
// the request context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := a.Tokens.Verify(token, auth.TokenAccess)
		if err != nil {
			unauthorized(w, "could not validate credentials")
			return
		}

		id, err := claims.UserID()
		if err != nil {
			unauthorized(w, "could not validate credentials")
			return
		}

		user, err := a.Users.FindByID(r.Context(), id)
		if err != nil {
			unauthorized(w, "could not validate credentials")
			return
		}
		if !user.IsActive {
			unauthorized(w, "inactive user")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole passes admins and the named role, everyone else gets 403.
// Mount inside RequireUser.
func RequireRole(role entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := PrincipalFrom(r.Context())
			if !ok {
				unauthorized(w, "missing principal")
				return
			}
			if user.Role != role && !user.IsAdmin() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"FORBIDDEN","message":"not enough permissions"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func PrincipalFrom(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*entity.User)
	return user, ok
}

// WithPrincipal returns a context carrying the user, the same way
// RequireUser stores it.
func WithPrincipal(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}
