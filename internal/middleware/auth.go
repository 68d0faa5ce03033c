package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
)

// Authenticator resolves a session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type userKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
	logger     *zap.Logger
}

func NewAuthMiddleware(auth Authenticator, cookieName string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookieName: cookieName, logger: logger}
}

// token reads the session cookie, falling back to a Bearer header.
func (m *AuthMiddleware) token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := m.token(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		u, err := m.auth.Authenticate(r.Context(), tokenStr)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrForbidden):
			writeError(w, http.StatusForbidden, "account is pending approval")
			return
		case errors.Is(err, apperrors.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		default:
			m.logger.Error("authenticate", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !u.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
