package http

import (
	"context"
	"net/http"
	"strings"

	"event-registration-backend/internal/security"
)

type contextKey string

const (
	contextKeyUserID  contextKey = "user-id"
	contextKeyIsStaff contextKey = "is-staff"
)

// AuthMiddleware validates bearer tokens and places the caller identity into
// the request context.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// RequireUser rejects requests without a valid access token.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), claims)))
	})
}

// RequireStaff additionally rejects callers without the staff claim.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if !claims.IsStaff {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "staff access required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*security.UserClaims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization token is not provided"})
		return nil, false
	}

	token := header
	if len(token) > 7 && strings.EqualFold(token[0:7], "Bearer ") {
		token = token[7:]
	}

	claims, err := m.tokenManager.ValidateToken(token)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return nil, false
	}
	if claims.Type != security.TokenTypeAccess {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "access token required"})
		return nil, false
	}
	return claims, true
}

func withCaller(ctx context.Context, claims *security.UserClaims) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, claims.UserID)
	return context.WithValue(ctx, contextKeyIsStaff, claims.IsStaff)
}

// callerID returns the authenticated user id placed by the middleware.
func callerID(ctx context.Context) int32 {
	id, _ := ctx.Value(contextKeyUserID).(int32)
	return id
}

func callerIsStaff(ctx context.Context) bool {
	staff, _ := ctx.Value(contextKeyIsStaff).(bool)
	return staff
}
