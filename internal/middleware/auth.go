package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ledgeraudit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClientIDKey is the context key for the authenticated client id.
	ClientIDKey contextKey = "client_id"
	// ScopeKey is the context key for the authenticated client's scope.
	ScopeKey contextKey = "scope"
)

// GetClientID extracts the client ID from the context.
// Returns empty string if not found.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(ClientIDKey).(string)
	return id
}

// GetScope extracts the granted scope from the context.
func GetScope(ctx context.Context) string {
	scope, _ := ctx.Value(ScopeKey).(string)
	return scope
}

// RequireAuth returns an interceptor that validates bearer tokens.
// scopes maps each procedure to the scope it requires; procedures absent
// from the map are public.
func RequireAuth(jwtManager *auth.JWTManager, scopes map[string]string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			required, protected := scopes[req.Spec().Procedure]
			if !protected {
				return next(ctx, req)
			}

			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			if !claims.Allows(required) {
				return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrInsufficientScope)
			}

			ctx = context.WithValue(ctx, ClientIDKey, claims.Subject)
			ctx = context.WithValue(ctx, ScopeKey, claims.Scope)

			return next(ctx, req)
		}
	}
}

// RequireBearer guards a plain HTTP handler with the same token check as
// RequireAuth.
func RequireBearer(jwtManager *auth.JWTManager, required string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := jwtManager.Validate(parts[1])
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if !claims.Allows(required) {
			http.Error(w, auth.ErrInsufficientScope.Error(), http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), ClientIDKey, claims.Subject)
		ctx = context.WithValue(ctx, ScopeKey, claims.Scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
