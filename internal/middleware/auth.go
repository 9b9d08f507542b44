package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adityaraj-spec/fullStack/internal/services"
)

type contextKey string

const userClaimsKey contextKey = "user_claims"

// AccessTokenFromRequest reads the access token from the accessToken cookie
// or, failing that, from the Authorization: Bearer header.
func AccessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("accessToken"); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// RequireAuth verifies the access token and puts its claims on the request
// context. Missing or failing tokens get a 401 envelope.
func RequireAuth(codec *services.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessTokenFromRequest(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}

			claims, err := codec.VerifyAccess(token)
			if err != nil {
				unauthorized(w, "Invalid or expired access token")
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified access-token claims set by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*services.TokenClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*services.TokenClaims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"statusCode":401,"data":null,"message":"` + message + `","success":false}`))
}
