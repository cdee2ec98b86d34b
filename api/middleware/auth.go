package middleware

import (
	"net/http"
	"strings"

	"github.com/marchelocal/marchelocal-backend/api/responses"
	pkgauth "github.com/marchelocal/marchelocal-backend/pkg/auth"
	"github.com/marchelocal/marchelocal-backend/pkg/config"
	pkgerrors "github.com/marchelocal/marchelocal-backend/pkg/errors"
	"github.com/marchelocal/marchelocal-backend/pkg/logger"
)

// tokenCookie carries the access token for browser clients that cannot set
// an Authorization header.
const tokenCookie = "token"

// bearerToken extracts the token from an Authorization header, tolerating a
// missing scheme prefix, and falls back to the token cookie.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	if cookie, err := r.Cookie(tokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			ctx = WithVerified(ctx, claims.Verified)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
