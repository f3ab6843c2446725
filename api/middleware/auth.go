package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/posengine-backend/api/responses"
	pkgAuth "github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller's capability.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			capability := claims.Capability()
			if capability.SessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			ctx := WithCapability(r.Context(), capability)
			if logg != nil {
				ctx = logg.WithUserID(ctx, capability.UserID.String())
				ctx = logg.WithBranchID(ctx, capability.BranchID.String())
				ctx = logg.WithField(ctx, "role", string(capability.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
