package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/confetex/taller-backend/api/responses"
	"github.com/confetex/taller-backend/internal/accesscontrol"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/logger"
)

// RequireCapability re-resolves the actor's role through the authority instead of
// trusting the role baked into the token, so deactivations and role changes take
// effect within the cache TTL.
func RequireCapability(authority accesscontrol.Authority, capability accesscontrol.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if err := authority.Require(r.Context(), userID, capability); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
