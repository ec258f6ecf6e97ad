package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/confetex/taller-backend/api/responses"
	"github.com/confetex/taller-backend/internal/accesscontrol"
	"github.com/confetex/taller-backend/pkg/enums"
	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
	"github.com/confetex/taller-backend/pkg/logger"
)

// RequireAdmin guards staff administration. Account management has no
// capability of its own; only admins reach it.
func RequireAdmin(authority accesscontrol.Authority, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			role, err := authority.ResolveRole(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if role != enums.StaffRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
