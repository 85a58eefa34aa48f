package middleware

import (
	"net/http"

	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// RequireRole lets the request through when the token role is one of allowed.
func RequireRole(logg *logger.Logger, allowed ...enums.StaffRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			for _, candidate := range allowed {
				if candidate == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
		})
	}
}

// CompanyScope rejects staff tokens that are not bound to a company.
func CompanyScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CompanyIDFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
