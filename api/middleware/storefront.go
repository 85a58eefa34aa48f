package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// CartSessionHeader carries the anonymous cart owner between the storefront and the API.
const CartSessionHeader = "X-Cart-Session"

type companyResolver interface {
	GetBySlug(ctx context.Context, slug string) (*models.Company, error)
}

// StorefrontCompany resolves the {slug} URL parameter into an active company.
func StorefrontCompany(resolver companyResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.TrimSpace(chi.URLParam(r, "slug"))
			if slug == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "company not found"))
				return
			}
			company, err := resolver.GetBySlug(r.Context(), slug)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithCompany(r.Context(), company)
			if logg != nil {
				ctx = logg.WithCompanyID(ctx, company.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CartSession reads the cart session header, minting a new id for first-time visitors.
// The id is echoed back so clients can persist it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			} else if _, err := uuid.Parse(sessionID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart session").
					WithDetails(map[string]string{"header": CartSessionHeader}))
				return
			}

			w.Header().Set(CartSessionHeader, sessionID)
			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
