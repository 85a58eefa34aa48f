package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/saborhub/saborhub-backend/api/responses"
	pkgauth "github.com/saborhub/saborhub-backend/pkg/auth"
	"github.com/saborhub/saborhub-backend/pkg/config"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

const bearerScheme = "bearer"

// Auth validates a staff bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseStaffToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(staffContext(r.Context(), logg, claims)))
		})
	}
}

// bearerToken accepts "Bearer <token>" in any case, or a bare token.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, bearerScheme) {
		header = strings.TrimSpace(rest)
	}
	return header, header != ""
}

func staffContext(ctx context.Context, logg *logger.Logger, claims *pkgauth.StaffClaims) context.Context {
	ctx = WithStaff(ctx, claims)
	if logg == nil {
		return ctx
	}
	ctx = logg.WithUserID(ctx, claims.UserID.String())
	ctx = logg.WithActorRole(ctx, string(claims.Role))
	if claims.CompanyID != nil {
		ctx = logg.WithCompanyID(ctx, claims.CompanyID.String())
	}
	return ctx
}
