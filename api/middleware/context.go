package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/pkg/auth"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxCompanyID   contextKey = "company_id"
	ctxCompany     contextKey = "company"
	ctxCartSession contextKey = "cart_session"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.StaffRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.StaffRole); ok {
		return v
	}
	return ""
}

// CompanyIDFromContext returns the company a staff token is scoped to.
func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxCompanyID).(uuid.UUID)
	return v, ok && v != uuid.Nil
}

// CompanyFromContext returns the storefront company resolved from the URL slug.
func CompanyFromContext(ctx context.Context) *models.Company {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxCompany).(*models.Company)
	return v
}

func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartSession).(string); ok {
		return v
	}
	return ""
}

// WithStaff seeds the context with verified token claims.
func WithStaff(ctx context.Context, claims *auth.StaffClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, claims.Role)
	if claims.CompanyID != nil {
		ctx = context.WithValue(ctx, ctxCompanyID, *claims.CompanyID)
	}
	return ctx
}

func WithCompany(ctx context.Context, company *models.Company) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCompany, company)
}

func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}
