package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// StaffPayload is what a staff token carries. CompanyID is nil only for super admins.
type StaffPayload struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      enums.StaffRole
	Name      string
}

// StaffClaims is the typed JWT presented by POS, admin and driver clients.
type StaffClaims struct {
	UserID    uuid.UUID       `json:"user_id"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	Role      enums.StaffRole `json:"role"`
	Name      string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}
