package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrCompanyScope is returned for non super-admin tokens that carry no company.
var ErrCompanyScope = errors.New("token is not scoped to a company")

// MintStaffToken signs a staff token. The identity service owns issuance in production;
// this lives here so the shared contract and the tests stay in one place.
func MintStaffToken(cfg config.JWTConfig, now time.Time, payload StaffPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if err := validatePayload(payload.Role, payload.CompanyID); err != nil {
		return "", err
	}

	claims := StaffClaims{
		UserID:    payload.UserID,
		CompanyID: payload.CompanyID,
		Role:      payload.Role,
		Name:      payload.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseStaffToken validates signature, issuer and expiry and returns typed claims.
func ParseStaffToken(cfg config.JWTConfig, tokenString string) (*StaffClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(claims.Role, claims.CompanyID); err != nil {
		return nil, err
	}
	return claims, nil
}

func validatePayload(role enums.StaffRole, companyID *uuid.UUID) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid staff role %q", role)
	}
	if role != enums.StaffRoleSuperAdmin && (companyID == nil || *companyID == uuid.Nil) {
		return ErrCompanyScope
	}
	return nil
}
