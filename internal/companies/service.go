package companies

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/db"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type companyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	FindBySlug(ctx context.Context, slug string) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) error
}

// Service exposes company (tenant) operations.
type Service interface {
	Create(ctx context.Context, input CreateCompanyInput) (*CompanyDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CompanyDTO, error)
	// GetBySlug resolves the public sublink. Inactive companies are reported as not found.
	GetBySlug(ctx context.Context, slug string) (*models.Company, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, input UpdateSettingsInput) (*CompanyDTO, error)
}

type service struct {
	repo companyRepository
}

func NewService(repo companyRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	return &service{repo: repo}, nil
}

type CreateCompanyInput struct {
	Name         string
	Slug         string
	Phone        *string
	Address      *string
	WorkingHours *string
	DeliveryFee  *decimal.Decimal
}

// UpdateSettingsInput only touches non-nil fields. ClearDeliveryFee falls back to the
// platform default fee.
type UpdateSettingsInput struct {
	Name             *string
	Phone            *string
	Address          *string
	WorkingHours     *string
	DeliveryFee      *decimal.Decimal
	ClearDeliveryFee bool
	IsActive         *bool
}

func (s *service) Create(ctx context.Context, input CreateCompanyInput) (*CompanyDTO, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
	}
	if err := validateFee(input.DeliveryFee); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:         name,
		Slug:         slug,
		Phone:        trimmed(input.Phone),
		Address:      trimmed(input.Address),
		WorkingHours: trimmed(input.WorkingHours),
		DeliveryFee:  input.DeliveryFee,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").WithDetails(map[string]any{"slug": slug})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
	}
	dto := FromModel(company)
	return &dto, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*CompanyDTO, error) {
	company, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(company)
	return &dto, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	company, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	if !company.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return company, nil
}

func (s *service) UpdateSettings(ctx context.Context, id uuid.UUID, input UpdateSettingsInput) (*CompanyDTO, error) {
	company, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		company.Name = name
	}
	if input.Phone != nil {
		company.Phone = trimmed(input.Phone)
	}
	if input.Address != nil {
		company.Address = trimmed(input.Address)
	}
	if input.WorkingHours != nil {
		company.WorkingHours = trimmed(input.WorkingHours)
	}
	switch {
	case input.ClearDeliveryFee:
		company.DeliveryFee = nil
	case input.DeliveryFee != nil:
		if err := validateFee(input.DeliveryFee); err != nil {
			return nil, err
		}
		company.DeliveryFee = input.DeliveryFee
	}
	if input.IsActive != nil {
		company.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company")
	}
	dto := FromModel(company)
	return &dto, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func validateFee(fee *decimal.Decimal) error {
	if fee != nil && fee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	return nil
}

// trimmed maps blank strings to nil so optional columns stay NULL.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
