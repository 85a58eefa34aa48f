package companies

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
)

// CompanyDTO is the API shape of a company.
type CompanyDTO struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Phone        *string          `json:"phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	WorkingHours *string          `json:"working_hours,omitempty"`
	DeliveryFee  *decimal.Decimal `json:"delivery_fee,omitempty"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// PublicCompanyDTO is what customers see on the menu page.
type PublicCompanyDTO struct {
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Phone        *string          `json:"phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	WorkingHours *string          `json:"working_hours,omitempty"`
	DeliveryFee  *decimal.Decimal `json:"delivery_fee,omitempty"`
}

func FromModel(m *models.Company) CompanyDTO {
	return CompanyDTO{
		ID:           m.ID,
		Name:         m.Name,
		Slug:         m.Slug,
		Phone:        m.Phone,
		Address:      m.Address,
		WorkingHours: m.WorkingHours,
		DeliveryFee:  m.DeliveryFee,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func PublicFromModel(m *models.Company) PublicCompanyDTO {
	return PublicCompanyDTO{
		Name:         m.Name,
		Slug:         m.Slug,
		Phone:        m.Phone,
		Address:      m.Address,
		WorkingHours: m.WorkingHours,
		DeliveryFee:  m.DeliveryFee,
	}
}
