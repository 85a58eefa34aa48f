package menu

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
)

// ProductInput is the full writable definition of a product.
type ProductInput struct {
	Name        string
	Description *string
	Category    string
	ImageURL    *string
	BasePrice   decimal.Decimal
	IsAvailable bool
	Stock       *int
	Sections    []pricing.Section
}

type ProductDTO struct {
	ID          uuid.UUID         `json:"id"`
	CompanyID   uuid.UUID         `json:"company_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Category    string            `json:"category"`
	ImageURL    *string           `json:"image_url,omitempty"`
	BasePrice   decimal.Decimal   `json:"base_price"`
	IsAvailable bool              `json:"is_available"`
	Stock       *int              `json:"stock,omitempty"`
	Sections    []pricing.Section `json:"sections"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MenuCategory groups available products for the public menu page.
type MenuCategory struct {
	Name     string       `json:"name"`
	Products []ProductDTO `json:"products"`
}

func FromModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		BasePrice:   m.BasePrice,
		IsAvailable: m.IsAvailable,
		Stock:       m.Stock,
		Sections:    sectionsFromModel(m.Sections),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Snapshot is the read-only view the pricing engine works with.
func Snapshot(m models.Product) pricing.Product {
	return pricing.Product{
		ID:        m.ID.String(),
		Name:      m.Name,
		BasePrice: m.BasePrice,
		Category:  m.Category,
		Available: m.IsAvailable,
		Stock:     m.Stock,
		Sections:  sectionsFromModel(m.Sections),
	}
}

// normalized trims every name so validation and storage see the same strings.
func (in ProductInput) normalized() ProductInput {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	out.Category = strings.TrimSpace(in.Category)
	out.Description = trimmed(in.Description)
	out.ImageURL = trimmed(in.ImageURL)
	out.Sections = make([]pricing.Section, 0, len(in.Sections))
	for _, s := range in.Sections {
		opts := make([]pricing.Option, 0, len(s.Options))
		for _, o := range s.Options {
			opts = append(opts, pricing.Option{Name: strings.TrimSpace(o.Name), PriceDelta: o.PriceDelta})
		}
		s.Title = strings.TrimSpace(s.Title)
		s.Options = opts
		out.Sections = append(out.Sections, s)
	}
	return out
}

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

func (in ProductInput) snapshot(id string) pricing.Product {
	return pricing.Product{
		ID:        id,
		Name:      in.Name,
		BasePrice: in.BasePrice,
		Category:  in.Category,
		Available: in.IsAvailable,
		Stock:     in.Stock,
		Sections:  in.Sections,
	}
}

func (in ProductInput) apply(m *models.Product) {
	m.Name = in.Name
	m.Description = in.Description
	m.Category = in.Category
	m.ImageURL = in.ImageURL
	m.BasePrice = in.BasePrice
	m.IsAvailable = in.IsAvailable
	m.Stock = in.Stock
	m.Sections = sectionsToModel(in.Sections)
}

func sectionsFromModel(sections []models.ProductSection) []pricing.Section {
	out := make([]pricing.Section, 0, len(sections))
	for _, s := range sections {
		opts := make([]pricing.Option, 0, len(s.Options))
		for _, o := range s.Options {
			opts = append(opts, pricing.Option{Name: o.Name, PriceDelta: o.PriceDelta})
		}
		out = append(out, pricing.Section{
			Title:    s.Title,
			Mode:     s.Mode,
			Required: s.Required,
			Max:      s.Max,
			Options:  opts,
		})
	}
	return out
}

func sectionsToModel(sections []pricing.Section) []models.ProductSection {
	out := make([]models.ProductSection, 0, len(sections))
	for _, s := range sections {
		opts := make([]models.ProductOption, 0, len(s.Options))
		for _, o := range s.Options {
			opts = append(opts, models.ProductOption{Name: o.Name, PriceDelta: o.PriceDelta})
		}
		out = append(out, models.ProductSection{
			Title:    s.Title,
			Mode:     s.Mode,
			Required: s.Required,
			Max:      s.Max,
			Options:  opts,
		})
	}
	return out
}
