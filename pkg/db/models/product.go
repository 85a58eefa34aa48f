package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// ProductOption is stored inside the sections JSON column.
type ProductOption struct {
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type ProductSection struct {
	Title    string            `json:"title"`
	Mode     enums.SectionMode `json:"mode"`
	Required bool              `json:"required,omitempty"`
	Max      int               `json:"max,omitempty"`
	Options  []ProductOption   `json:"options"`
}

// Product is a menu item owned by one company. A nil Stock means unlimited.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID   uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index:idx_products_company_category,priority:1"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Category    string           `gorm:"column:category;not null;index:idx_products_company_category,priority:2"`
	ImageURL    *string          `gorm:"column:image_url"`
	BasePrice   decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null"`
	IsAvailable bool             `gorm:"column:is_available;not null"`
	Stock       *int             `gorm:"column:stock"`
	Sections    []ProductSection `gorm:"column:sections;type:jsonb;serializer:json"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
