package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is a restaurant tenant. Slug is the public menu sublink.
type Company struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex:idx_companies_slug"`
	Phone        *string   `gorm:"column:phone"`
	Address      *string   `gorm:"column:address"`
	WorkingHours *string   `gorm:"column:working_hours"`
	// DeliveryFee overrides the platform default fee for delivery orders when set.
	DeliveryFee     *decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2)"`
	IsActive        bool             `gorm:"column:is_active;not null"`
	NextOrderNumber int64            `gorm:"column:next_order_number;not null;default:0"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Company) TableName() string { return "companies" }

func (c *Company) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
