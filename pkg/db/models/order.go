package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// Order is a submitted cart. Number is sequential per company.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID     uuid.UUID           `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_orders_company_number,priority:1"`
	Number        int64               `gorm:"column:number;not null;uniqueIndex:idx_orders_company_number,priority:2"`
	SessionID     string              `gorm:"column:session_id;not null"`
	Type          enums.OrderType     `gorm:"column:order_type;type:text;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	CustomerPhone *string             `gorm:"column:customer_phone"`
	Address       *string             `gorm:"column:address"`
	TableNumber   *string             `gorm:"column:table_number"`
	Notes         *string             `gorm:"column:notes"`
	CourierID     *string             `gorm:"column:courier_id;index:idx_orders_courier"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Lines         []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	DeliveredAt   *time.Time          `gorm:"column:delivered_at"`
	CanceledAt    *time.Time          `gorm:"column:canceled_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderLine snapshots a priced cart line.
type OrderLine struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	Position       int                        `gorm:"column:position;not null"`
	ProductID      uuid.UUID                  `gorm:"column:product_id;type:uuid;not null"`
	LineKey        string                     `gorm:"column:line_key;not null"`
	ProductName    string                     `gorm:"column:product_name;not null"`
	UnitPrice      decimal.Decimal            `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity       int                        `gorm:"column:quantity;not null"`
	LineTotal      decimal.Decimal            `gorm:"column:line_total;type:numeric(12,2);not null"`
	Customizations map[string][]ProductOption `gorm:"column:customizations;type:jsonb;serializer:json"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
