package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// SubmitInput is what the customer (or the attendant at the POS) fills in at checkout.
type SubmitInput struct {
	Type          enums.OrderType
	PaymentMethod enums.PaymentMethod
	CustomerName  string
	CustomerPhone *string
	Address       *string
	TableNumber   *string
	Notes         *string
}

// UpdateStatusInput moves an order along the kitchen flow. CourierID assigns the
// delivery driver, typically together with out_for_delivery.
type UpdateStatusInput struct {
	Status    enums.OrderStatus
	CourierID *string
}

type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CompanyID     uuid.UUID           `json:"company_id"`
	Number        int64               `json:"number"`
	Type          enums.OrderType     `json:"order_type"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone *string             `json:"customer_phone,omitempty"`
	Address       *string             `json:"address,omitempty"`
	TableNumber   *string             `json:"table_number,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	CourierID     *string             `json:"courier_id,omitempty"`
	Lines         []LineDTO           `json:"lines"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Total         decimal.Decimal     `json:"total"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	CanceledAt    *time.Time          `json:"canceled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type LineDTO struct {
	ProductID      uuid.UUID                   `json:"product_id"`
	LineKey        string                      `json:"line_key"`
	ProductName    string                      `json:"product_name"`
	UnitPrice      decimal.Decimal             `json:"unit_price"`
	Quantity       int                         `json:"quantity"`
	LineTotal      decimal.Decimal             `json:"line_total"`
	Customizations map[string][]pricing.Option `json:"customizations,omitempty"`
}

func FromModel(m models.Order) OrderDTO {
	lines := make([]LineDTO, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, LineDTO{
			ProductID:      l.ProductID,
			LineKey:        l.LineKey,
			ProductName:    l.ProductName,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			LineTotal:      l.LineTotal,
			Customizations: optionsFromModel(l.Customizations),
		})
	}
	return OrderDTO{
		ID:            m.ID,
		CompanyID:     m.CompanyID,
		Number:        m.Number,
		Type:          m.Type,
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		PaymentStatus: m.PaymentStatus,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		Address:       m.Address,
		TableNumber:   m.TableNumber,
		Notes:         m.Notes,
		CourierID:     m.CourierID,
		Lines:         lines,
		Subtotal:      m.Subtotal,
		DeliveryFee:   m.DeliveryFee,
		Total:         m.Total,
		PaidAt:        m.PaidAt,
		DeliveredAt:   m.DeliveredAt,
		CanceledAt:    m.CanceledAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// linesFromSummary snapshots every priced cart line onto order rows.
func linesFromSummary(summary pricing.Summary) ([]models.OrderLine, error) {
	out := make([]models.OrderLine, 0, len(summary.Lines))
	for i, line := range summary.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.OrderLine{
			Position:       i,
			ProductID:      productID,
			LineKey:        line.Key,
			ProductName:    line.ProductName,
			UnitPrice:      line.UnitPrice,
			Quantity:       line.Quantity,
			LineTotal:      line.LineTotal,
			Customizations: optionsToModel(line.Customizations),
		})
	}
	return out, nil
}

func optionsToModel(c pricing.Customizations) map[string][]models.ProductOption {
	out := make(map[string][]models.ProductOption, len(c))
	for title, sel := range c {
		if sel.IsEmpty() {
			continue
		}
		for _, opt := range sel.Options() {
			out[title] = append(out[title], models.ProductOption{Name: opt.Name, PriceDelta: opt.PriceDelta})
		}
	}
	return out
}

func optionsFromModel(c map[string][]models.ProductOption) map[string][]pricing.Option {
	if len(c) == 0 {
		return nil
	}
	out := make(map[string][]pricing.Option, len(c))
	for title, opts := range c {
		for _, opt := range opts {
			out[title] = append(out[title], pricing.Option{Name: opt.Name, PriceDelta: opt.PriceDelta})
		}
	}
	return out
}
