package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderCreatedEvent is the payload of order.created.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Number        int64               `json:"number"`
	Type          enums.OrderType     `json:"order_type"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
	Total         decimal.Decimal     `json:"total"`
	CourierID     *string             `json:"courier_id,omitempty"`
}

// OrderStatusChangedEvent is the payload of order.status_changed.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	Number         int64               `json:"number"`
	PreviousStatus enums.OrderStatus   `json:"previous_status"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	CourierID      *string             `json:"courier_id,omitempty"`
}

func createdPayload(o *models.Order) OrderCreatedEvent {
	items := 0
	for _, l := range o.Lines {
		items += l.Quantity
	}
	return OrderCreatedEvent{
		OrderID:       o.ID,
		Number:        o.Number,
		Type:          o.Type,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		ItemCount:     items,
		Total:         o.Total,
		CourierID:     o.CourierID,
	}
}

func statusChangedPayload(o *models.Order, previous enums.OrderStatus) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:        o.ID,
		Number:         o.Number,
		PreviousStatus: previous,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		CourierID:      o.CourierID,
	}
}
