package enums

// OrderStatus tracks the kitchen and delivery lifecycle of an order.
type OrderStatus string

const (
	OrderStatusAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	OrderStatusPreparing            OrderStatus = "preparing"
	OrderStatusReadyForDelivery     OrderStatus = "ready_for_delivery"
	OrderStatusOutForDelivery       OrderStatus = "out_for_delivery"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusPaymentRefused       OrderStatus = "payment_refused"
	OrderStatusCanceled             OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingConfirmation,
	OrderStatusPreparing,
	OrderStatusReadyForDelivery,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusPaymentRefused,
	OrderStatusCanceled,
}

func (o OrderStatus) String() string {
	return string(o)
}

func (o OrderStatus) IsValid() bool {
	return isOneOf(o, validOrderStatuses)
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parseOneOf(value, validOrderStatuses, "order status")
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingConfirmation: {OrderStatusPreparing, OrderStatusPaymentRefused, OrderStatusCanceled},
	OrderStatusPreparing:            {OrderStatusReadyForDelivery, OrderStatusCanceled},
	OrderStatusReadyForDelivery:     {OrderStatusOutForDelivery, OrderStatusDelivered},
	OrderStatusOutForDelivery:       {OrderStatusDelivered},
}

// CanTransitionTo reports whether staff may move an order from o to next.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[o] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (o OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[o]) == 0
}
