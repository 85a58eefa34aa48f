package enums

// OrderType describes how the customer receives the order.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDineIn   OrderType = "dine_in"
)

var validOrderTypes = []OrderType{
	OrderTypeDelivery,
	OrderTypePickup,
	OrderTypeDineIn,
}

func (o OrderType) String() string {
	return string(o)
}

func (o OrderType) IsValid() bool {
	return isOneOf(o, validOrderTypes)
}

func ParseOrderType(value string) (OrderType, error) {
	return parseOneOf(value, validOrderTypes, "order type")
}
