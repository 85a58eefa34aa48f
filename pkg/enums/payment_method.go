package enums

// PaymentMethod describes how the customer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodPIX            PaymentMethod = "pix"
	PaymentMethodCardOnDelivery PaymentMethod = "card_on_delivery"
	PaymentMethodCash           PaymentMethod = "cash"
	PaymentMethodPaymentLink    PaymentMethod = "payment_link"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodPIX,
	PaymentMethodCardOnDelivery,
	PaymentMethodCash,
	PaymentMethodPaymentLink,
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	return isOneOf(p, validPaymentMethods)
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parseOneOf(value, validPaymentMethods, "payment method")
}

// RequiresConfirmation reports whether staff must confirm the payment before the kitchen starts.
func (p PaymentMethod) RequiresConfirmation() bool {
	return p == PaymentMethodPIX
}
