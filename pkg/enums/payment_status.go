package enums

// PaymentStatus tracks manual payment confirmation by staff.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRefused   PaymentStatus = "refused"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusConfirmed,
	PaymentStatusRefused,
}

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	return isOneOf(p, validPaymentStatuses)
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parseOneOf(value, validPaymentStatuses, "payment status")
}
