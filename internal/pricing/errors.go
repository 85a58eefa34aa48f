package pricing

import "errors"

var (
	ErrInvalidQuantity          = errors.New("quantity must be positive")
	ErrUnknownLine              = errors.New("cart line not found")
	ErrMissingRequiredSelection = errors.New("required selection missing")
	ErrInvalidSelection         = errors.New("invalid selection")
	ErrInvalidProduct           = errors.New("invalid product definition")
	ErrInvalidDelivery          = errors.New("invalid delivery info")
)

// WarningNegativePriceDelta flags an option or line that prices below the product base.
const WarningNegativePriceDelta = "NEGATIVE_PRICE_DELTA"

// Warning is a non-fatal finding attached to a resolution or a priced line.
type Warning struct {
	Code    string `json:"code"`
	Section string `json:"section,omitempty"`
	Option  string `json:"option,omitempty"`
	LineKey string `json:"line_key,omitempty"`
	Message string `json:"message"`
}
