package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DeliveryInfo is attached when an order is delivered by an assigned courier.
type DeliveryInfo struct {
	Fee          decimal.Decimal `json:"fee"`
	CourierID    string          `json:"courier_id"`
	CustomerName string          `json:"customer_name"`
}

// Validate checks the fee is non-negative and the courier and customer are named.
func (d DeliveryInfo) Validate() error {
	var problems []string
	if d.Fee.IsNegative() {
		problems = append(problems, "fee must not be negative")
	}
	if strings.TrimSpace(d.CourierID) == "" {
		problems = append(problems, "courier_id is required")
	}
	if strings.TrimSpace(d.CustomerName) == "" {
		problems = append(problems, "customer_name is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelivery, strings.Join(problems, "; "))
	}
	return nil
}

// LinePrice is the unit price: base price plus every chosen option delta. It is not
// clamped, so negative deltas can take it below the base price.
func LinePrice(line Line) decimal.Decimal {
	return line.BasePrice.Add(line.Customizations.Delta())
}

func LineTotal(line Line) decimal.Decimal {
	return LinePrice(line).Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func Subtotal(cart Cart) decimal.Decimal {
	total := decimal.Zero
	for _, line := range cart.Lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// GrandTotal adds the delivery fee, if any, to the subtotal.
func GrandTotal(cart Cart, delivery *DeliveryInfo) decimal.Decimal {
	total := Subtotal(cart)
	if delivery != nil {
		total = total.Add(delivery.Fee)
	}
	return total
}

// PricedLine is a line with its computed figures.
type PricedLine struct {
	Line
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Summary is the full breakdown of a cart, used for quotes and order submission.
type Summary struct {
	Lines       []PricedLine    `json:"lines"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Warnings    []Warning       `json:"warnings,omitempty"`
}

// Summarize prices every line and totals the cart. Lines priced below their base get a
// NEGATIVE_PRICE_DELTA warning.
func Summarize(cart Cart, delivery *DeliveryInfo) Summary {
	summary := Summary{
		Lines:       make([]PricedLine, 0, len(cart.Lines)),
		ItemCount:   cart.ItemCount(),
		Subtotal:    Subtotal(cart),
		DeliveryFee: decimal.Zero,
		GrandTotal:  GrandTotal(cart, delivery),
	}
	if delivery != nil {
		summary.DeliveryFee = delivery.Fee
	}
	for _, line := range cart.Lines {
		unit := LinePrice(line)
		summary.Lines = append(summary.Lines, PricedLine{
			Line:      line,
			UnitPrice: unit,
			LineTotal: LineTotal(line),
		})
		if unit.LessThan(line.BasePrice) {
			summary.Warnings = append(summary.Warnings, Warning{
				Code:    WarningNegativePriceDelta,
				LineKey: line.Key,
				Message: fmt.Sprintf("%s is priced below its base price", line.ProductName),
			})
		}
	}
	return summary
}

// Display formats an amount with two decimals for presentation.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
