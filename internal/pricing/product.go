package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// Option is one selectable modifier inside a section. PriceDelta may be zero or negative.
type Option struct {
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// Section groups options under a title. Required only applies to single mode, Max only to
// multiple mode where zero means no cap.
type Section struct {
	Title    string            `json:"title"`
	Mode     enums.SectionMode `json:"mode"`
	Required bool              `json:"required,omitempty"`
	Max      int               `json:"max,omitempty"`
	Options  []Option          `json:"options"`
}

func (s Section) option(name string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

// Product is the read-only catalog snapshot the engine prices against.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Category  string          `json:"category"`
	Available bool            `json:"available"`
	// Stock is nil for unlimited products.
	Stock    *int      `json:"stock,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

func (p Product) section(title string) (Section, bool) {
	for _, s := range p.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// HasStockFor reports whether qty more units fit in the product's stock.
func (p Product) HasStockFor(qty int) bool {
	if p.Stock == nil {
		return true
	}
	return qty <= *p.Stock
}
