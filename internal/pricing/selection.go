package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// Selection is the choice made for one section. The variant is fixed by the section's
// declared mode when the selection is resolved, so pricing never inspects its shape.
type Selection struct {
	mode     enums.SectionMode
	single   *Option
	multiple []Option
}

// Single builds a single-mode selection; nil means the optional section was left empty.
func Single(opt *Option) Selection {
	if opt == nil {
		return Selection{mode: enums.SectionModeSingle}
	}
	chosen := *opt
	return Selection{mode: enums.SectionModeSingle, single: &chosen}
}

// Multiple builds a multiple-mode selection.
func Multiple(opts ...Option) Selection {
	return Selection{mode: enums.SectionModeMultiple, multiple: append([]Option(nil), opts...)}
}

func (s Selection) Mode() enums.SectionMode {
	return s.mode
}

// Chosen returns the single option, if any.
func (s Selection) Chosen() (Option, bool) {
	if s.single == nil {
		return Option{}, false
	}
	return *s.single, true
}

// Options returns a copy of every chosen option regardless of mode.
func (s Selection) Options() []Option {
	if s.mode == enums.SectionModeSingle {
		if s.single == nil {
			return nil
		}
		return []Option{*s.single}
	}
	return append([]Option(nil), s.multiple...)
}

// IsEmpty reports whether nothing was chosen.
func (s Selection) IsEmpty() bool {
	return s.single == nil && len(s.multiple) == 0
}

// Delta sums the price deltas of every chosen option.
func (s Selection) Delta() decimal.Decimal {
	switch s.mode {
	case enums.SectionModeSingle:
		if s.single == nil {
			return decimal.Zero
		}
		return s.single.PriceDelta
	default:
		total := decimal.Zero
		for _, opt := range s.multiple {
			total = total.Add(opt.PriceDelta)
		}
		return total
	}
}

type selectionJSON struct {
	Mode    enums.SectionMode `json:"mode"`
	Option  *Option           `json:"option,omitempty"`
	Options []Option          `json:"options,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	out := selectionJSON{Mode: s.mode}
	if s.mode == enums.SectionModeSingle {
		out.Option = s.single
	} else {
		out.Options = s.multiple
	}
	return json.Marshal(out)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var in selectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Mode {
	case enums.SectionModeSingle:
		if len(in.Options) > 0 {
			return fmt.Errorf("%w: single selection carries an option list", ErrInvalidSelection)
		}
		*s = Single(in.Option)
	case enums.SectionModeMultiple:
		if in.Option != nil {
			return fmt.Errorf("%w: multiple selection carries a single option", ErrInvalidSelection)
		}
		*s = Multiple(in.Options...)
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSelection, in.Mode)
	}
	return nil
}

// Customizations maps section title to the selection made for it.
type Customizations map[string]Selection

// Delta sums every selection's delta.
func (c Customizations) Delta() decimal.Decimal {
	total := decimal.Zero
	for _, sel := range c {
		total = total.Add(sel.Delta())
	}
	return total
}

func (c Customizations) clone() Customizations {
	if c == nil {
		return nil
	}
	out := make(Customizations, len(c))
	for title, sel := range c {
		if sel.mode == enums.SectionModeSingle {
			out[title] = Single(sel.single)
			continue
		}
		out[title] = Multiple(sel.multiple...)
	}
	return out
}
