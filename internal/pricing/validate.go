package pricing

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// ValidateProduct checks a catalog definition before it is stored. Negative option deltas
// are allowed; they surface as warnings when chosen.
func ValidateProduct(p Product) error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProduct}, args...)...))
	}

	if strings.TrimSpace(p.Name) == "" {
		invalid("name is required")
	}
	if p.BasePrice.IsNegative() {
		invalid("base price must not be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		invalid("stock must not be negative")
	}

	titles := make(map[string]struct{}, len(p.Sections))
	for _, s := range p.Sections {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			invalid("section title is required")
			continue
		}
		if _, dup := titles[title]; dup {
			invalid("duplicate section %q", title)
		}
		titles[title] = struct{}{}

		if !s.Mode.IsValid() {
			invalid("section %q has unknown mode %q", title, s.Mode)
		}
		if s.Max < 0 {
			invalid("section %q max must not be negative", title)
		}
		if s.Mode == enums.SectionModeSingle && s.Max != 0 {
			invalid("section %q: max only applies to multiple mode", title)
		}
		if s.Mode == enums.SectionModeMultiple && s.Required {
			invalid("section %q: required only applies to single mode", title)
		}
		if len(s.Options) == 0 {
			invalid("section %q needs at least one option", title)
		}

		names := make(map[string]struct{}, len(s.Options))
		for _, opt := range s.Options {
			name := strings.TrimSpace(opt.Name)
			if name == "" {
				invalid("section %q has an option without a name", title)
				continue
			}
			if _, dup := names[name]; dup {
				invalid("section %q has duplicate option %q", title, name)
			}
			names[name] = struct{}{}
		}
	}
	return errs
}
