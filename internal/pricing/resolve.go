package pricing

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

// SelectionInput is the raw choice set sent by a client: section title to option names.
type SelectionInput map[string][]string

// Resolution is a validated customization set plus any non-fatal warnings.
type Resolution struct {
	Customizations Customizations
	Warnings       []Warning
}

// Resolve validates raw choices against the product's sections and builds the tagged
// selections once. Every problem found is reported through a single multierr error so
// callers can show them together.
func Resolve(product Product, input SelectionInput) (Resolution, error) {
	var errs error
	res := Resolution{Customizations: Customizations{}}

	titles := make([]string, 0, len(input))
	for title := range input {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		if _, ok := product.section(title); !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: unknown section %q", ErrInvalidSelection, title))
		}
	}

	for _, section := range product.Sections {
		names := dedupe(input[section.Title])
		chosen := make([]Option, 0, len(names))
		for _, name := range names {
			opt, ok := section.option(name)
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: unknown option %q in section %q", ErrInvalidSelection, name, section.Title))
				continue
			}
			if opt.PriceDelta.IsNegative() {
				res.Warnings = append(res.Warnings, Warning{
					Code:    WarningNegativePriceDelta,
					Section: section.Title,
					Option:  opt.Name,
					Message: fmt.Sprintf("option %q lowers the price by %s", opt.Name, opt.PriceDelta.Neg().StringFixed(2)),
				})
			}
			chosen = append(chosen, opt)
		}

		switch section.Mode {
		case enums.SectionModeSingle:
			if len(names) > 1 {
				errs = multierr.Append(errs, fmt.Errorf("%w: section %q accepts one option, got %d", ErrInvalidSelection, section.Title, len(names)))
				continue
			}
			if len(names) == 0 {
				if section.Required {
					errs = multierr.Append(errs, fmt.Errorf("%w: section %q", ErrMissingRequiredSelection, section.Title))
				}
				continue
			}
			if len(chosen) == 1 {
				res.Customizations[section.Title] = Single(&chosen[0])
			}
		case enums.SectionModeMultiple:
			if section.Max > 0 && len(names) > section.Max {
				errs = multierr.Append(errs, fmt.Errorf("%w: section %q accepts at most %d options, got %d", ErrInvalidSelection, section.Title, section.Max, len(names)))
				continue
			}
			if len(chosen) > 0 {
				res.Customizations[section.Title] = Multiple(chosen...)
			}
		default:
			errs = multierr.Append(errs, fmt.Errorf("%w: section %q has mode %q", ErrInvalidProduct, section.Title, section.Mode))
		}
	}

	if errs != nil {
		return Resolution{}, errs
	}
	return res, nil
}

// SelectionInputOf converts resolved customizations back into raw input, e.g. to re-resolve
// a stored line against the current catalog.
func SelectionInputOf(customizations Customizations) SelectionInput {
	out := SelectionInput{}
	for title, sel := range customizations {
		for _, opt := range sel.Options() {
			out[title] = append(out[title], opt.Name)
		}
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
