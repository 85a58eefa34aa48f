package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/api/middleware"
	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/api/validators"
	"github.com/saborhub/saborhub-backend/internal/companies"
	"github.com/saborhub/saborhub-backend/internal/menu"
	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// PublicMenu renders the available products of the storefront company.
func PublicMenu(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		company := middleware.CompanyFromContext(r.Context())
		if company == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "company not found"))
			return
		}

		categories, err := svc.PublicMenu(r.Context(), company.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"company":    companies.PublicFromModel(company),
			"categories": categories,
		})
	}
}

// ProductList lists the staff company's catalog, optionally filtered.
func ProductList(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}

		available, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := menu.ListFilter{
			Available: available,
			Category:  queryString(r, "category"),
			Search:    queryString(r, "q"),
		}

		products, err := svc.List(r.Context(), companyID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductGet(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), companyID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCreate handles product creation for the staff company.
func ProductCreate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), companyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate replaces the full product definition.
func ProductUpdate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), companyID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// ProductSetAvailability switches a product on or off the public menu.
func ProductSetAvailability(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload availabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetAvailability(r.Context(), companyID, productID, *payload.IsAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "product service unavailable")
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), companyID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type productRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    string           `json:"category" validate:"required,max=60"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	BasePrice   string           `json:"base_price" validate:"required,money"`
	IsAvailable *bool            `json:"is_available,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Sections    []sectionRequest `json:"sections,omitempty" validate:"omitempty,dive"`
}

type sectionRequest struct {
	Title    string          `json:"title" validate:"required,max=60"`
	Mode     string          `json:"mode" validate:"required,oneof=single multiple"`
	Required bool            `json:"required,omitempty"`
	Max      int             `json:"max,omitempty" validate:"omitempty,min=1"`
	Options  []optionRequest `json:"options" validate:"required,min=1,dive"`
}

type optionRequest struct {
	Name string `json:"name" validate:"required,max=60"`
	// PriceDelta may be negative; the cart surfaces a warning for those options.
	PriceDelta string `json:"price_delta,omitempty"`
}

func (p productRequest) toInput() (menu.ProductInput, error) {
	basePrice, err := decimal.NewFromString(strings.TrimSpace(p.BasePrice))
	if err != nil {
		return menu.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price")
	}

	sections := make([]pricing.Section, 0, len(p.Sections))
	for _, s := range p.Sections {
		mode, err := enums.ParseSectionMode(strings.TrimSpace(s.Mode))
		if err != nil {
			return menu.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid section mode")
		}
		options := make([]pricing.Option, 0, len(s.Options))
		for _, o := range s.Options {
			delta := decimal.Zero
			if raw := strings.TrimSpace(o.PriceDelta); raw != "" {
				delta, err = decimal.NewFromString(raw)
				if err != nil {
					return menu.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_delta").
						WithDetails(map[string]string{"option": o.Name})
				}
			}
			options = append(options, pricing.Option{Name: o.Name, PriceDelta: delta})
		}
		sections = append(sections, pricing.Section{
			Title:    s.Title,
			Mode:     mode,
			Required: s.Required,
			Max:      s.Max,
			Options:  options,
		})
	}

	available := true
	if p.IsAvailable != nil {
		available = *p.IsAvailable
	}
	return menu.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		BasePrice:   basePrice,
		IsAvailable: available,
		Stock:       p.Stock,
		Sections:    sections,
	}, nil
}

// companyScope resolves the staff company id, writing the error response itself when
// the request cannot proceed.
func companyScope(w http.ResponseWriter, r *http.Request, logg *logger.Logger, ready bool, unavailable string) (uuid.UUID, bool) {
	if !ready {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, unavailable))
		return uuid.Nil, false
	}
	companyID, ok := middleware.CompanyIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing"))
		return uuid.Nil, false
	}
	return companyID, true
}

func queryString(r *http.Request, key string) *string {
	raw := validators.SanitizeString(r.URL.Query().Get(key), 120)
	if raw == "" {
		return nil
	}
	return &raw
}
