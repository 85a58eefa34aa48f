package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/api/validators"
	"github.com/saborhub/saborhub-backend/internal/companies"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// CompanyProfile returns the settings of the staff member's company.
func CompanyProfile(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "company service unavailable")
		if !ok {
			return
		}
		company, err := svc.GetByID(r.Context(), companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}

type updateSettingsRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=255"`
	WorkingHours *string `json:"working_hours,omitempty" validate:"omitempty,max=255"`
	// DeliveryFee set to an empty string falls back to the platform default fee.
	DeliveryFee *string `json:"delivery_fee,omitempty" validate:"omitempty,money"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (p updateSettingsRequest) toInput(allowActivation bool) (companies.UpdateSettingsInput, error) {
	input := companies.UpdateSettingsInput{
		Name:         p.Name,
		Phone:        p.Phone,
		Address:      p.Address,
		WorkingHours: p.WorkingHours,
	}
	if p.DeliveryFee != nil {
		raw := strings.TrimSpace(*p.DeliveryFee)
		if raw == "" {
			input.ClearDeliveryFee = true
		} else {
			fee, err := decimal.NewFromString(raw)
			if err != nil {
				return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery_fee")
			}
			input.DeliveryFee = &fee
		}
	}
	if p.IsActive != nil {
		if !allowActivation {
			return input, pkgerrors.New(pkgerrors.CodeForbidden, "only platform admins can change company activation")
		}
		input.IsActive = p.IsActive
	}
	return input, nil
}

// CompanyUpdateSettings patches the staff member's company.
func CompanyUpdateSettings(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := companyScope(w, r, logg, svc != nil, "company service unavailable")
		if !ok {
			return
		}

		var payload updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		company, err := svc.UpdateSettings(r.Context(), companyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}

type createCompanyRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Slug         string  `json:"slug" validate:"required,max=63"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=255"`
	WorkingHours *string `json:"working_hours,omitempty" validate:"omitempty,max=255"`
	DeliveryFee  *string `json:"delivery_fee,omitempty" validate:"omitempty,money"`
}

// AdminCompanyCreate onboards a new tenant. Platform admins only.
func AdminCompanyCreate(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}

		var payload createCompanyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := companies.CreateCompanyInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			Phone:        payload.Phone,
			Address:      payload.Address,
			WorkingHours: payload.WorkingHours,
		}
		if payload.DeliveryFee != nil && strings.TrimSpace(*payload.DeliveryFee) != "" {
			fee, err := decimal.NewFromString(strings.TrimSpace(*payload.DeliveryFee))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery_fee"))
				return
			}
			input.DeliveryFee = &fee
		}

		company, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, company)
	}
}

func AdminCompanyGet(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}
		companyID, err := validators.ParseUUIDParam(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		company, err := svc.GetByID(r.Context(), companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}

// AdminCompanyUpdate patches any company, activation included.
func AdminCompanyUpdate(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}
		companyID, err := validators.ParseUUIDParam(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		company, err := svc.UpdateSettings(r.Context(), companyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}
