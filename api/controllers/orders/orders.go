package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/api/middleware"
	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/api/validators"
	internalorders "github.com/saborhub/saborhub-backend/internal/orders"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/pagination"
)

// List returns the company's order history, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalorders.ListInput{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		page, err := svc.List(r.Context(), companyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), companyID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type statusRequest struct {
	Status    string  `json:"status" validate:"required"`
	CourierID *string `json:"courier_id,omitempty" validate:"omitempty,max=64"`
}

// UpdateStatus moves an order along the kitchen flow, optionally assigning the courier.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), companyID, orderID, internalorders.UpdateStatusInput{
			Status:    status,
			CourierID: payload.CourierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type paymentRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ConfirmPayment records the attendant's PIX verdict.
func ConfirmPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), companyID, orderID, *payload.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DriverOrders lists the orders assigned to the calling driver.
func DriverOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID := middleware.UserIDFromContext(r.Context())
		if courierID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		list, err := svc.ListForCourier(r.Context(), companyID, courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type driverStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=out_for_delivery delivered"`
}

// DriverUpdateStatus marks one of the driver's orders as picked up or delivered.
func DriverUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyFromRequest(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID := middleware.UserIDFromContext(r.Context())
		if courierID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload driverStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateCourierStatus(r.Context(), companyID, courierID, orderID, enums.OrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func companyFromRequest(r *http.Request, ready bool) (uuid.UUID, error) {
	if !ready {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
	}
	companyID, ok := middleware.CompanyIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	return companyID, nil
}
