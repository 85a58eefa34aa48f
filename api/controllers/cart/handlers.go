package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/api/middleware"
	"github.com/saborhub/saborhub-backend/api/responses"
	"github.com/saborhub/saborhub-backend/api/validators"
	cartsvc "github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/orders"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// CartFetch returns the priced session cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), companyID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartQuote prices the cart and checks it against the live catalog before checkout.
func CartQuote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Quote(r.Context(), companyID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds one customized product, merging into an identical line when present.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), companyID, sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartDecrementItem lowers a line by one, dropping it at zero.
func CartDecrementItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.DecrementItem(r.Context(), companyID, sessionID, lineKeyParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), companyID, sessionID, lineKeyParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartClear empties the cart, delivery info included.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), companyID, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartSetDelivery attaches POS delivery info (fee, courier, customer name) to the cart.
func CartSetDelivery(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		info, err := payload.toInfo()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetDelivery(r.Context(), companyID, sessionID, info)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClearDelivery(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ClearDelivery(r.Context(), companyID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Checkout turns the session cart into an order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, sessionID, err := storefrontScope(r, svc != nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), companyID, sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func storefrontScope(r *http.Request, ready bool) (uuid.UUID, string, error) {
	if !ready {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable")
	}
	company := middleware.CompanyFromContext(r.Context())
	if company == nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return company.ID, sessionID, nil
}

func lineKeyParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "lineKey"))
}
