package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saborhub/saborhub-backend/api/validators"
	cartsvc "github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/orders"
	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
)

type addItemRequest struct {
	ProductID  string              `json:"product_id" validate:"required,uuid"`
	Quantity   int                 `json:"quantity" validate:"required,min=1,max=999"`
	Selections map[string][]string `json:"selections,omitempty"`
}

func (p addItemRequest) toInput() (cartsvc.AddItemInput, error) {
	productID, err := uuid.Parse(p.ProductID)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	return cartsvc.AddItemInput{
		ProductID:  productID,
		Quantity:   p.Quantity,
		Selections: pricing.SelectionInput(p.Selections),
	}, nil
}

type deliveryRequest struct {
	Fee          string `json:"fee" validate:"required,money"`
	CourierID    string `json:"courier_id" validate:"required,max=64"`
	CustomerName string `json:"customer_name" validate:"required,max=120"`
}

func (p deliveryRequest) toInfo() (pricing.DeliveryInfo, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(p.Fee))
	if err != nil {
		return pricing.DeliveryInfo{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee")
	}
	return pricing.DeliveryInfo{
		Fee:          fee,
		CourierID:    p.CourierID,
		CustomerName: p.CustomerName,
	}, nil
}

type checkoutRequest struct {
	OrderType     string  `json:"order_type" validate:"required,oneof=delivery pickup dine_in"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=pix card_on_delivery cash payment_link"`
	CustomerName  string  `json:"customer_name,omitempty" validate:"max=120"`
	CustomerPhone *string `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=255"`
	TableNumber   *string `json:"table_number,omitempty" validate:"omitempty,max=16"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (p checkoutRequest) toInput() (orders.SubmitInput, error) {
	orderType, err := enums.ParseOrderType(strings.TrimSpace(p.OrderType))
	if err != nil {
		return orders.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_type")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(p.PaymentMethod))
	if err != nil {
		return orders.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
	}
	return orders.SubmitInput{
		Type:          orderType,
		PaymentMethod: method,
		CustomerName:  validators.SanitizeString(p.CustomerName, 120),
		CustomerPhone: p.CustomerPhone,
		Address:       p.Address,
		TableNumber:   p.TableNumber,
		Notes:         p.Notes,
	}, nil
}
