package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
	"github.com/saborhub/saborhub-backend/pkg/pagination"
	"github.com/saborhub/saborhub-backend/pkg/pubsub"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRepository interface {
	CreateWithTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Order, error)
	FindByIDWithTx(tx *gorm.DB, companyID, id uuid.UUID) (*models.Order, error)
	UpdateWithTx(tx *gorm.DB, order *models.Order) error
	List(ctx context.Context, companyID uuid.UUID, q ListQuery) ([]models.Order, error)
	ListForCourier(ctx context.Context, companyID uuid.UUID, courierID string, statuses []enums.OrderStatus) ([]models.Order, error)
	ListAwaitingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type companyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	NextOrderNumberWithTx(tx *gorm.DB, id uuid.UUID) (int64, error)
}

type catalog interface {
	Snapshot(ctx context.Context, companyID, productID uuid.UUID) (pricing.Product, error)
	ReserveStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error
	RestoreStockWithTx(tx *gorm.DB, companyID uuid.UUID, qtyByProduct map[uuid.UUID]int) error
}

type cartSource interface {
	Load(ctx context.Context, companyID uuid.UUID, sessionID string) (cart.State, error)
	Clear(ctx context.Context, companyID uuid.UUID, sessionID string) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, aggregateID uuid.UUID, event pubsub.Event) error
}

// Service turns session carts into orders and drives them through the kitchen and
// delivery flow.
type Service interface {
	Submit(ctx context.Context, companyID uuid.UUID, sessionID string, input SubmitInput) (*OrderDTO, error)
	List(ctx context.Context, companyID uuid.UUID, input ListInput) (*pagination.Page[OrderDTO], error)
	Get(ctx context.Context, companyID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, companyID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	// ConfirmPayment settles a PIX order: approved starts preparation, otherwise the
	// order ends as payment_refused.
	ConfirmPayment(ctx context.Context, companyID, orderID uuid.UUID, approved bool) (*OrderDTO, error)
	ListForCourier(ctx context.Context, companyID uuid.UUID, courierID string) ([]OrderDTO, error)
	// UpdateCourierStatus lets a driver move one of their own orders along the road.
	UpdateCourierStatus(ctx context.Context, companyID uuid.UUID, courierID string, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	// ExpireUnconfirmed cancels up to limit orders whose payment was never confirmed
	// before cutoff and reports how many were canceled.
	ExpireUnconfirmed(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ListInput carries the raw query of an order history request.
type ListInput struct {
	Status *enums.OrderStatus
	Cursor string
	Limit  int
}

type ServiceParams struct {
	Repo      orderRepository
	Tx        txRunner
	Companies companyRepository
	Catalog   catalog
	Carts     cartSource
	// Locks is the cart session lease; it keeps two checkouts of one cart apart.
	Locks     cart.SessionLocker
	Events    eventEmitter
	Config    config.OrdersConfig
	Metrics   *metrics.Commerce
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      orderRepository
	tx        txRunner
	companies companyRepository
	catalog   catalog
	carts     cartSource
	locks     cart.SessionLocker
	events    eventEmitter
	cfg       config.OrdersConfig
	metrics   *metrics.Commerce
	logg      *logger.Logger
	now       func() time.Time
}

var courierStatuses = []enums.OrderStatus{enums.OrderStatusReadyForDelivery, enums.OrderStatusOutForDelivery}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Companies == nil:
		return nil, fmt.Errorf("company repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart source required")
	case params.Events == nil:
		return nil, fmt.Errorf("event emitter required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		companies: params.Companies,
		catalog:   params.Catalog,
		carts:     params.Carts,
		locks:     params.Locks,
		events:    params.Events,
		cfg:       params.Config,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, companyID uuid.UUID, sessionID string, input SubmitInput) (*OrderDTO, error) {
	input = input.normalized()
	unlock, err := s.lockSession(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	// held until the cart is cleared so a second checkout finds it empty
	defer unlock()

	state, err := s.carts.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if input.CustomerName == "" && state.Delivery != nil {
		input.CustomerName = state.Delivery.CustomerName
	}
	if err := validateSubmit(input, state.Delivery); err != nil {
		return nil, err
	}

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	if !company.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}

	qtyByProduct, err := s.checkCatalog(ctx, companyID, state.Cart)
	if err != nil {
		return nil, err
	}

	delivery := &pricing.DeliveryInfo{Fee: s.deliveryFee(company, input.Type, state.Delivery)}
	summary := pricing.Summarize(state.Cart, delivery)
	lines, err := linesFromSummary(summary)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot cart lines")
	}

	now := s.now().UTC()
	order := &models.Order{
		CompanyID:     companyID,
		SessionID:     sessionID,
		Type:          input.Type,
		Status:        initialStatus(input.PaymentMethod),
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: enums.PaymentStatusPending,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Address:       input.Address,
		TableNumber:   input.TableNumber,
		Notes:         input.Notes,
		Lines:         lines,
		Subtotal:      summary.Subtotal,
		DeliveryFee:   summary.DeliveryFee,
		Total:         summary.GrandTotal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if state.Delivery != nil {
		courier := state.Delivery.CourierID
		order.CourierID = &courier
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.companies.NextOrderNumberWithTx(tx, companyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		order.Number = number

		if err := s.catalog.ReserveStockWithTx(tx, companyID, qtyByProduct); err != nil {
			return err
		}
		if err := s.repo.CreateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.emit(ctx, tx, order, EventOrderCreated, createdPayload(order))
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.Number,
		"order_type":   order.Type.String(),
	})
	s.logg.Info(ctx, "order submitted")
	s.metrics.OrderSubmitted(order.Type.String(), order.PaymentMethod.String(), order.Total)

	if err := s.carts.Clear(ctx, companyID, sessionID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("clear cart after submit: %v", err))
	}

	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) lockSession(ctx context.Context, companyID uuid.UUID, sessionID string) (func(), error) {
	if s.locks == nil || strings.TrimSpace(sessionID) == "" {
		return func() {}, nil
	}
	unlock, err := s.locks.Lock(ctx, companyID, sessionID)
	switch {
	case errors.Is(err, cart.ErrSessionBusy):
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout already in progress for this cart")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart session")
	}
	return unlock, nil
}

// checkCatalog rejects carts holding products that were deleted or switched off since
// they were added, and sums quantities per product for the stock reservation.
func (s *service) checkCatalog(ctx context.Context, companyID uuid.UUID, c pricing.Cart) (map[uuid.UUID]int, error) {
	qtyByProduct := map[uuid.UUID]int{}
	for _, line := range c.Lines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart holds an invalid product id")
		}
		if _, seen := qtyByProduct[id]; !seen {
			product, err := s.catalog.Snapshot(ctx, companyID, id)
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || (err == nil && !product.Available) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is unavailable").
					WithDetails(map[string]any{"product_id": line.ProductID, "line_key": line.Key})
			}
			if err != nil {
				return nil, err
			}
		}
		qtyByProduct[id] += line.Quantity
	}
	return qtyByProduct, nil
}

func (s *service) deliveryFee(company *models.Company, orderType enums.OrderType, pos *pricing.DeliveryInfo) decimal.Decimal {
	switch {
	case pos != nil:
		return pos.Fee
	case orderType != enums.OrderTypeDelivery:
		return decimal.Zero
	case company.DeliveryFee != nil:
		return *company.DeliveryFee
	default:
		return s.cfg.DeliveryFee()
	}
}

func (s *service) List(ctx context.Context, companyID uuid.UUID, input ListInput) (*pagination.Page[OrderDTO], error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	limit = pagination.NormalizeLimit(limit)

	rows, err := s.repo.List(ctx, companyID, ListQuery{
		Status: input.Status,
		Cursor: cursor,
		Limit:  pagination.LimitWithBuffer(limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	items := make([]OrderDTO, 0, len(page.Items))
	for _, o := range page.Items {
		items = append(items, FromModel(o))
	}
	return &pagination.Page[OrderDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, companyID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, companyID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, companyID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	courierID := trimmed(input.CourierID)
	return s.transition(ctx, companyID, orderID, func(order *models.Order) error {
		if courierID != nil {
			if order.Type != enums.OrderTypeDelivery {
				return pkgerrors.New(pkgerrors.CodeValidation, "couriers can only be assigned to delivery orders")
			}
			order.CourierID = courierID
		}
		return s.apply(order, input.Status)
	})
}

func (s *service) ConfirmPayment(ctx context.Context, companyID, orderID uuid.UUID, approved bool) (*OrderDTO, error) {
	next := enums.OrderStatusPaymentRefused
	if approved {
		next = enums.OrderStatusPreparing
	}
	return s.transition(ctx, companyID, orderID, func(order *models.Order) error {
		if order.Status != enums.OrderStatusAwaitingConfirmation || order.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment confirmation").
				WithDetails(map[string]any{"status": order.Status, "payment_status": order.PaymentStatus})
		}
		return s.apply(order, next)
	})
}

func (s *service) ListForCourier(ctx context.Context, companyID uuid.UUID, courierID string) ([]OrderDTO, error) {
	courierID = strings.TrimSpace(courierID)
	if courierID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id is required")
	}
	rows, err := s.repo.ListForCourier(ctx, companyID, courierID, courierStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list courier orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, o := range rows {
		out = append(out, FromModel(o))
	}
	return out, nil
}

func (s *service) UpdateCourierStatus(ctx context.Context, companyID uuid.UUID, courierID string, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if status != enums.OrderStatusOutForDelivery && status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "drivers may only mark orders out for delivery or delivered")
	}
	courierID = strings.TrimSpace(courierID)
	return s.transition(ctx, companyID, orderID, func(order *models.Order) error {
		if order.CourierID == nil || *order.CourierID != courierID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return s.apply(order, status)
	})
}

func (s *service) ExpireUnconfirmed(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	rows, err := s.repo.ListAwaitingBefore(ctx, cutoff.UTC(), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unconfirmed orders")
	}

	expired := 0
	for _, row := range rows {
		_, err := s.transition(ctx, row.CompanyID, row.ID, func(order *models.Order) error {
			if order.Status != enums.OrderStatusAwaitingConfirmation {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order left awaiting confirmation")
			}
			return s.apply(order, enums.OrderStatusCanceled)
		})
		switch {
		case err == nil:
			expired++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
			// confirmed or refused between the scan and the lock
		default:
			return expired, err
		}
	}
	return expired, nil
}

// transition loads and locks the order, lets mutate change it, then saves it and
// queues order.status_changed in the same transaction.
func (s *service) transition(ctx context.Context, companyID, orderID uuid.UUID, mutate func(order *models.Order) error) (*OrderDTO, error) {
	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByIDWithTx(tx, companyID, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		previous = order.Status

		if err := mutate(order); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCanceled || order.Status == enums.OrderStatusPaymentRefused {
			if err := s.catalog.RestoreStockWithTx(tx, companyID, quantities(order.Lines)); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return s.emit(ctx, tx, order, EventOrderStatusChanged, statusChangedPayload(order, previous))
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":        order.ID.String(),
		"previous_status": previous.String(),
		"status":          order.Status.String(),
	})
	s.logg.Info(ctx, "order status changed")
	s.metrics.OrderStatusChanged(order.Status.String())

	dto := FromModel(*order)
	return &dto, nil
}

// apply moves order to next and stamps the timestamps and payment outcome that go
// with it.
func (s *service) apply(order *models.Order, next enums.OrderStatus) error {
	if !order.Status.CanTransitionTo(next) {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, next).
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}
	if next == enums.OrderStatusOutForDelivery && (order.Type != enums.OrderTypeDelivery || order.CourierID == nil) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivery orders with an assigned courier can go out for delivery")
	}

	now := s.now().UTC()
	switch next {
	case enums.OrderStatusPreparing:
		if order.Status == enums.OrderStatusAwaitingConfirmation {
			order.PaymentStatus = enums.PaymentStatusConfirmed
			order.PaidAt = &now
		}
	case enums.OrderStatusPaymentRefused:
		order.PaymentStatus = enums.PaymentStatusRefused
	case enums.OrderStatusCanceled:
		order.CanceledAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
		if order.PaymentStatus == enums.PaymentStatusPending && collectsOnDelivery(order.PaymentMethod) {
			order.PaymentStatus = enums.PaymentStatusConfirmed
			order.PaidAt = &now
		}
	}
	order.Status = next
	order.UpdatedAt = now
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, order *models.Order, eventType string, payload any) error {
	event, err := pubsub.NewEvent(eventType, order.CompanyID, s.now().UTC(), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+eventType)
	}
	if err := s.events.Emit(ctx, tx, order.ID, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue "+eventType)
	}
	return nil
}

func validateSubmit(input SubmitInput, pos *pricing.DeliveryInfo) error {
	details := map[string]string{}
	if !input.Type.IsValid() {
		details["order_type"] = "must be one of delivery pickup dine_in"
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be one of pix card_on_delivery cash payment_link"
	}
	if input.CustomerName == "" {
		details["customer_name"] = "is required"
	}
	switch input.Type {
	case enums.OrderTypeDelivery:
		if input.Address == nil && pos == nil {
			details["address"] = "is required for delivery orders"
		}
	case enums.OrderTypeDineIn:
		if input.TableNumber == nil {
			details["table_number"] = "is required for dine-in orders"
		}
	}
	if pos != nil && input.Type.IsValid() && input.Type != enums.OrderTypeDelivery {
		details["order_type"] = "cart has a courier assigned; order type must be delivery"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(details)
	}
	return nil
}

func initialStatus(method enums.PaymentMethod) enums.OrderStatus {
	if method.RequiresConfirmation() {
		return enums.OrderStatusAwaitingConfirmation
	}
	return enums.OrderStatusPreparing
}

func collectsOnDelivery(method enums.PaymentMethod) bool {
	return method == enums.PaymentMethodCash || method == enums.PaymentMethodCardOnDelivery
}

func quantities(lines []models.OrderLine) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func (in SubmitInput) normalized() SubmitInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = trimmed(in.CustomerPhone)
	in.Address = trimmed(in.Address)
	in.TableNumber = trimmed(in.TableNumber)
	in.Notes = trimmed(in.Notes)
	return in
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
