package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/config"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
)

// Warning codes added on top of the pricing engine's.
const (
	WarningProductUnavailable = "PRODUCT_UNAVAILABLE"
	WarningPriceChanged       = "PRICE_CHANGED"
)

type productSource interface {
	Snapshot(ctx context.Context, companyID, productID uuid.UUID) (pricing.Product, error)
}

// Service drives the session cart of one company menu.
type Service interface {
	Get(ctx context.Context, companyID uuid.UUID, sessionID string) (*View, error)
	AddItem(ctx context.Context, companyID uuid.UUID, sessionID string, input AddItemInput) (*View, error)
	DecrementItem(ctx context.Context, companyID uuid.UUID, sessionID, lineKey string) (*View, error)
	RemoveItem(ctx context.Context, companyID uuid.UUID, sessionID, lineKey string) (*View, error)
	// Clear drops the whole cart, delivery info included.
	Clear(ctx context.Context, companyID uuid.UUID, sessionID string) error
	SetDelivery(ctx context.Context, companyID uuid.UUID, sessionID string, info pricing.DeliveryInfo) (*View, error)
	ClearDelivery(ctx context.Context, companyID uuid.UUID, sessionID string) (*View, error)
	// Quote prices the cart and checks every line against the current catalog.
	Quote(ctx context.Context, companyID uuid.UUID, sessionID string) (*View, error)
	Load(ctx context.Context, companyID uuid.UUID, sessionID string) (State, error)
}

// AddItemInput is one "add to cart" click.
type AddItemInput struct {
	ProductID  uuid.UUID
	Quantity   int
	Selections pricing.SelectionInput
}

// View is the priced cart returned to clients.
type View struct {
	SessionID string `json:"session_id"`
	pricing.Summary
	Delivery *pricing.DeliveryInfo `json:"delivery,omitempty"`
}

type ServiceParams struct {
	Store    Store
	Products productSource
	// Locks is optional; without it concurrent writes to one session race.
	Locks    SessionLocker
	Config   config.CartConfig
	Metrics  *metrics.Commerce
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	store    Store
	products productSource
	locks    SessionLocker
	cfg      config.CartConfig
	metrics  *metrics.Commerce
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		store:    params.Store,
		products: params.Products,
		locks:    params.Locks,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, companyID uuid.UUID, sessionID string) (*View, error) {
	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	return newView(sessionID, state, nil), nil
}

func (s *service) AddItem(ctx context.Context, companyID uuid.UUID, sessionID string, input AddItemInput) (out *View, err error) {
	defer func() { s.metrics.CartOperation("add", err) }()

	if input.Quantity <= 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, pricing.ErrInvalidQuantity, "quantity must be positive")
	}
	if s.cfg.MaxQuantity > 0 && input.Quantity > s.cfg.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity limit reached").
			WithDetails(map[string]any{"max_quantity": s.cfg.MaxQuantity})
	}
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.Snapshot(ctx, companyID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is unavailable").
			WithDetails(map[string]any{"product_id": product.ID})
	}
	held := state.Cart.QuantityOf(product.ID)
	if held > math.MaxInt-input.Quantity {
		return nil, engineError(fmt.Errorf("%w: %s cannot hold %d more", pricing.ErrInvalidQuantity, product.Name, input.Quantity))
	}
	if !product.HasStockFor(held + input.Quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"product_id": product.ID, "available": *product.Stock})
	}

	resolution, err := pricing.Resolve(product, input.Selections)
	if err != nil {
		return nil, engineError(err)
	}

	next, err := pricing.AddToCart(state.Cart, product, input.Quantity, resolution.Customizations)
	if err != nil {
		return nil, engineError(err)
	}
	if len(next.Lines) > s.cfg.MaxLines && s.cfg.MaxLines > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line limit reached").
			WithDetails(map[string]any{"max_lines": s.cfg.MaxLines})
	}
	key := pricing.LineKey(product.ID, resolution.Customizations)
	if line, ok := next.Find(key); ok && s.cfg.MaxQuantity > 0 && line.Quantity > s.cfg.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity limit reached").
			WithDetails(map[string]any{"max_quantity": s.cfg.MaxQuantity, "line_key": key})
	}

	state.Cart = next
	if err := s.save(ctx, companyID, sessionID, state); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": product.ID, "line_key": key, "quantity": input.Quantity})
	s.logg.Debug(ctx, "cart.item_added")
	return newView(sessionID, state, resolution.Warnings), nil
}

func (s *service) DecrementItem(ctx context.Context, companyID uuid.UUID, sessionID, lineKey string) (out *View, err error) {
	defer func() { s.metrics.CartOperation("decrement", err) }()
	return s.mutateLine(ctx, companyID, sessionID, lineKey, pricing.DecrementLine)
}

func (s *service) RemoveItem(ctx context.Context, companyID uuid.UUID, sessionID, lineKey string) (out *View, err error) {
	defer func() { s.metrics.CartOperation("remove", err) }()
	return s.mutateLine(ctx, companyID, sessionID, lineKey, pricing.RemoveLine)
}

func (s *service) mutateLine(ctx context.Context, companyID uuid.UUID, sessionID, lineKey string, op func(pricing.Cart, string) (pricing.Cart, error)) (*View, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := op(state.Cart, strings.TrimSpace(lineKey))
	if err != nil {
		return nil, engineError(err)
	}

	state.Cart = next
	if state.Cart.IsEmpty() {
		// an emptied cart loses its courier assignment too
		state.Delivery = nil
	}
	if err := s.save(ctx, companyID, sessionID, state); err != nil {
		return nil, err
	}
	return newView(sessionID, state, nil), nil
}

func (s *service) Clear(ctx context.Context, companyID uuid.UUID, sessionID string) (err error) {
	defer func() { s.metrics.CartOperation("clear", err) }()
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, companyID, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) SetDelivery(ctx context.Context, companyID uuid.UUID, sessionID string, info pricing.DeliveryInfo) (out *View, err error) {
	defer func() { s.metrics.CartOperation("set_delivery", err) }()

	info.CourierID = strings.TrimSpace(info.CourierID)
	info.CustomerName = strings.TrimSpace(info.CustomerName)
	if err := info.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot assign delivery to an empty cart")
	}

	state.Delivery = &info
	if err := s.save(ctx, companyID, sessionID, state); err != nil {
		return nil, err
	}
	return newView(sessionID, state, nil), nil
}

func (s *service) ClearDelivery(ctx context.Context, companyID uuid.UUID, sessionID string) (out *View, err error) {
	defer func() { s.metrics.CartOperation("clear_delivery", err) }()

	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Delivery == nil {
		return newView(sessionID, state, nil), nil
	}
	state.Delivery = nil
	if err := s.save(ctx, companyID, sessionID, state); err != nil {
		return nil, err
	}
	return newView(sessionID, state, nil), nil
}

func (s *service) Quote(ctx context.Context, companyID uuid.UUID, sessionID string) (*View, error) {
	state, err := s.Load(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}

	var warnings []pricing.Warning
	for _, line := range state.Cart.Lines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			continue
		}
		current, err := s.products.Snapshot(ctx, companyID, id)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			warnings = append(warnings, lineWarning(WarningProductUnavailable, line, "%s was removed from the menu", line.ProductName))
		case err != nil:
			return nil, err
		case !current.Available || !current.HasStockFor(state.Cart.QuantityOf(current.ID)):
			warnings = append(warnings, lineWarning(WarningProductUnavailable, line, "%s is no longer available in this quantity", line.ProductName))
		case !current.BasePrice.Equal(line.BasePrice):
			warnings = append(warnings, lineWarning(WarningPriceChanged, line, "%s now costs %s", line.ProductName, pricing.Display(current.BasePrice)))
		}
	}
	return newView(sessionID, state, warnings), nil
}

// Load returns the stored cart, or an empty one for a new session.
func (s *service) Load(ctx context.Context, companyID uuid.UUID, sessionID string) (State, error) {
	if err := checkSession(sessionID); err != nil {
		return State{}, err
	}
	state, err := s.store.Load(ctx, companyID, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return state, nil
}

// lock takes the session lease when a locker is configured.
func (s *service) lock(ctx context.Context, companyID uuid.UUID, sessionID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	unlock, err := s.locks.Lock(ctx, companyID, sessionID)
	switch {
	case errors.Is(err, ErrSessionBusy):
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is being updated by another request")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart session")
	}
	return unlock, nil
}

func (s *service) save(ctx context.Context, companyID uuid.UUID, sessionID string, state State) error {
	state.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, companyID, sessionID, state); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func checkSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}

func newView(sessionID string, state State, extra []pricing.Warning) *View {
	summary := pricing.Summarize(state.Cart, state.Delivery)
	summary.Warnings = append(extra, summary.Warnings...)
	return &View{SessionID: sessionID, Summary: summary, Delivery: state.Delivery}
}

func lineWarning(code string, line pricing.Line, format string, args ...any) pricing.Warning {
	return pricing.Warning{Code: code, LineKey: line.Key, Message: fmt.Sprintf(format, args...)}
}

// engineError maps pricing sentinels onto API codes, keeping every aggregated problem.
func engineError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownLine):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart line not found")
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrMissingRequiredSelection),
		errors.Is(err, pricing.ErrInvalidSelection):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selection").
			WithDetails(map[string]any{"problems": problems(err)})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "pricing failed")
}

func problems(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
