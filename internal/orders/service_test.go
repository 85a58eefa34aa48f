package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/companies"
	"github.com/saborhub/saborhub-backend/internal/menu"
	"github.com/saborhub/saborhub-backend/internal/pricing"
	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db"
	"github.com/saborhub/saborhub-backend/pkg/db/dbtest"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/outbox"
)

type memoryCarts struct {
	mu     sync.Mutex
	states map[string]cart.State
}

func (m *memoryCarts) key(companyID uuid.UUID, sessionID string) string {
	return companyID.String() + "|" + sessionID
}

func (m *memoryCarts) Load(_ context.Context, companyID uuid.UUID, sessionID string) (cart.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[m.key(companyID, sessionID)], nil
}

func (m *memoryCarts) Clear(_ context.Context, companyID uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, m.key(companyID, sessionID))
	return nil
}

func (m *memoryCarts) put(companyID uuid.UUID, sessionID string, state cart.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[m.key(companyID, sessionID)] = state
}

// memoryLeases stands in for the redis SETNX lease behind cart.RedisLocker.
type memoryLeases struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryLeases() *memoryLeases {
	return &memoryLeases{keys: map[string]string{}}
}

func (m *memoryLeases) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.keys[key]; taken {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memoryLeases) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLeases) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryLeases) CartLockKey(companyID, sessionID string) string {
	return "lock:" + companyID + ":" + sessionID
}

type fixture struct {
	svc     Service
	conn    *gorm.DB
	menu    menu.Service
	carts   *memoryCarts
	leases  *memoryLeases
	company models.Company
	acai    uuid.UUID
	pudim   uuid.UUID
	clock   time.Time
}

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func strPtr(v string) *string { return &v }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s got %s", want, got)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()

	f := &fixture{
		conn:  conn,
		carts:  &memoryCarts{states: map[string]cart.State{}},
		leases: newMemoryLeases(),
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.company = models.Company{Name: "Sabor da Casa", Slug: "sabor-da-casa", IsActive: true}
	require.NoError(t, conn.Create(&f.company).Error)

	menuSvc, err := menu.NewService(menu.NewRepository(conn))
	require.NoError(t, err)
	f.menu = menuSvc

	acai, err := menuSvc.Create(ctx, f.company.ID, menu.ProductInput{
		Name: "Açaí", Category: "Sobremesas", BasePrice: money("18.90"), IsAvailable: true,
		Sections: []pricing.Section{
			{Title: "Tamanho", Mode: enums.SectionModeSingle, Required: true, Options: []pricing.Option{
				{Name: "300ml"}, {Name: "500ml", PriceDelta: money("4.00")},
			}},
			{Title: "Complementos", Mode: enums.SectionModeMultiple, Max: 2, Options: []pricing.Option{
				{Name: "Banana", PriceDelta: money("2.00")}, {Name: "Granola", PriceDelta: money("1.50")},
			}},
		},
	})
	require.NoError(t, err)
	f.acai = acai.ID

	stock := 5
	pudim, err := menuSvc.Create(ctx, f.company.ID, menu.ProductInput{
		Name: "Pudim", Category: "Doces", BasePrice: money("8.00"), IsAvailable: true, Stock: &stock,
	})
	require.NoError(t, err)
	f.pudim = pudim.ID

	f.svc = f.newService(t, 2*time.Second)
	return f
}

// newService builds an order service whose cart session lease gives up after wait.
func (f *fixture) newService(t *testing.T, wait time.Duration) Service {
	t.Helper()
	locks, err := cart.NewRedisLocker(f.leases, time.Minute, wait)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(f.conn),
		Tx:        db.NewFromConn(f.conn),
		Companies: companies.NewRepository(f.conn),
		Catalog:   f.menu,
		Carts:     f.carts,
		Locks:     locks,
		Events:    outbox.NewEmitter(outbox.NewRepository(f.conn), nil),
		Config:    config.OrdersConfig{DefaultDeliveryFee: "5.00", PageSize: 25},
		Now:       f.now,
	})
	require.NoError(t, err)
	return svc
}

// now advances one second per call so every order gets a distinct created_at.
func (f *fixture) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fixture) fillCart(t *testing.T, sessionID string, delivery *pricing.DeliveryInfo) {
	t.Helper()
	ctx := context.Background()

	acai, err := f.menu.Snapshot(ctx, f.company.ID, f.acai)
	require.NoError(t, err)
	res, err := pricing.Resolve(acai, pricing.SelectionInput{"Tamanho": {"500ml"}, "Complementos": {"Banana"}})
	require.NoError(t, err)
	c, err := pricing.AddToCart(pricing.Cart{}, acai, 2, res.Customizations)
	require.NoError(t, err)

	pudim, err := f.menu.Snapshot(ctx, f.company.ID, f.pudim)
	require.NoError(t, err)
	c, err = pricing.AddToCart(c, pudim, 1, nil)
	require.NoError(t, err)

	f.carts.put(f.company.ID, sessionID, cart.State{Cart: c, Delivery: delivery})
}

func (f *fixture) outboxTypes(t *testing.T) []string {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Order("created_at ASC").Order("id ASC").Find(&rows).Error)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.EventType)
	}
	return out
}

func (f *fixture) pudimStock(t *testing.T) int {
	t.Helper()
	p, err := f.menu.Get(context.Background(), f.company.ID, f.pudim)
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	return *p.Stock
}

func deliveryInput(method enums.PaymentMethod) SubmitInput {
	return SubmitInput{
		Type:          enums.OrderTypeDelivery,
		PaymentMethod: method,
		CustomerName:  " Maria ",
		Address:       strPtr("Rua das Flores, 10"),
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestSubmitDeliveryWithPix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "sess-1", nil)

	order, err := f.svc.Submit(ctx, f.company.ID, "sess-1", deliveryInput(enums.PaymentMethodPIX))
	require.NoError(t, err)

	assert.EqualValues(t, 1, order.Number)
	assert.Equal(t, enums.OrderStatusAwaitingConfirmation, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "Maria", order.CustomerName)
	assertMoney(t, "57.80", order.Subtotal)
	assertMoney(t, "5.00", order.DeliveryFee)
	assertMoney(t, "62.80", order.Total)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Açaí", order.Lines[0].ProductName)
	assertMoney(t, "24.90", order.Lines[0].UnitPrice)
	assertMoney(t, "49.80", order.Lines[0].LineTotal)
	assert.Equal(t, "Banana", order.Lines[0].Customizations["Complementos"][0].Name)
	assert.Equal(t, "Pudim", order.Lines[1].ProductName)

	state, err := f.carts.Load(ctx, f.company.ID, "sess-1")
	require.NoError(t, err)
	assert.True(t, state.Cart.IsEmpty(), "cart is cleared after submit")
	assert.Equal(t, 4, f.pudimStock(t))
	assert.Equal(t, []string{EventOrderCreated}, f.outboxTypes(t))

	stored, err := f.svc.Get(ctx, f.company.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, order.Lines[0].LineKey, stored.Lines[0].LineKey)
	assertMoney(t, "62.80", stored.Total)
}

func TestSubmitNumbersOrdersPerCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, session := range []string{"a", "b", "c"} {
		f.fillCart(t, session, nil)
		order, err := f.svc.Submit(ctx, f.company.ID, session, SubmitInput{
			Type: enums.OrderTypePickup, PaymentMethod: enums.PaymentMethodCash, CustomerName: "João",
		})
		require.NoError(t, err)
		assert.EqualValues(t, i+1, order.Number)
		assert.Equal(t, enums.OrderStatusPreparing, order.Status)
		assertMoney(t, "0", order.DeliveryFee)
	}
}

func TestSubmitUsesCompanyAndPosFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fee := money("7.00")
	require.NoError(t, f.conn.Model(&models.Company{}).Where("id = ?", f.company.ID).Update("delivery_fee", fee).Error)

	f.fillCart(t, "company-fee", nil)
	order, err := f.svc.Submit(ctx, f.company.ID, "company-fee", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)
	assertMoney(t, "7.00", order.DeliveryFee)
	assertMoney(t, "64.80", order.Total)
	assert.Nil(t, order.CourierID)

	f.fillCart(t, "pos", &pricing.DeliveryInfo{Fee: money("3.50"), CourierID: "moto-7", CustomerName: "Ana"})
	order, err = f.svc.Submit(ctx, f.company.ID, "pos", SubmitInput{
		Type: enums.OrderTypeDelivery, PaymentMethod: enums.PaymentMethodCardOnDelivery,
	})
	require.NoError(t, err)
	assertMoney(t, "3.50", order.DeliveryFee)
	assertMoney(t, "61.30", order.Total)
	require.NotNil(t, order.CourierID)
	assert.Equal(t, "moto-7", *order.CourierID)
	assert.Equal(t, "Ana", order.CustomerName)
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.company.ID, "empty", deliveryInput(enums.PaymentMethodPIX))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "empty cart: %v", err)

	f.fillCart(t, "s", nil)
	cases := []struct {
		name  string
		input SubmitInput
		field string
	}{
		{"dine in without table", SubmitInput{Type: enums.OrderTypeDineIn, PaymentMethod: enums.PaymentMethodCash, CustomerName: "x"}, "table_number"},
		{"delivery without address", SubmitInput{Type: enums.OrderTypeDelivery, PaymentMethod: enums.PaymentMethodCash, CustomerName: "x"}, "address"},
		{"unknown type", SubmitInput{Type: "takeaway", PaymentMethod: enums.PaymentMethodCash, CustomerName: "x"}, "order_type"},
		{"unknown payment", SubmitInput{Type: enums.OrderTypePickup, PaymentMethod: "boleto", CustomerName: "x"}, "payment_method"},
		{"blank name", SubmitInput{Type: enums.OrderTypePickup, PaymentMethod: enums.PaymentMethodCash, CustomerName: "  "}, "customer_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, f.company.ID, "s", tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Details(), tc.field)
		})
	}

	f.fillCart(t, "pos", &pricing.DeliveryInfo{Fee: money("3.50"), CourierID: "moto-7", CustomerName: "Ana"})
	_, err = f.svc.Submit(ctx, f.company.ID, "pos", SubmitInput{Type: enums.OrderTypePickup, PaymentMethod: enums.PaymentMethodCash})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "courier on a pickup order: %v", err)

	assert.Empty(t, f.outboxTypes(t))
}

func TestSubmitRollsBackOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pudim, err := f.menu.Snapshot(ctx, f.company.ID, f.pudim)
	require.NoError(t, err)
	c, err := pricing.AddToCart(pricing.Cart{}, pudim, 6, nil)
	require.NoError(t, err)
	f.carts.put(f.company.ID, "greedy", cart.State{Cart: c})

	_, err = f.svc.Submit(ctx, f.company.ID, "greedy", SubmitInput{
		Type: enums.OrderTypePickup, PaymentMethod: enums.PaymentMethodCash, CustomerName: "x",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	assert.Equal(t, 5, f.pudimStock(t))
	assert.Empty(t, f.outboxTypes(t))
	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	state, err := f.carts.Load(ctx, f.company.ID, "greedy")
	require.NoError(t, err)
	assert.False(t, state.Cart.IsEmpty(), "a failed submit keeps the cart")

	// the rolled back counter is reused by the next order
	f.fillCart(t, "ok", nil)
	order, err := f.svc.Submit(ctx, f.company.ID, "ok", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)
	assert.EqualValues(t, 1, order.Number)
}

func TestSubmitTwiceForOneCartCreatesOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "twice", nil)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, f.company.ID, "twice", deliveryInput(enums.PaymentMethodCash))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var placed, empty int
	for err := range errs {
		switch {
		case err == nil:
			placed++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
			empty++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, empty, "the second checkout finds the cart already cleared")
	assert.Equal(t, 4, f.pudimStock(t), "stock is reserved once")

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitRejectsBusyCartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "busy", nil)
	impatient := f.newService(t, 30*time.Millisecond)

	holder, err := cart.NewRedisLocker(f.leases, time.Minute, time.Millisecond)
	require.NoError(t, err)
	unlock, err := holder.Lock(ctx, f.company.ID, "busy")
	require.NoError(t, err)

	_, err = impatient.Submit(ctx, f.company.ID, "busy", deliveryInput(enums.PaymentMethodCash))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
	assert.Equal(t, 5, f.pudimStock(t))
	state, err := f.carts.Load(ctx, f.company.ID, "busy")
	require.NoError(t, err)
	assert.False(t, state.Cart.IsEmpty())

	unlock()
	_, err = impatient.Submit(ctx, f.company.ID, "busy", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)
	assert.Empty(t, f.leases.keys, "the lease is released after checkout")
}

func TestSubmitRejectsProductsSwitchedOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "s", nil)

	_, err := f.menu.SetAvailability(ctx, f.company.ID, f.pudim, false)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.company.ID, "s", deliveryInput(enums.PaymentMethodCash))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestDeliveryFlowWithCourier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "s", nil)

	order, err := f.svc.Submit(ctx, f.company.ID, "s", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusDelivered})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "preparing cannot jump to delivered")

	updated, err := f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusReadyForDelivery})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReadyForDelivery, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusOutForDelivery})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "no courier assigned yet")

	updated, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{
		Status: enums.OrderStatusOutForDelivery, CourierID: strPtr(" moto-1 "),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CourierID)
	assert.Equal(t, "moto-1", *updated.CourierID)

	assigned, err := f.svc.ListForCourier(ctx, f.company.ID, "moto-1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, order.ID, assigned[0].ID)

	_, err = f.svc.UpdateCourierStatus(ctx, f.company.ID, "moto-2", order.ID, enums.OrderStatusDelivered)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "other drivers cannot see the order")
	_, err = f.svc.UpdateCourierStatus(ctx, f.company.ID, "moto-1", order.ID, enums.OrderStatusCanceled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	delivered, err := f.svc.UpdateCourierStatus(ctx, f.company.ID, "moto-1", order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, enums.PaymentStatusConfirmed, delivered.PaymentStatus, "cash is collected at the door")
	assert.NotNil(t, delivered.DeliveredAt)
	assert.NotNil(t, delivered.PaidAt)

	assigned, err = f.svc.ListForCourier(ctx, f.company.ID, "moto-1")
	require.NoError(t, err)
	assert.Empty(t, assigned)

	assert.ElementsMatch(t, []string{
		EventOrderCreated,
		EventOrderStatusChanged,
		EventOrderStatusChanged,
		EventOrderStatusChanged,
	}, f.outboxTypes(t))
}

func TestCourierOnlyForDeliveryOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "s", nil)

	order, err := f.svc.Submit(ctx, f.company.ID, "s", SubmitInput{
		Type: enums.OrderTypeDineIn, PaymentMethod: enums.PaymentMethodCash, CustomerName: "x", TableNumber: strPtr("12"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{
		Status: enums.OrderStatusReadyForDelivery, CourierID: strPtr("moto-1"),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusReadyForDelivery})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusOutForDelivery})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	served, err := f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, served.Status)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fillCart(t, "approved", nil)
	approved, err := f.svc.Submit(ctx, f.company.ID, "approved", deliveryInput(enums.PaymentMethodPIX))
	require.NoError(t, err)
	f.fillCart(t, "refused", nil)
	refused, err := f.svc.Submit(ctx, f.company.ID, "refused", deliveryInput(enums.PaymentMethodPIX))
	require.NoError(t, err)
	assert.Equal(t, 3, f.pudimStock(t))

	got, err := f.svc.ConfirmPayment(ctx, f.company.ID, approved.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, got.Status)
	assert.Equal(t, enums.PaymentStatusConfirmed, got.PaymentStatus)
	assert.NotNil(t, got.PaidAt)

	_, err = f.svc.ConfirmPayment(ctx, f.company.ID, approved.ID, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "already confirmed")

	got, err = f.svc.ConfirmPayment(ctx, f.company.ID, refused.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaymentRefused, got.Status)
	assert.Equal(t, enums.PaymentStatusRefused, got.PaymentStatus)
	assert.Nil(t, got.PaidAt)
	assert.Equal(t, 4, f.pudimStock(t), "refused orders give their stock back")

	_, err = f.svc.ConfirmPayment(ctx, f.company.ID, uuid.New(), true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "s", nil)

	order, err := f.svc.Submit(ctx, f.company.ID, "s", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)
	assert.Equal(t, 4, f.pudimStock(t))

	canceled, err := f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusCanceled})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCanceled, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, 5, f.pudimStock(t))

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: enums.OrderStatusPreparing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "canceled is terminal")

	_, err = f.svc.UpdateStatus(ctx, f.company.ID, order.ID, UpdateStatusInput{Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var numbers []int64
	for _, session := range []string{"a", "b", "c"} {
		f.fillCart(t, session, nil)
		order, err := f.svc.Submit(ctx, f.company.ID, session, SubmitInput{
			Type: enums.OrderTypePickup, PaymentMethod: enums.PaymentMethodPIX, CustomerName: "x",
		})
		require.NoError(t, err)
		numbers = append(numbers, order.Number)
	}

	first, err := f.svc.List(ctx, f.company.ID, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.EqualValues(t, numbers[2], first.Items[0].Number)
	assert.EqualValues(t, numbers[1], first.Items[1].Number)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(ctx, f.company.ID, ListInput{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.EqualValues(t, numbers[0], second.Items[0].Number)
	assert.Empty(t, second.NextCursor)

	_, err = f.svc.ConfirmPayment(ctx, f.company.ID, second.Items[0].ID, true)
	require.NoError(t, err)
	preparing := enums.OrderStatusPreparing
	filtered, err := f.svc.List(ctx, f.company.ID, ListInput{Status: &preparing})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.EqualValues(t, numbers[0], filtered.Items[0].Number)

	_, err = f.svc.List(ctx, f.company.ID, ListInput{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	other, err := f.svc.List(ctx, uuid.New(), ListInput{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestExpireUnconfirmedCancelsStalePixOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fillCart(t, "stale", nil)
	stale, err := f.svc.Submit(ctx, f.company.ID, "stale", deliveryInput(enums.PaymentMethodPIX))
	require.NoError(t, err)

	f.fillCart(t, "cash", nil)
	cash, err := f.svc.Submit(ctx, f.company.ID, "cash", deliveryInput(enums.PaymentMethodCash))
	require.NoError(t, err)

	f.clock = f.clock.Add(3 * time.Hour)
	f.fillCart(t, "fresh", nil)
	fresh, err := f.svc.Submit(ctx, f.company.ID, "fresh", deliveryInput(enums.PaymentMethodPIX))
	require.NoError(t, err)
	assert.Equal(t, 2, f.pudimStock(t))

	expired, err := f.svc.ExpireUnconfirmed(ctx, f.clock.Add(-time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := f.svc.Get(ctx, f.company.ID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCanceled, got.Status)
	assert.Equal(t, 3, f.pudimStock(t), "stock comes back with the cancellation")

	got, err = f.svc.Get(ctx, f.company.ID, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, got.Status)

	got, err = f.svc.Get(ctx, f.company.ID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAwaitingConfirmation, got.Status)

	expired, err = f.svc.ExpireUnconfirmed(ctx, f.clock.Add(-time.Hour), 0)
	require.NoError(t, err)
	assert.Zero(t, expired)
}
