package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saborhub/saborhub-backend/pkg/enums"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, Display(got))
}

func acaiProduct(t *testing.T) Product {
	t.Helper()
	return Product{
		ID:        "1",
		Name:      "Açaí",
		BasePrice: dec(t, "15.90"),
		Category:  "bowls",
		Available: true,
		Sections: []Section{
			{
				Title:    "Tamanho",
				Mode:     enums.SectionModeSingle,
				Required: true,
				Options: []Option{
					{Name: "300ml", PriceDelta: decimal.Zero},
					{Name: "500ml", PriceDelta: dec(t, "4.00")},
				},
			},
			{
				Title: "Complementos",
				Mode:  enums.SectionModeMultiple,
				Max:   3,
				Options: []Option{
					{Name: "Banana", PriceDelta: dec(t, "2.00")},
					{Name: "Morango", PriceDelta: dec(t, "3.00")},
					{Name: "Granola", PriceDelta: dec(t, "1.50")},
					{Name: "Leite em pó", PriceDelta: dec(t, "1.00")},
				},
			},
		},
	}
}

func plainProduct(t *testing.T, id, price string) Product {
	t.Helper()
	return Product{ID: id, Name: "item " + id, BasePrice: dec(t, price), Available: true}
}

func TestCustomizedLinePricing(t *testing.T) {
	product := acaiProduct(t)
	res, err := Resolve(product, SelectionInput{
		"Tamanho":      {"500ml"},
		"Complementos": {"Banana", "Morango"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	cart, err := AddToCart(Cart{}, product, 2, res.Customizations)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	line := cart.Lines[0]
	assertMoney(t, "24.90", LinePrice(line))
	assertMoney(t, "49.80", LineTotal(line))
}

func TestEmptyCartTotals(t *testing.T) {
	assertMoney(t, "0.00", Subtotal(Cart{}))
	assertMoney(t, "0.00", GrandTotal(Cart{}, nil))
}

func TestSubtotalAndGrandTotalWithDelivery(t *testing.T) {
	cart, err := AddToCart(Cart{}, plainProduct(t, "a", "10.00"), 3, nil)
	require.NoError(t, err)
	cart, err = AddToCart(cart, plainProduct(t, "b", "5.50"), 1, nil)
	require.NoError(t, err)

	delivery := &DeliveryInfo{Fee: dec(t, "5.00"), CourierID: "courier-1", CustomerName: "Ana"}
	assertMoney(t, "35.50", Subtotal(cart))
	assertMoney(t, "40.50", GrandTotal(cart, delivery))
}

func TestAddToCartMergesIdenticalSelections(t *testing.T) {
	product := acaiProduct(t)
	first, err := Resolve(product, SelectionInput{"Tamanho": {"300ml"}, "Complementos": {"Banana", "Granola"}})
	require.NoError(t, err)
	// same choices, ticked in a different order
	second, err := Resolve(product, SelectionInput{"Complementos": {"Granola", "Banana"}, "Tamanho": {"300ml"}})
	require.NoError(t, err)

	cart, err := AddToCart(Cart{}, product, 1, first.Customizations)
	require.NoError(t, err)
	cart, err = AddToCart(cart, product, 1, second.Customizations)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	other, err := Resolve(product, SelectionInput{"Tamanho": {"500ml"}})
	require.NoError(t, err)
	cart, err = AddToCart(cart, product, 1, other.Customizations)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	product := plainProduct(t, "a", "1.00")
	for _, qty := range []int{0, -1} {
		cart, err := AddToCart(Cart{}, product, qty, nil)
		require.ErrorIs(t, err, ErrInvalidQuantity)
		assert.True(t, cart.IsEmpty())
	}
}

func TestAddToCartRefusesQuantityOverflow(t *testing.T) {
	product := plainProduct(t, "a", "8.00")
	cart, err := AddToCart(Cart{}, product, 1, nil)
	require.NoError(t, err)

	next, err := AddToCart(cart, product, math.MaxInt, nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Len(t, next.Lines, 1)
	assert.Equal(t, 1, next.Lines[0].Quantity)
	assertMoney(t, "8.00", Subtotal(next))

	// the largest merge that still fits is accepted
	next, err = AddToCart(cart, product, math.MaxInt-1, nil)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, next.Lines[0].Quantity)
	assert.True(t, Subtotal(next).IsPositive())
}

func TestAddToCartSnapshotsProduct(t *testing.T) {
	product := plainProduct(t, "a", "8.00")
	cart, err := AddToCart(Cart{}, product, 1, nil)
	require.NoError(t, err)

	product.BasePrice = dec(t, "99.00")
	product.Name = "renamed"
	assertMoney(t, "8.00", cart.Lines[0].BasePrice)
	assert.Equal(t, "item a", cart.Lines[0].ProductName)

	// merging keeps the original snapshot
	cart, err = AddToCart(cart, product, 1, nil)
	require.NoError(t, err)
	assertMoney(t, "16.00", Subtotal(cart))
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	product := plainProduct(t, "a", "2.00")
	base, err := AddToCart(Cart{}, product, 2, nil)
	require.NoError(t, err)
	key := base.Lines[0].Key

	_, err = AddToCart(base, product, 5, nil)
	require.NoError(t, err)
	_, err = DecrementLine(base, key)
	require.NoError(t, err)
	_, err = RemoveLine(base, key)
	require.NoError(t, err)

	require.Len(t, base.Lines, 1)
	assert.Equal(t, 2, base.Lines[0].Quantity)
}

func TestDecrementLine(t *testing.T) {
	cart, err := AddToCart(Cart{}, plainProduct(t, "a", "3.00"), 2, nil)
	require.NoError(t, err)
	key := cart.Lines[0].Key

	cart, err = DecrementLine(cart, key)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	cart, err = DecrementLine(cart, key)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "a line at quantity one is removed, never left at zero")

	_, err = DecrementLine(cart, key)
	require.ErrorIs(t, err, ErrUnknownLine)
}

func TestRemoveLine(t *testing.T) {
	cart, err := AddToCart(Cart{}, plainProduct(t, "a", "3.00"), 7, nil)
	require.NoError(t, err)
	cart, err = AddToCart(cart, plainProduct(t, "b", "1.00"), 1, nil)
	require.NoError(t, err)

	next, err := RemoveLine(cart, cart.Lines[0].Key)
	require.NoError(t, err)
	require.Len(t, next.Lines, 1)
	assert.Equal(t, "b", next.Lines[0].ProductID)

	unchanged, err := RemoveLine(next, "missing")
	require.ErrorIs(t, err, ErrUnknownLine)
	assert.Equal(t, next, unchanged)
}

func TestSubtotalIsOrderIndependent(t *testing.T) {
	cart := Cart{}
	var err error
	for _, p := range []struct {
		id, price string
		qty       int
	}{
		{"a", "0.10", 3}, {"b", "0.20", 7}, {"c", "19.99", 2}, {"d", "1.01", 11},
	} {
		cart, err = AddToCart(cart, plainProduct(t, p.id, p.price), p.qty, nil)
		require.NoError(t, err)
	}

	sum := decimal.Zero
	for _, line := range cart.Lines {
		sum = sum.Add(LineTotal(line))
	}
	assert.True(t, sum.Equal(Subtotal(cart)))

	reversed := Cart{Lines: make([]Line, len(cart.Lines))}
	for i, line := range cart.Lines {
		reversed.Lines[len(cart.Lines)-1-i] = line
	}
	assert.True(t, Subtotal(cart).Equal(Subtotal(reversed)))
	// decimal arithmetic keeps 0.1 * 3 exact
	assertMoney(t, "52.79", Subtotal(cart))
}

func TestDeliveryFeePassThrough(t *testing.T) {
	cart, err := AddToCart(Cart{}, plainProduct(t, "a", "12.34"), 2, nil)
	require.NoError(t, err)

	for _, fee := range []string{"0", "0.01", "5.00", "123.45"} {
		delivery := &DeliveryInfo{Fee: dec(t, fee)}
		diff := GrandTotal(cart, delivery).Sub(Subtotal(cart))
		assert.Truef(t, diff.Equal(delivery.Fee), "fee %s", fee)
	}
}

func TestLinePriceIsReferentiallyTransparent(t *testing.T) {
	product := acaiProduct(t)
	res, err := Resolve(product, SelectionInput{"Tamanho": {"500ml"}, "Complementos": {"Banana", "Morango", "Granola"}})
	require.NoError(t, err)
	cart, err := AddToCart(Cart{}, product, 1, res.Customizations)
	require.NoError(t, err)

	first := LinePrice(cart.Lines[0])
	second := LinePrice(cart.Lines[0])
	assert.True(t, first.Equal(second))
	assertMoney(t, "26.40", first)
}

func TestNegativeDeltaIsAcceptedAndFlagged(t *testing.T) {
	product := Product{
		ID:        "combo",
		Name:      "Combo",
		BasePrice: dec(t, "20.00"),
		Available: true,
		Sections: []Section{{
			Title: "Desconto",
			Mode:  enums.SectionModeSingle,
			Options: []Option{
				{Name: "Sem bebida", PriceDelta: dec(t, "-4.50")},
			},
		}},
	}

	res, err := Resolve(product, SelectionInput{"Desconto": {"Sem bebida"}})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningNegativePriceDelta, res.Warnings[0].Code)
	assert.Equal(t, "Sem bebida", res.Warnings[0].Option)

	cart, err := AddToCart(Cart{}, product, 1, res.Customizations)
	require.NoError(t, err)
	assertMoney(t, "15.50", LinePrice(cart.Lines[0]))

	summary := Summarize(cart, nil)
	require.Len(t, summary.Warnings, 1)
	assert.Equal(t, cart.Lines[0].Key, summary.Warnings[0].LineKey)
}

func TestSummarize(t *testing.T) {
	product := acaiProduct(t)
	res, err := Resolve(product, SelectionInput{"Tamanho": {"500ml"}, "Complementos": {"Banana", "Morango"}})
	require.NoError(t, err)
	cart, err := AddToCart(Cart{}, product, 2, res.Customizations)
	require.NoError(t, err)
	cart, err = AddToCart(cart, plainProduct(t, "x", "5.50"), 1, nil)
	require.NoError(t, err)

	summary := Summarize(cart, &DeliveryInfo{Fee: dec(t, "5.00"), CourierID: "c", CustomerName: "n"})
	require.Len(t, summary.Lines, 2)
	assertMoney(t, "24.90", summary.Lines[0].UnitPrice)
	assertMoney(t, "49.80", summary.Lines[0].LineTotal)
	assert.Equal(t, 3, summary.ItemCount)
	assertMoney(t, "55.30", summary.Subtotal)
	assertMoney(t, "5.00", summary.DeliveryFee)
	assertMoney(t, "60.30", summary.GrandTotal)
	assert.Empty(t, summary.Warnings)

	empty := Summarize(Cart{}, nil)
	assertMoney(t, "0.00", empty.GrandTotal)
	assertMoney(t, "0.00", empty.DeliveryFee)
}

func TestDeliveryInfoValidate(t *testing.T) {
	ok := DeliveryInfo{Fee: dec(t, "5"), CourierID: "c1", CustomerName: "Ana"}
	require.NoError(t, ok.Validate())

	bad := DeliveryInfo{Fee: dec(t, "-1")}
	err := bad.Validate()
	require.ErrorIs(t, err, ErrInvalidDelivery)
	assert.Contains(t, err.Error(), "fee")
	assert.Contains(t, err.Error(), "courier_id")
	assert.Contains(t, err.Error(), "customer_name")
}

func TestCartJSONRoundTripKeepsPrices(t *testing.T) {
	product := acaiProduct(t)
	res, err := Resolve(product, SelectionInput{"Tamanho": {"500ml"}, "Complementos": {"Morango"}})
	require.NoError(t, err)
	cart, err := AddToCart(Cart{}, product, 3, res.Customizations)
	require.NoError(t, err)

	raw, err := json.Marshal(cart)
	require.NoError(t, err)
	var decoded Cart
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Len(t, decoded.Lines, 1)
	assert.Equal(t, cart.Lines[0].Key, decoded.Lines[0].Key)
	assert.Equal(t, enums.SectionModeSingle, decoded.Lines[0].Customizations["Tamanho"].Mode())
	assert.True(t, Subtotal(cart).Equal(Subtotal(decoded)))
	assert.Equal(t, cart.Lines[0].Key, LineKey(decoded.Lines[0].ProductID, decoded.Lines[0].Customizations))
}

func TestSelectionUnmarshalRejectsMismatchedShape(t *testing.T) {
	var sel Selection
	err := json.Unmarshal([]byte(`{"mode":"single","options":[{"name":"a","price_delta":"1"}]}`), &sel)
	require.True(t, errors.Is(err, ErrInvalidSelection))

	err = json.Unmarshal([]byte(`{"mode":"radio"}`), &sel)
	require.ErrorIs(t, err, ErrInvalidSelection)
}
