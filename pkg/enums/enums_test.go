package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrips(t *testing.T) {
	mode, err := ParseSectionMode("multiple")
	require.NoError(t, err)
	assert.Equal(t, SectionModeMultiple, mode)

	_, err = ParseSectionMode("radio")
	require.Error(t, err)

	role, err := ParseStaffRole("driver")
	require.NoError(t, err)
	assert.Equal(t, StaffRoleDriver, role)

	ot, err := ParseOrderType("dine_in")
	require.NoError(t, err)
	assert.Equal(t, OrderTypeDineIn, ot)
	assert.False(t, OrderType("takeaway").IsValid())
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusAwaitingConfirmation, OrderStatusPreparing, true},
		{OrderStatusAwaitingConfirmation, OrderStatusPaymentRefused, true},
		{OrderStatusAwaitingConfirmation, OrderStatusDelivered, false},
		{OrderStatusPreparing, OrderStatusReadyForDelivery, true},
		{OrderStatusPreparing, OrderStatusCanceled, true},
		{OrderStatusReadyForDelivery, OrderStatusOutForDelivery, true},
		{OrderStatusReadyForDelivery, OrderStatusDelivered, true},
		{OrderStatusOutForDelivery, OrderStatusDelivered, true},
		{OrderStatusOutForDelivery, OrderStatusPreparing, false},
		{OrderStatusDelivered, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusPreparing, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusPaymentRefused.IsTerminal())
	assert.False(t, OrderStatusPreparing.IsTerminal())
}

func TestPaymentMethodRequiresConfirmation(t *testing.T) {
	assert.True(t, PaymentMethodPIX.RequiresConfirmation())
	assert.False(t, PaymentMethodCash.RequiresConfirmation())
	assert.False(t, PaymentMethodCardOnDelivery.RequiresConfirmation())
	assert.False(t, PaymentMethodPaymentLink.RequiresConfirmation())
}
