package checkout_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
)

func validForm() checkout.ShippingForm {
	return checkout.ShippingForm{
		Details: model.ShippingDetails{
			Name:    "Ada Obi",
			Email:   "ada@example.com",
			Phone:   "08030000000",
			Address: "12 Marina Road",
			City:    "Lagos",
		},
		TermsAccepted: true,
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m := checkout.NewMachine()
	assert.Equal(t, checkout.StateCollectingAddress, m.State())

	require.NoError(t, m.Submit(validForm()))
	assert.Equal(t, checkout.StateValidating, m.State())

	require.NoError(t, m.Fire(checkout.EventValidated))
	assert.Equal(t, checkout.StateAwaitingPayment, m.State())

	require.NoError(t, m.Fire(checkout.EventPaymentSucceeded))
	assert.Equal(t, checkout.StatePlacingOrder, m.State())

	require.NoError(t, m.Fire(checkout.EventOrderPlaced))
	assert.Equal(t, checkout.StateDone, m.State())
}

// 必須項目が欠けたら状態は変わらない
func TestMachine_SubmitMissingFieldsStays(t *testing.T) {
	m := checkout.NewMachine()
	f := validForm()
	f.Details.City = "  "
	f.TermsAccepted = false

	err := m.Submit(f)

	var verr *checkout.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"city", "terms"}, verr.Missing)
	assert.Equal(t, checkout.StateCollectingAddress, m.State())
}

func TestMachine_ValidationFailedReturnsToAddress(t *testing.T) {
	m := checkout.NewMachine()
	require.NoError(t, m.Submit(validForm()))

	require.NoError(t, m.Fire(checkout.EventValidationFailed))
	assert.Equal(t, checkout.StateCollectingAddress, m.State())
}

func TestMachine_CancelThenReset(t *testing.T) {
	m := checkout.Resume(checkout.StateAwaitingPayment)

	require.NoError(t, m.Fire(checkout.EventPaymentCancelled))
	assert.Equal(t, checkout.StateCancelled, m.State())

	require.NoError(t, m.Fire(checkout.EventReset))
	assert.Equal(t, checkout.StateCollectingAddress, m.State())
}

func TestMachine_OrderFailed(t *testing.T) {
	m := checkout.Resume(checkout.StatePlacingOrder)
	require.NoError(t, m.Fire(checkout.EventOrderFailed))
	assert.Equal(t, checkout.StateOrderFailed, m.State())

	// 失敗からは戻れない
	assert.ErrorIs(t, m.Fire(checkout.EventReset), checkout.ErrInvalidTransition)
}

func TestNext_RejectsUnknownTransitions(t *testing.T) {
	cases := []struct {
		from checkout.State
		ev   checkout.Event
	}{
		{checkout.StateCollectingAddress, checkout.EventPaymentSucceeded},
		{checkout.StateAwaitingPayment, checkout.EventOrderPlaced},
		{checkout.StateDone, checkout.EventPaymentSucceeded},
		{checkout.StateValidating, checkout.EventSubmit},
	}
	for _, tc := range cases {
		to, err := checkout.Next(tc.from, tc.ev)
		assert.ErrorIs(t, err, checkout.ErrInvalidTransition, "%s --%s-->", tc.from, tc.ev)
		assert.Equal(t, tc.from, to)
	}
}

func TestMachine_SubmitOnlyFromCollectingAddress(t *testing.T) {
	m := checkout.Resume(checkout.StateAwaitingPayment)
	assert.ErrorIs(t, m.Submit(validForm()), checkout.ErrInvalidTransition)
}
