package domain_test

import (
	"testing"

	"overcooked-payments/payment-svc/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestMapProviderStatus(t *testing.T) {
	tests := map[string]domain.OrderStatus{
		"approved":     domain.StatusPaymentApproved,
		"rejected":     domain.StatusPaymentRejected,
		"cancelled":    domain.StatusPaymentRejected,
		"pending":      domain.StatusPaymentPending,
		"in_process":   domain.StatusPaymentPending,
		"charged_back": domain.StatusPaymentPending,
		"":             domain.StatusPaymentPending,
	}

	for providerStatus, expected := range tests {
		assert.Equal(t, expected, domain.MapProviderStatus(providerStatus), providerStatus)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, domain.CanTransition(domain.StatusPaymentPending, domain.StatusPaymentApproved))
	assert.True(t, domain.CanTransition(domain.StatusPaymentPending, domain.StatusPaymentRejected))
	assert.True(t, domain.CanTransition(domain.StatusReady, domain.StatusReady))
	assert.False(t, domain.CanTransition(domain.StatusPaymentApproved, domain.StatusPaymentRejected))
	assert.False(t, domain.CanTransition(domain.StatusDelivered, domain.StatusPaymentPending))
}

func TestSettledStatus(t *testing.T) {
	tests := []struct {
		name           string
		current        domain.OrderStatus
		providerStatus string
		expected       domain.OrderStatus
	}{
		{name: "pending follows approval", current: domain.StatusPaymentPending, providerStatus: "approved", expected: domain.StatusPaymentApproved},
		{name: "pending follows cancellation", current: domain.StatusPaymentPending, providerStatus: "cancelled", expected: domain.StatusPaymentRejected},
		{name: "pending stays pending", current: domain.StatusPaymentPending, providerStatus: "in_process", expected: domain.StatusPaymentPending},
		{name: "rejected is not approved later", current: domain.StatusPaymentRejected, providerStatus: "approved", expected: domain.StatusPaymentRejected},
		{name: "rejected does not reopen", current: domain.StatusPaymentRejected, providerStatus: "pending", expected: domain.StatusPaymentRejected},
		{name: "approved is not rejected", current: domain.StatusPaymentApproved, providerStatus: "rejected", expected: domain.StatusPaymentApproved},
		{name: "approved is not reopened", current: domain.StatusPaymentApproved, providerStatus: "pending", expected: domain.StatusPaymentApproved},
		{name: "kitchen status is kept", current: domain.StatusInPreparation, providerStatus: "rejected", expected: domain.StatusInPreparation},
		{name: "kitchen status is not moved back to approved", current: domain.StatusReady, providerStatus: "approved", expected: domain.StatusReady},
		{name: "delivered is kept", current: domain.StatusDelivered, providerStatus: "approved", expected: domain.StatusDelivered},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, domain.SettledStatus(testCase.current, testCase.providerStatus))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, domain.StatusPaymentRejected.Terminal())
	assert.True(t, domain.StatusDelivered.Terminal())
	assert.False(t, domain.StatusPaymentPending.Terminal())
	assert.False(t, domain.StatusPaymentApproved.Terminal())
}
