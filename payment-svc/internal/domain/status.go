package domain

type OrderStatus string

const (
	StatusPaymentPending  OrderStatus = "PAYMENT_PENDING"
	StatusPaymentApproved OrderStatus = "PAYMENT_APPROVED"
	StatusPaymentRejected OrderStatus = "PAYMENT_REJECTED"
	StatusInPreparation   OrderStatus = "IN_PREPARATION"
	StatusReady           OrderStatus = "READY"
	StatusDelivered       OrderStatus = "DELIVERED"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPaymentPending:  {StatusPaymentApproved, StatusPaymentRejected},
	StatusPaymentApproved: {StatusInPreparation},
	StatusInPreparation:   {StatusReady},
	StatusReady:           {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal statuses accept no further transition.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaymentRejected || s == StatusDelivered
}

// Provider payment statuses as reported by Mercado Pago.
const (
	ProviderStatusApproved  = "approved"
	ProviderStatusRejected  = "rejected"
	ProviderStatusCancelled = "cancelled"
	ProviderStatusPending   = "pending"
	ProviderStatusInProcess = "in_process"
)

// MapProviderStatus converts a provider payment status into an order status.
// Unknown values map to PAYMENT_PENDING.
func MapProviderStatus(providerStatus string) OrderStatus {
	switch providerStatus {
	case ProviderStatusApproved:
		return StatusPaymentApproved
	case ProviderStatusRejected, ProviderStatusCancelled:
		return StatusPaymentRejected
	default:
		return StatusPaymentPending
	}
}

// SettledStatus is the order status after a provider notification. Terminal
// orders keep their status, and so does any order the provider status cannot
// legally move; the caller still records the provider fields.
func SettledStatus(current OrderStatus, providerStatus string) OrderStatus {
	if current.Terminal() {
		return current
	}
	next := MapProviderStatus(providerStatus)
	if !CanTransition(current, next) {
		return current
	}
	return next
}
