package service

import (
	"context"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/mercadopago"

	"github.com/shopspring/decimal"
)

// Repositories return (nil, nil) for single-row lookups that find nothing.

type BranchRepository interface {
	GetBranch(ctx context.Context, branchID string) (*domain.Branch, error)
	GetDelegateSource(ctx context.Context, branchID string) (*string, error)
	ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error)
	SetDelegateSource(ctx context.Context, branchID string, sourceBranchID *string) error
}

type PaymentConfigRepository interface {
	FindEnabledConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error)
	FindConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error)
	ListEnabledBranchIDs(ctx context.Context, restaurantID, provider string) ([]string, error)
	UpsertConfig(ctx context.Context, cfg *domain.PaymentConfig) error
}

type TableRepository interface {
	GetTableByExternalID(ctx context.Context, externalID string) (*domain.Table, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	SetPreference(ctx context.Context, orderID int64, preferenceID, initPoint, paymentStatus string) error
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	UpdatePayment(ctx context.Context, orderID int64, update domain.PaymentUpdate) error
	TransitionStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error)
}

type InventoryRepository interface {
	ListRecipeLines(ctx context.Context, productIDs []int64) ([]domain.RecipeLine, error)
	GetIngredients(ctx context.Context, ingredientIDs []int64) ([]domain.Ingredient, error)
	UpdateIngredientStock(ctx context.Context, ingredientID int64, stock decimal.Decimal) error
	ListProductsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error)
	DisableProducts(ctx context.Context, productIDs []int64) error
}

// Transactor runs fn atomically: repository calls made with the ctx passed to
// fn commit together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type PaymentProvider interface {
	CreatePreference(ctx context.Context, accessToken string, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, accessToken, paymentID string) (*mercadopago.Payment, error)
}

type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error
}

type WebhookGuard interface {
	Acquire(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string) error
}

type BranchResolver interface {
	ResolveEffectiveBranch(ctx context.Context, branchID string) (string, error)
	ValidateDelegationEdge(ctx context.Context, ownerBranchID, targetBranchID string) error
}

type ConfigResolver interface {
	GetEffectiveConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.ResolvedConfig, error)
}

type ConfigAdminServiceInterface interface {
	Read(ctx context.Context, op domain.Operator, req ReadConfigRequest) (*ConfigView, error)
	Write(ctx context.Context, op domain.Operator, req WriteConfigRequest) (*WriteConfigResult, error)
}

type CheckoutServiceInterface interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	GetOrderStatus(ctx context.Context, orderID int64, orderToken string) (*OrderStatusView, error)
	RejectOrder(ctx context.Context, op domain.Operator, orderID int64) error
}

type SettlementServiceInterface interface {
	Handle(ctx context.Context, n Notification) (*Outcome, error)
}

var (
	_ BranchResolver              = (*DelegationResolver)(nil)
	_ ConfigResolver              = (*ConfigLookup)(nil)
	_ ConfigAdminServiceInterface = (*ConfigAdminService)(nil)
	_ CheckoutServiceInterface    = (*CheckoutService)(nil)
	_ SettlementServiceInterface  = (*SettlementService)(nil)
)
