package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProviderMercadoPago = "mercadopago"

	// MaxDelegationHops is the most delegation pointers a chain may follow
	// before reaching a branch without one: A->B->C->D->E->F resolves, one
	// more pointer is rejected.
	MaxDelegationHops = 5
)

type Restaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Branch struct {
	ID                     string  `json:"id"`
	RestaurantID           string  `json:"restaurant_id"`
	Name                   string  `json:"name"`
	DelegateSourceBranchID *string `json:"mp_config_source_branch_id,omitempty"`
}

type PaymentConfig struct {
	ID            string    `json:"id"`
	RestaurantID  string    `json:"restaurant_id"`
	BranchID      *string   `json:"branch_id,omitempty"`
	Provider      string    `json:"provider"`
	Enabled       bool      `json:"enabled"`
	AccessToken   string    `json:"access_token"`
	PublicKey     string    `json:"public_key"`
	WebhookURL    string    `json:"webhook_url"`
	WebhookSecret string    `json:"webhook_secret"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ConfigScope string

const (
	ScopeBranch     ConfigScope = "branch"
	ScopeRestaurant ConfigScope = "restaurant"
	ScopeNone       ConfigScope = "none"
)

// ResolvedConfig is the outcome of a config lookup. Config is nil when Scope
// is ScopeNone.
type ResolvedConfig struct {
	Config            *PaymentConfig
	Scope             ConfigScope
	EffectiveBranchID *string
}

func (r *ResolvedConfig) Found() bool {
	return r != nil && r.Config != nil
}

// Table is a physical table ("mesa") whose QR token authorizes checkout.
type Table struct {
	ID             string     `json:"id"`
	ExternalID     string     `json:"mesa_id"`
	RestaurantID   string     `json:"restaurant_id"`
	BranchID       *string    `json:"branch_id,omitempty"`
	Token          string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	Active         bool       `json:"is_active"`
}

type OrderItem struct {
	ProductID int64           `json:"id" validate:"required,gt=0"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"price"`
}

type Order struct {
	ID                  int64           `json:"id"`
	TableExternalID     string          `json:"mesa_id"`
	RestaurantID        string          `json:"restaurant_id"`
	BranchID            *string         `json:"branch_id,omitempty"`
	Items               []OrderItem     `json:"items"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Status              OrderStatus     `json:"status"`
	Token               string          `json:"-"`
	PaymentPreferenceID string          `json:"payment_preference_id,omitempty"`
	PaymentInitPoint    string          `json:"payment_init_point,omitempty"`
	PaymentID           string          `json:"payment_id,omitempty"`
	PaymentStatus       string          `json:"payment_status,omitempty"`
	PaymentStatusDetail string          `json:"payment_status_detail,omitempty"`
	PaymentApprovedAt   *time.Time      `json:"payment_approved_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// PaymentUpdate carries the provider-derived fields written by settlement.
type PaymentUpdate struct {
	Status              OrderStatus
	PaymentID           string
	PaymentStatus       string
	PaymentStatusDetail string
	ApprovedAt          *time.Time
}

type Ingredient struct {
	ID           int64           `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	MinStock     decimal.Decimal `json:"minStock"`
	TrackStock   bool            `json:"trackStock"`
}

type RecipeLine struct {
	ProductID       int64           `json:"product_id"`
	IngredientID    int64           `json:"ingredient_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity"`
}

// PaymentEvent is published after settlement side effects are committed.
type PaymentEvent struct {
	Type         string      `json:"type"`
	OrderID      int64       `json:"order_id"`
	RestaurantID string      `json:"restaurant_id"`
	BranchID     *string     `json:"branch_id,omitempty"`
	PaymentID    string      `json:"payment_id,omitempty"`
	Status       OrderStatus `json:"status,omitempty"`
	ProductIDs   []int64     `json:"product_ids,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

const (
	EventPaymentApproved       = "payment.approved"
	EventMenuProductsDisabled  = "menu.products_disabled"
	EventPaymentRejectedByUser = "payment.rejected_by_operator"
)
