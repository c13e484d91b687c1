package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/mercadopago"
	"overcooked-payments/payment-svc/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	WebhookPath = "/api/payment/webhooks/mercadopago"

	defaultCurrency            = "ARS"
	defaultStatementDescriptor = "CAFE LOCAL"
	preferenceLifetime         = 24 * time.Hour
)

var rejectRoles = []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleDeveloper, domain.RoleCashier}

type CheckoutConfig struct {
	PublicBaseURL       string
	FrontendURL         string
	CurrencyID          string
	StatementDescriptor string
}

type InitiateRequest struct {
	TableExternalID string             `json:"tableExternalId" validate:"required"`
	Items           []domain.OrderItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	Token           string             `json:"token"`
}

type InitiateResult struct {
	OrderID      int64           `json:"order_id"`
	OrderToken   string          `json:"order_token"`
	InitPoint    string          `json:"init_point"`
	PreferenceID string          `json:"preference_id"`
	PublicKey    string          `json:"public_key"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	QRCodePNG    []byte          `json:"init_point_qr,omitempty"`
}

type OrderStatusView struct {
	OrderID           int64              `json:"order_id"`
	Status            domain.OrderStatus `json:"status"`
	PaymentStatus     string             `json:"payment_status,omitempty"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	PaymentApprovedAt *time.Time         `json:"payment_approved_at,omitempty"`
}

// CheckoutService turns a table's cart into a pending order with a provider
// checkout preference paid into the credentials that apply to that table.
type CheckoutService struct {
	tables    TableRepository
	orders    OrderRepository
	lookup    ConfigResolver
	provider  PaymentProvider
	publisher EventPublisher
	qr        QRGenerator
	cfg       CheckoutConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewCheckoutService(
	tables TableRepository,
	orders OrderRepository,
	lookup ConfigResolver,
	provider PaymentProvider,
	publisher EventPublisher,
	qr QRGenerator,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if cfg.CurrencyID == "" {
		cfg.CurrencyID = defaultCurrency
	}
	if cfg.StatementDescriptor == "" {
		cfg.StatementDescriptor = defaultStatementDescriptor
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &CheckoutService{
		tables:    tables,
		orders:    orders,
		lookup:    lookup,
		provider:  provider,
		publisher: publisher,
		qr:        qr,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CheckoutService) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.TotalAmount.IsPositive() {
		return nil, domain.Validation("totalAmount must be greater than zero")
	}

	table, err := s.checkTable(ctx, req.TableExternalID, req.Token)
	if err != nil {
		return nil, err
	}

	resolved, err := s.lookup.GetEffectiveConfig(ctx, table.RestaurantID, table.BranchID, domain.ProviderMercadoPago)
	if err != nil {
		return nil, err
	}
	if !resolved.Found() {
		return nil, domain.ErrPaymentNotConfigured
	}

	order := &domain.Order{
		TableExternalID: table.ExternalID,
		RestaurantID:    table.RestaurantID,
		BranchID:        table.BranchID,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		Status:          domain.StatusPaymentPending,
		Token:           uuid.NewString(),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	pref, err := s.provider.CreatePreference(ctx, resolved.Config.AccessToken, s.preferenceFor(order))
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("create_preference").Inc()
		s.logger.Error("create payment preference failed",
			zap.Int64("order_id", order.ID),
			zap.String("restaurant_id", order.RestaurantID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	if err := s.orders.SetPreference(ctx, order.ID, pref.ID, pref.InitPoint, domain.ProviderStatusPending); err != nil {
		return nil, fmt.Errorf("save preference: %w", err)
	}
	metrics.PreferencesCreated.WithLabelValues(string(resolved.Scope)).Inc()

	result := &InitiateResult{
		OrderID:      order.ID,
		OrderToken:   order.Token,
		InitPoint:    pref.InitPoint,
		PreferenceID: pref.ID,
		PublicKey:    resolved.Config.PublicKey,
		TotalAmount:  order.TotalAmount,
	}
	if s.qr != nil && pref.InitPoint != "" {
		png, err := s.qr.Generate(pref.InitPoint)
		if err != nil {
			s.logger.Warn("checkout qr generation failed", zap.Int64("order_id", order.ID), zap.Error(err))
		} else {
			result.QRCodePNG = png
		}
	}

	s.logger.Info("checkout initiated",
		zap.Int64("order_id", order.ID),
		zap.String("restaurant_id", order.RestaurantID),
		zap.String("config_scope", string(resolved.Scope)),
		zap.String("preference_id", pref.ID))

	return result, nil
}

// checkTable runs the table checks in a fixed order so each failure gets its
// own error.
func (s *CheckoutService) checkTable(ctx context.Context, externalID, token string) (*domain.Table, error) {
	table, err := s.tables.GetTableByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if table == nil {
		return nil, domain.ErrTableNotFound
	}
	if !table.Active {
		return nil, domain.ErrTableInactive
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(table.Token)) != 1 {
		return nil, domain.ErrInvalidTableToken
	}
	if table.TokenExpiresAt != nil && s.now().After(*table.TokenExpiresAt) {
		return nil, domain.ErrTableTokenExpired
	}
	return table, nil
}

func (s *CheckoutService) preferenceFor(order *domain.Order) mercadopago.PreferenceRequest {
	items := make([]mercadopago.Item, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, mercadopago.Item{
			ID:         strconv.FormatInt(it.ProductID, 10),
			Title:      it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			CurrencyID: s.cfg.CurrencyID,
		})
	}

	orderID := strconv.FormatInt(order.ID, 10)
	from := s.now()
	to := from.Add(preferenceLifetime)
	metadata := map[string]string{
		"mesa_id":       order.TableExternalID,
		"order_id":      orderID,
		"restaurant_id": order.RestaurantID,
	}
	if order.BranchID != nil {
		metadata["branch_id"] = *order.BranchID
	}

	return mercadopago.PreferenceRequest{
		Items:             items,
		ExternalReference: orderID,
		NotificationURL:   s.notificationURL(order.RestaurantID, order.BranchID),
		BackURLs: mercadopago.BackURLs{
			Success: s.cfg.FrontendURL + "/payment/success",
			Failure: s.cfg.FrontendURL + "/payment/failure",
			Pending: s.cfg.FrontendURL + "/payment/pending",
		},
		AutoReturn:          "approved",
		Expires:             true,
		ExpirationDateFrom:  &from,
		ExpirationDateTo:    &to,
		StatementDescriptor: s.cfg.StatementDescriptor,
		Metadata:            metadata,
	}
}

// notificationURL always names the table's own restaurant and branch, even
// when the credentials come from another branch, so the webhook resolves the
// same way checkout did.
func (s *CheckoutService) notificationURL(restaurantID string, branchID *string) string {
	u := s.cfg.PublicBaseURL + WebhookPath + "?restaurantId=" + url.QueryEscape(restaurantID)
	if branchID != nil && *branchID != "" {
		u += "&branchId=" + url.QueryEscape(*branchID)
	}
	return u
}

func (s *CheckoutService) GetOrderStatus(ctx context.Context, orderID int64, orderToken string) (*OrderStatusView, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if orderToken == "" || subtle.ConstantTimeCompare([]byte(orderToken), []byte(order.Token)) != 1 {
		return nil, domain.ErrInvalidOrderToken
	}
	return &OrderStatusView{
		OrderID:           order.ID,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		TotalAmount:       order.TotalAmount,
		PaymentApprovedAt: order.PaymentApprovedAt,
	}, nil
}

// RejectOrder lets staff cancel an order that is still waiting for payment.
func (s *CheckoutService) RejectOrder(ctx context.Context, op domain.Operator, orderID int64) error {
	if !op.HasRole(rejectRoles...) {
		return domain.ErrForbidden
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if order.RestaurantID != op.RestaurantID {
		return domain.ErrForbidden
	}
	if order.Status != domain.StatusPaymentPending {
		return domain.ErrInvalidTransition
	}

	ok, err := s.orders.TransitionStatus(ctx, order.ID, domain.StatusPaymentPending, domain.StatusPaymentRejected)
	if err != nil {
		return fmt.Errorf("reject order: %w", err)
	}
	if !ok {
		return domain.ErrInvalidTransition
	}

	s.logger.Info("order rejected by operator",
		zap.Int64("order_id", order.ID),
		zap.String("restaurant_id", order.RestaurantID),
		zap.String("user_id", op.UserID))

	event := domain.PaymentEvent{
		Type:         domain.EventPaymentRejectedByUser,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		BranchID:     order.BranchID,
		Status:       domain.StatusPaymentRejected,
		Timestamp:    s.now().UTC(),
	}
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.Warn("publish rejection event failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return nil
}
