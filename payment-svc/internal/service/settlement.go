package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/metrics"

	"go.uber.org/zap"
)

const notificationTypePayment = "payment"

// Notification is one inbound provider callback as received over HTTP.
type Notification struct {
	Headers      http.Header
	Body         []byte
	Query        url.Values
	RestaurantID string
	BranchID     *string
}

type Outcome struct {
	Result      string             `json:"result"`
	OrderID     int64              `json:"order_id,omitempty"`
	PaymentID   string             `json:"payment_id,omitempty"`
	OrderStatus domain.OrderStatus `json:"order_status,omitempty"`
	Stock       *StockEffects      `json:"-"`
}

type notificationBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// SettlementService applies provider payment notifications to orders and, on
// first approval, to inventory.
type SettlementService struct {
	lookup        ConfigResolver
	provider      PaymentProvider
	orders        OrderRepository
	inventory     *InventoryCascade
	tx            Transactor
	guard         WebhookGuard
	publisher     EventPublisher
	fallbackToken string
	logger        *zap.Logger
	now           func() time.Time
}

func NewSettlementService(
	lookup ConfigResolver,
	provider PaymentProvider,
	orders OrderRepository,
	inventory *InventoryCascade,
	tx Transactor,
	guard WebhookGuard,
	publisher EventPublisher,
	fallbackToken string,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		lookup:        lookup,
		provider:      provider,
		orders:        orders,
		inventory:     inventory,
		tx:            tx,
		guard:         guard,
		publisher:     publisher,
		fallbackToken: fallbackToken,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *SettlementService) Handle(ctx context.Context, n Notification) (*Outcome, error) {
	eventType, paymentID := parseNotification(n.Body, n.Query)
	if eventType != notificationTypePayment {
		s.logger.Debug("ignoring non-payment notification", zap.String("type", eventType))
		metrics.WebhooksTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return &Outcome{Result: metrics.OutcomeIgnored}, nil
	}
	if paymentID == "" {
		s.logger.Warn("payment notification without payment id", zap.String("restaurant_id", n.RestaurantID))
		metrics.WebhooksTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return &Outcome{Result: metrics.OutcomeIgnored}, nil
	}

	logger := s.logger.With(
		zap.String("payment_id", paymentID),
		zap.String("restaurant_id", n.RestaurantID))
	if n.BranchID != nil {
		logger = logger.With(zap.String("branch_id", *n.BranchID))
	}

	outcome, err := s.settle(ctx, logger, n, paymentID)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnauthorized {
			metrics.WebhooksTotal.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
		} else {
			metrics.WebhooksTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			logger.Error("payment notification failed", zap.Error(err))
		}
		return nil, err
	}
	metrics.WebhooksTotal.WithLabelValues(outcome.Result).Inc()
	return outcome, nil
}

func (s *SettlementService) settle(ctx context.Context, logger *zap.Logger, n Notification, paymentID string) (*Outcome, error) {
	resolved, err := s.lookup.GetEffectiveConfig(ctx, n.RestaurantID, n.BranchID, domain.ProviderMercadoPago)
	if err != nil {
		return nil, err
	}

	if resolved.Found() && resolved.Config.WebhookSecret != "" {
		err := VerifySignature(resolved.Config.WebhookSecret,
			n.Headers.Get(HeaderSignature), n.Headers.Get(HeaderRequestID), paymentID)
		if err != nil {
			metrics.SignatureFailures.Inc()
			logger.Warn("webhook signature rejected")
			return nil, err
		}
	} else {
		logger.Warn("no webhook secret configured, accepting notification without signature check")
	}

	release, busy := s.acquire(ctx, logger, paymentID)
	if busy {
		return &Outcome{Result: metrics.OutcomeInFlight, PaymentID: paymentID}, nil
	}
	defer release()

	accessToken := s.fallbackToken
	if resolved.Found() {
		accessToken = resolved.Config.AccessToken
	}
	if accessToken == "" {
		return nil, domain.NewError(domain.KindInternal, "no access token available to query the payment")
	}

	payment, err := s.provider.GetPayment(ctx, accessToken, paymentID)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("get_payment").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}

	orderID, err := strconv.ParseInt(strings.TrimSpace(payment.ExternalReference), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: external reference %q", domain.ErrOrderNotFound, payment.ExternalReference)
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, orderID)
	}
	if n.RestaurantID != "" && order.RestaurantID != n.RestaurantID {
		return nil, fmt.Errorf("%w: order %d belongs to another restaurant", domain.ErrOrderNotFound, orderID)
	}

	if order.Status == domain.StatusPaymentApproved && order.PaymentID == paymentID {
		logger.Info("payment already settled", zap.Int64("order_id", order.ID))
		return &Outcome{Result: metrics.OutcomeDuplicate, OrderID: order.ID, PaymentID: paymentID, OrderStatus: order.Status}, nil
	}

	previous := order.Status
	next := domain.SettledStatus(previous, payment.Status)
	update := domain.PaymentUpdate{
		Status:              next,
		PaymentID:           paymentID,
		PaymentStatus:       payment.Status,
		PaymentStatusDetail: payment.StatusDetail,
	}
	firstApproval := next == domain.StatusPaymentApproved && previous != domain.StatusPaymentApproved
	if firstApproval {
		approvedAt := s.now().UTC()
		if payment.DateApproved != nil {
			approvedAt = payment.DateApproved.UTC()
		}
		update.ApprovedAt = &approvedAt
	}
	if mapped := domain.MapProviderStatus(payment.Status); mapped != next {
		logger.Warn("provider status does not apply to the order's status, status kept",
			zap.Int64("order_id", order.ID),
			zap.String("status", string(previous)),
			zap.String("provider_status", payment.Status))
	}

	// The status write and the stock cascade commit or roll back together.
	var effects *StockEffects
	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.UpdatePayment(ctx, order.ID, update); err != nil {
			return fmt.Errorf("update order payment: %w", err)
		}
		if !firstApproval {
			return nil
		}
		applied, err := s.inventory.Apply(ctx, order)
		if err != nil {
			return fmt.Errorf("apply inventory: %w", err)
		}
		effects = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("order payment updated",
		zap.Int64("order_id", order.ID),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(next)),
		zap.String("provider_status", payment.Status))

	outcome := &Outcome{Result: metrics.OutcomeProcessed, OrderID: order.ID, PaymentID: paymentID, OrderStatus: next}
	if !firstApproval {
		return outcome, nil
	}
	outcome.Stock = effects

	s.publish(ctx, logger, domain.PaymentEvent{
		Type:         domain.EventPaymentApproved,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		BranchID:     order.BranchID,
		PaymentID:    paymentID,
		Status:       next,
		Timestamp:    s.now().UTC(),
	})
	if len(effects.DisabledProducts) > 0 {
		s.publish(ctx, logger, domain.PaymentEvent{
			Type:         domain.EventMenuProductsDisabled,
			OrderID:      order.ID,
			RestaurantID: order.RestaurantID,
			BranchID:     order.BranchID,
			ProductIDs:   effects.DisabledProducts,
			Timestamp:    s.now().UTC(),
		})
	}
	return outcome, nil
}

func (s *SettlementService) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTx(ctx, fn)
}

// acquire takes the advisory in-flight marker for a payment. busy is true when
// another delivery of the same payment holds it. A failing guard never blocks
// settlement.
func (s *SettlementService) acquire(ctx context.Context, logger *zap.Logger, paymentID string) (release func(), busy bool) {
	noop := func() {}
	if s.guard == nil {
		return noop, false
	}
	ok, err := s.guard.Acquire(ctx, paymentID)
	if err != nil {
		logger.Warn("webhook guard unavailable, continuing without it", zap.Error(err))
		return noop, false
	}
	if !ok {
		logger.Info("payment notification already in flight")
		return noop, true
	}
	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), paymentID); err != nil {
			logger.Warn("release webhook guard failed", zap.Error(err))
		}
	}, false
}

func (s *SettlementService) publish(ctx context.Context, logger *zap.Logger, event domain.PaymentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		logger.Warn("publish payment event failed", zap.String("event", event.Type), zap.Error(err))
	}
}

// parseNotification extracts the event type and payment id. The body wins;
// the query string (type/topic, data.id/id) fills whatever it lacks.
func parseNotification(body []byte, query url.Values) (eventType, paymentID string) {
	var payload notificationBody
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			eventType = payload.Type
			paymentID = rawID(payload.Data.ID)
		}
	}
	if eventType == "" {
		eventType = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	if paymentID == "" {
		paymentID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	}
	return eventType, strings.TrimSpace(paymentID)
}

// rawID accepts the id as either a JSON string or a JSON number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
