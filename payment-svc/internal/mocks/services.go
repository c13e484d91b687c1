package mocks

import (
	"context"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/mercadopago"
	"overcooked-payments/payment-svc/internal/service"

	"github.com/stretchr/testify/mock"
)

type PaymentProvider struct {
	mock.Mock
}

func (_m *PaymentProvider) CreatePreference(ctx context.Context, accessToken string, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	ret := _m.Called(ctx, accessToken, req)
	var r0 *mercadopago.Preference
	if v := ret.Get(0); v != nil {
		r0 = v.(*mercadopago.Preference)
	}
	return r0, ret.Error(1)
}

func (_m *PaymentProvider) GetPayment(ctx context.Context, accessToken, paymentID string) (*mercadopago.Payment, error) {
	ret := _m.Called(ctx, accessToken, paymentID)
	var r0 *mercadopago.Payment
	if v := ret.Get(0); v != nil {
		r0 = v.(*mercadopago.Payment)
	}
	return r0, ret.Error(1)
}

func NewPaymentProvider(t testingT) *PaymentProvider {
	m := &PaymentProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type EventPublisher struct {
	mock.Mock
}

func (_m *EventPublisher) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type WebhookGuard struct {
	mock.Mock
}

func (_m *WebhookGuard) Acquire(ctx context.Context, paymentID string) (bool, error) {
	ret := _m.Called(ctx, paymentID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *WebhookGuard) Release(ctx context.Context, paymentID string) error {
	ret := _m.Called(ctx, paymentID)
	return ret.Error(0)
}

func NewWebhookGuard(t testingT) *WebhookGuard {
	m := &WebhookGuard{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type QRGenerator struct {
	mock.Mock
}

func (_m *QRGenerator) Generate(content string) ([]byte, error) {
	ret := _m.Called(content)
	var r0 []byte
	if v := ret.Get(0); v != nil {
		r0 = v.([]byte)
	}
	return r0, ret.Error(1)
}

func NewQRGenerator(t testingT) *QRGenerator {
	m := &QRGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type ConfigAdminServiceInterface struct {
	mock.Mock
}

func (_m *ConfigAdminServiceInterface) Read(ctx context.Context, op domain.Operator, req service.ReadConfigRequest) (*service.ConfigView, error) {
	ret := _m.Called(ctx, op, req)
	var r0 *service.ConfigView
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.ConfigView)
	}
	return r0, ret.Error(1)
}

func (_m *ConfigAdminServiceInterface) Write(ctx context.Context, op domain.Operator, req service.WriteConfigRequest) (*service.WriteConfigResult, error) {
	ret := _m.Called(ctx, op, req)
	var r0 *service.WriteConfigResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.WriteConfigResult)
	}
	return r0, ret.Error(1)
}

func NewConfigAdminServiceInterface(t testingT) *ConfigAdminServiceInterface {
	m := &ConfigAdminServiceInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type CheckoutServiceInterface struct {
	mock.Mock
}

func (_m *CheckoutServiceInterface) Initiate(ctx context.Context, req service.InitiateRequest) (*service.InitiateResult, error) {
	ret := _m.Called(ctx, req)
	var r0 *service.InitiateResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.InitiateResult)
	}
	return r0, ret.Error(1)
}

func (_m *CheckoutServiceInterface) GetOrderStatus(ctx context.Context, orderID int64, orderToken string) (*service.OrderStatusView, error) {
	ret := _m.Called(ctx, orderID, orderToken)
	var r0 *service.OrderStatusView
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.OrderStatusView)
	}
	return r0, ret.Error(1)
}

func (_m *CheckoutServiceInterface) RejectOrder(ctx context.Context, op domain.Operator, orderID int64) error {
	ret := _m.Called(ctx, op, orderID)
	return ret.Error(0)
}

func NewCheckoutServiceInterface(t testingT) *CheckoutServiceInterface {
	m := &CheckoutServiceInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type SettlementServiceInterface struct {
	mock.Mock
}

func (_m *SettlementServiceInterface) Handle(ctx context.Context, n service.Notification) (*service.Outcome, error) {
	ret := _m.Called(ctx, n)
	var r0 *service.Outcome
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.Outcome)
	}
	return r0, ret.Error(1)
}

func NewSettlementServiceInterface(t testingT) *SettlementServiceInterface {
	m := &SettlementServiceInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
