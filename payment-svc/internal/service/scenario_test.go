package service_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/mercadopago"
	"overcooked-payments/payment-svc/internal/mocks"
	"overcooked-payments/payment-svc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestDelegatedBranchCheckoutAndSettlement runs a full order for a table whose
// branch borrows another branch's Mercado Pago account.
func TestDelegatedBranchCheckoutAndSettlement(t *testing.T) {
	store := newMemStore()
	store.addBranch("R", "X", "Palermo", "Y")
	store.addBranch("R", "Y", "Belgrano", "")
	store.addConfig(domain.PaymentConfig{
		RestaurantID:  "R",
		BranchID:      strPtr("Y"),
		Enabled:       true,
		AccessToken:   "AT_Y",
		PublicKey:     "PK_Y",
		WebhookSecret: "SECRET_Y",
	})
	store.addConfig(domain.PaymentConfig{RestaurantID: "R", Enabled: true, AccessToken: "AT_R", PublicKey: "PK_R"})
	store.tables["T"] = &domain.Table{ID: "t-1", ExternalID: "T", RestaurantID: "R", BranchID: strPtr("X"), Token: "tok1", Active: true}
	store.ingredients[1] = &domain.Ingredient{ID: 1, Name: "flour", CurrentStock: dec("10"), MinStock: dec("2"), TrackStock: true}
	store.recipes = []domain.RecipeLine{{ProductID: 42, IngredientID: 1, QuantityPerUnit: dec("3")}}

	provider := mocks.NewPaymentProvider(t)
	publisher := mocks.NewEventPublisher(t)
	lookup := service.NewConfigLookup(service.NewDelegationResolver(store, zap.NewNop()), store)
	checkout := service.NewCheckoutService(store, store, lookup, provider, publisher, nil,
		service.CheckoutConfig{PublicBaseURL: "https://pay.example.com", FrontendURL: "https://menu.example.com"}, zap.NewNop())
	settlement := service.NewSettlementService(lookup, provider, store,
		service.NewInventoryCascade(store, zap.NewNop()), store, nil, publisher, "", zap.NewNop())

	var notificationURL string
	provider.On("CreatePreference", mock.Anything, "AT_Y", mock.Anything).
		Run(func(args mock.Arguments) {
			notificationURL = args.Get(2).(mercadopago.PreferenceRequest).NotificationURL
		}).
		Return(&mercadopago.Preference{ID: "pref-9", InitPoint: "https://mp.example/pref-9"}, nil).Once()

	result, err := checkout.Initiate(context.Background(), service.InitiateRequest{
		TableExternalID: "T",
		Token:           "tok1",
		Items:           []domain.OrderItem{{ProductID: 42, Name: "Pizza", Quantity: 1, UnitPrice: dec("9000")}},
		TotalAmount:     dec("9000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PK_Y", result.PublicKey)
	assert.Contains(t, notificationURL, "restaurantId=R&branchId=X")

	webhookURL, err := url.Parse(notificationURL)
	require.NoError(t, err)
	query := webhookURL.Query()
	branchID := query.Get("branchId")

	const ts = "1714560000"
	headers := http.Header{}
	headers.Set(service.HeaderRequestID, "req-77")
	headers.Set(service.HeaderSignature, "ts="+ts+",v1="+service.SignManifest("SECRET_Y", "777", "req-77", ts))
	notification := service.Notification{
		Headers:      headers,
		Body:         []byte(`{"type":"payment","data":{"id":777}}`),
		Query:        query,
		RestaurantID: query.Get("restaurantId"),
		BranchID:     &branchID,
	}

	approvedAt := time.Now().UTC()
	provider.On("GetPayment", mock.Anything, "AT_Y", "777").Return(&mercadopago.Payment{
		ID:                "777",
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "101",
		DateApproved:      &approvedAt,
	}, nil).Twice()
	publisher.On("PublishPaymentEvent", mock.Anything, eventOfType(domain.EventPaymentApproved)).Return(nil).Once()

	first, err := settlement.Handle(context.Background(), notification)
	require.NoError(t, err)
	assert.Equal(t, "processed", first.Result)
	assert.Equal(t, domain.StatusPaymentApproved, store.orders[result.OrderID].Status)
	assert.Equal(t, "7", store.ingredients[1].CurrentStock.String())
	assert.Empty(t, store.disabled)

	second, err := settlement.Handle(context.Background(), notification)
	require.NoError(t, err)
	assert.Equal(t, "duplicate", second.Result)
	assert.Equal(t, 1, store.paymentWrites)
	assert.Equal(t, 1, store.stockWrites[1])
	assert.Equal(t, "7", store.ingredients[1].CurrentStock.String())

	status, err := checkout.GetOrderStatus(context.Background(), result.OrderID, result.OrderToken)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentApproved, status.Status)
	assert.NotNil(t, status.PaymentApprovedAt)
}

// TestDelegationCycleBlocksCheckout checks that a cycle written behind the
// admin API's back fails checkout instead of silently using restaurant
// credentials.
func TestDelegationCycleBlocksCheckout(t *testing.T) {
	store := newMemStore()
	store.addBranch("R", "A", "A", "B")
	store.addBranch("R", "B", "B", "A")
	store.addConfig(domain.PaymentConfig{RestaurantID: "R", Enabled: true, AccessToken: "AT_R", PublicKey: "PK_R"})
	store.tables["T"] = &domain.Table{ExternalID: "T", RestaurantID: "R", BranchID: strPtr("A"), Token: "tok1", Active: true}

	lookup := service.NewConfigLookup(service.NewDelegationResolver(store, zap.NewNop()), store)
	checkout := service.NewCheckoutService(store, store, lookup, mocks.NewPaymentProvider(t), mocks.NewEventPublisher(t), nil,
		service.CheckoutConfig{}, zap.NewNop())

	_, err := checkout.Initiate(context.Background(), service.InitiateRequest{
		TableExternalID: "T",
		Token:           "tok1",
		Items:           []domain.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("10")}},
		TotalAmount:     dec("10"),
	})

	assert.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Empty(t, store.orders)
	assert.True(t, strings.Contains(err.Error(), "cycle"))
}
