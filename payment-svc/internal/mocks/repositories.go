package mocks

import (
	"context"

	"overcooked-payments/payment-svc/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type BranchRepository struct {
	mock.Mock
}

func (_m *BranchRepository) GetBranch(ctx context.Context, branchID string) (*domain.Branch, error) {
	ret := _m.Called(ctx, branchID)
	var r0 *domain.Branch
	if v := ret.Get(0); v != nil {
		r0 = v.(*domain.Branch)
	}
	return r0, ret.Error(1)
}

func (_m *BranchRepository) GetDelegateSource(ctx context.Context, branchID string) (*string, error) {
	ret := _m.Called(ctx, branchID)
	var r0 *string
	if v := ret.Get(0); v != nil {
		r0 = v.(*string)
	}
	return r0, ret.Error(1)
}

func (_m *BranchRepository) ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error) {
	ret := _m.Called(ctx, restaurantID)
	var r0 []domain.Branch
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.Branch)
	}
	return r0, ret.Error(1)
}

func (_m *BranchRepository) SetDelegateSource(ctx context.Context, branchID string, sourceBranchID *string) error {
	ret := _m.Called(ctx, branchID, sourceBranchID)
	return ret.Error(0)
}

func NewBranchRepository(t testingT) *BranchRepository {
	m := &BranchRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type PaymentConfigRepository struct {
	mock.Mock
}

func (_m *PaymentConfigRepository) FindEnabledConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	ret := _m.Called(ctx, restaurantID, branchID, provider)
	var r0 *domain.PaymentConfig
	if v := ret.Get(0); v != nil {
		r0 = v.(*domain.PaymentConfig)
	}
	return r0, ret.Error(1)
}

func (_m *PaymentConfigRepository) FindConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	ret := _m.Called(ctx, restaurantID, branchID, provider)
	var r0 *domain.PaymentConfig
	if v := ret.Get(0); v != nil {
		r0 = v.(*domain.PaymentConfig)
	}
	return r0, ret.Error(1)
}

func (_m *PaymentConfigRepository) ListEnabledBranchIDs(ctx context.Context, restaurantID, provider string) ([]string, error) {
	ret := _m.Called(ctx, restaurantID, provider)
	var r0 []string
	if v := ret.Get(0); v != nil {
		r0 = v.([]string)
	}
	return r0, ret.Error(1)
}

func (_m *PaymentConfigRepository) UpsertConfig(ctx context.Context, cfg *domain.PaymentConfig) error {
	ret := _m.Called(ctx, cfg)
	return ret.Error(0)
}

func NewPaymentConfigRepository(t testingT) *PaymentConfigRepository {
	m := &PaymentConfigRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type TableRepository struct {
	mock.Mock
}

func (_m *TableRepository) GetTableByExternalID(ctx context.Context, externalID string) (*domain.Table, error) {
	ret := _m.Called(ctx, externalID)
	var r0 *domain.Table
	if v := ret.Get(0); v != nil {
		r0 = v.(*domain.Table)
	}
	return r0, ret.Error(1)
}

func NewTableRepository(t testingT) *TableRepository {
	m := &TableRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type OrderRepository struct {
	mock.Mock
}

func (_m *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	ret := _m.Called(ctx, order)
	return ret.Error(0)
}

func (_m *OrderRepository) SetPreference(ctx context.Context, orderID int64, preferenceID, initPoint, paymentStatus string) error {
	ret := _m.Called(ctx, orderID, preferenceID, initPoint, paymentStatus)
	return ret.Error(0)
}

func (_m *OrderRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ret := _m.Called(ctx, orderID)
	var r0 *domain.Order
	if v := ret.Get(0); v != nil {
		r0 = v.(*domain.Order)
	}
	return r0, ret.Error(1)
}

func (_m *OrderRepository) UpdatePayment(ctx context.Context, orderID int64, update domain.PaymentUpdate) error {
	ret := _m.Called(ctx, orderID, update)
	return ret.Error(0)
}

func (_m *OrderRepository) TransitionStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error) {
	ret := _m.Called(ctx, orderID, from, to)
	return ret.Bool(0), ret.Error(1)
}

func NewOrderRepository(t testingT) *OrderRepository {
	m := &OrderRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

type InventoryRepository struct {
	mock.Mock
}

func (_m *InventoryRepository) ListRecipeLines(ctx context.Context, productIDs []int64) ([]domain.RecipeLine, error) {
	ret := _m.Called(ctx, productIDs)
	var r0 []domain.RecipeLine
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.RecipeLine)
	}
	return r0, ret.Error(1)
}

func (_m *InventoryRepository) GetIngredients(ctx context.Context, ingredientIDs []int64) ([]domain.Ingredient, error) {
	ret := _m.Called(ctx, ingredientIDs)
	var r0 []domain.Ingredient
	if v := ret.Get(0); v != nil {
		r0 = v.([]domain.Ingredient)
	}
	return r0, ret.Error(1)
}

func (_m *InventoryRepository) UpdateIngredientStock(ctx context.Context, ingredientID int64, stock decimal.Decimal) error {
	ret := _m.Called(ctx, ingredientID, stock)
	return ret.Error(0)
}

func (_m *InventoryRepository) ListProductsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	ret := _m.Called(ctx, ingredientID)
	var r0 []int64
	if v := ret.Get(0); v != nil {
		r0 = v.([]int64)
	}
	return r0, ret.Error(1)
}

func (_m *InventoryRepository) DisableProducts(ctx context.Context, productIDs []int64) error {
	ret := _m.Called(ctx, productIDs)
	return ret.Error(0)
}

func NewInventoryRepository(t testingT) *InventoryRepository {
	m := &InventoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
