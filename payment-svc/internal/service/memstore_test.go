package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"overcooked-payments/payment-svc/internal/domain"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory implementation of every repository the services
// use, for scenario tests that span several services.
type memStore struct {
	mu sync.Mutex

	branches    map[string]*domain.Branch
	configs     []*domain.PaymentConfig
	tables      map[string]*domain.Table
	orders      map[int64]*domain.Order
	nextOrderID int64
	recipes     []domain.RecipeLine
	ingredients map[int64]*domain.Ingredient
	disabled    map[int64]bool

	paymentWrites int
	stockWrites   map[int64]int

	// disableErr fails the next DisableProducts call.
	disableErr error
}

func newMemStore() *memStore {
	return &memStore{
		branches:    map[string]*domain.Branch{},
		tables:      map[string]*domain.Table{},
		orders:      map[int64]*domain.Order{},
		nextOrderID: 100,
		ingredients: map[int64]*domain.Ingredient{},
		disabled:    map[int64]bool{},
		stockWrites: map[int64]int{},
	}
}

func (s *memStore) addBranch(restaurantID, id, name string, delegateTo string) {
	b := &domain.Branch{ID: id, RestaurantID: restaurantID, Name: name}
	if delegateTo != "" {
		b.DelegateSourceBranchID = &delegateTo
	}
	s.branches[id] = b
}

func (s *memStore) addConfig(cfg domain.PaymentConfig) {
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderMercadoPago
	}
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("cfg-%d", len(s.configs)+1)
	}
	s.configs = append(s.configs, &cfg)
}

func (s *memStore) GetBranch(_ context.Context, branchID string) (*domain.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[branchID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) GetDelegateSource(_ context.Context, branchID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[branchID]
	if !ok {
		return nil, nil
	}
	return b.DelegateSourceBranchID, nil
}

func (s *memStore) ListBranches(_ context.Context, restaurantID string) ([]domain.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Branch
	for _, b := range s.branches {
		if b.RestaurantID == restaurantID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SetDelegateSource(_ context.Context, branchID string, sourceBranchID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[branchID]
	if !ok {
		return fmt.Errorf("branch %s not found", branchID)
	}
	b.DelegateSourceBranchID = sourceBranchID
	return nil
}

func sameBranch(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *memStore) findConfig(restaurantID string, branchID *string, provider string, enabledOnly bool) *domain.PaymentConfig {
	for _, c := range s.configs {
		if c.RestaurantID != restaurantID || c.Provider != provider || !sameBranch(c.BranchID, branchID) {
			continue
		}
		if enabledOnly && !c.Enabled {
			continue
		}
		cp := *c
		return &cp
	}
	return nil
}

func (s *memStore) FindEnabledConfig(_ context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findConfig(restaurantID, branchID, provider, true), nil
}

func (s *memStore) FindConfig(_ context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findConfig(restaurantID, branchID, provider, false), nil
}

func (s *memStore) ListEnabledBranchIDs(_ context.Context, restaurantID, provider string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, c := range s.configs {
		if c.RestaurantID == restaurantID && c.Provider == provider && c.Enabled && c.BranchID != nil {
			ids = append(ids, *c.BranchID)
		}
	}
	return ids, nil
}

func (s *memStore) UpsertConfig(_ context.Context, cfg *domain.PaymentConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.configs {
		if c.ID == cfg.ID && cfg.ID != "" {
			cp := *cfg
			s.configs[i] = &cp
			return nil
		}
	}
	cfg.ID = fmt.Sprintf("cfg-%d", len(s.configs)+1)
	cp := *cfg
	s.configs = append(s.configs, &cp)
	return nil
}

func (s *memStore) GetTableByExternalID(_ context.Context, externalID string) (*domain.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[externalID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrderID++
	order.ID = s.nextOrderID
	order.CreatedAt = time.Now()
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) SetPreference(_ context.Context, orderID int64, preferenceID, initPoint, paymentStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	o.PaymentPreferenceID = preferenceID
	o.PaymentInitPoint = initPoint
	o.PaymentStatus = paymentStatus
	return nil
}

func (s *memStore) GetOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdatePayment(_ context.Context, orderID int64, update domain.PaymentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	s.paymentWrites++
	o.Status = update.Status
	o.PaymentID = update.PaymentID
	o.PaymentStatus = update.PaymentStatus
	o.PaymentStatusDetail = update.PaymentStatusDetail
	if update.ApprovedAt != nil {
		o.PaymentApprovedAt = update.ApprovedAt
	}
	return nil
}

func (s *memStore) TransitionStatus(_ context.Context, orderID int64, from, to domain.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *memStore) ListRecipeLines(_ context.Context, productIDs []int64) ([]domain.RecipeLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[int64]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []domain.RecipeLine
	for _, r := range s.recipes {
		if wanted[r.ProductID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) GetIngredients(_ context.Context, ids []int64) ([]domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ingredient
	for _, id := range ids {
		if ing, ok := s.ingredients[id]; ok {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (s *memStore) UpdateIngredientStock(_ context.Context, id int64, stock decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ing, ok := s.ingredients[id]
	if !ok {
		return fmt.Errorf("ingredient %d not found", id)
	}
	s.stockWrites[id]++
	ing.CurrentStock = stock
	return nil
}

func (s *memStore) ListProductsUsingIngredient(_ context.Context, ingredientID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]bool{}
	var out []int64
	for _, r := range s.recipes {
		if r.IngredientID == ingredientID && !seen[r.ProductID] {
			seen[r.ProductID] = true
			out = append(out, r.ProductID)
		}
	}
	return out, nil
}

func (s *memStore) DisableProducts(_ context.Context, productIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.disableErr; err != nil {
		s.disableErr = nil
		return err
	}
	for _, id := range productIDs {
		s.disabled[id] = true
	}
	return nil
}

// WithinTx restores orders, stock, product availability and the write
// counters when fn fails.
func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	orders := make(map[int64]domain.Order, len(s.orders))
	for id, o := range s.orders {
		orders[id] = *o
	}
	ingredients := make(map[int64]domain.Ingredient, len(s.ingredients))
	for id, ing := range s.ingredients {
		ingredients[id] = *ing
	}
	disabled := make(map[int64]bool, len(s.disabled))
	for id, v := range s.disabled {
		disabled[id] = v
	}
	stockWrites := make(map[int64]int, len(s.stockWrites))
	for id, n := range s.stockWrites {
		stockWrites[id] = n
	}
	paymentWrites := s.paymentWrites
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for id, o := range orders {
			*s.orders[id] = o
		}
		for id, ing := range ingredients {
			*s.ingredients[id] = ing
		}
		s.disabled = disabled
		s.stockWrites = stockWrites
		s.paymentWrites = paymentWrites
		return err
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
