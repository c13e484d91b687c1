package service

import (
	"context"
	"fmt"
	"sort"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const stockDecimals = 2

// StockEffects summarizes what an approved order did to inventory.
type StockEffects struct {
	Consumption      map[int64]decimal.Decimal
	Updated          map[int64]decimal.Decimal
	Underflows       []int64
	DisabledProducts []int64
}

// InventoryCascade consumes the ingredients behind an order and disables menu
// products whose ingredients fall to their minimum.
type InventoryCascade struct {
	repo   InventoryRepository
	logger *zap.Logger
}

func NewInventoryCascade(repo InventoryRepository, logger *zap.Logger) *InventoryCascade {
	return &InventoryCascade{repo: repo, logger: logger}
}

// AggregateConsumption sums quantity-per-unit times ordered quantity for each
// ingredient across every item of the order.
func AggregateConsumption(items []domain.OrderItem, lines []domain.RecipeLine) map[int64]decimal.Decimal {
	ordered := make(map[int64]int64, len(items))
	for _, it := range items {
		ordered[it.ProductID] += int64(it.Quantity)
	}

	consumption := make(map[int64]decimal.Decimal)
	for _, line := range lines {
		qty, ok := ordered[line.ProductID]
		if !ok || qty <= 0 {
			continue
		}
		amount := line.QuantityPerUnit.Mul(decimal.NewFromInt(qty))
		consumption[line.IngredientID] = consumption[line.IngredientID].Add(amount)
	}
	return consumption
}

func (c *InventoryCascade) Apply(ctx context.Context, order *domain.Order) (*StockEffects, error) {
	effects := &StockEffects{Updated: map[int64]decimal.Decimal{}}

	productIDs := uniqueProductIDs(order.Items)
	if len(productIDs) == 0 {
		return effects, nil
	}

	lines, err := c.repo.ListRecipeLines(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	effects.Consumption = AggregateConsumption(order.Items, lines)
	if len(effects.Consumption) == 0 {
		return effects, nil
	}

	ingredientIDs := make([]int64, 0, len(effects.Consumption))
	for id := range effects.Consumption {
		ingredientIDs = append(ingredientIDs, id)
	}
	sort.Slice(ingredientIDs, func(i, j int) bool { return ingredientIDs[i] < ingredientIDs[j] })

	ingredients, err := c.repo.GetIngredients(ctx, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].ID < ingredients[j].ID })

	toDisable := make(map[int64]struct{})
	for _, ing := range ingredients {
		if !ing.TrackStock {
			continue
		}
		consumed := effects.Consumption[ing.ID]
		next := ing.CurrentStock.Sub(consumed).Round(stockDecimals)

		if next.IsNegative() {
			effects.Underflows = append(effects.Underflows, ing.ID)
			metrics.StockUnderflows.Inc()
			c.logger.Warn("ingredient stock would go negative, decrement skipped",
				zap.Int64("order_id", order.ID),
				zap.Int64("ingredient_id", ing.ID),
				zap.String("ingredient", ing.Name),
				zap.String("current_stock", ing.CurrentStock.String()),
				zap.String("consumption", consumed.String()))
			continue
		}

		if err := c.repo.UpdateIngredientStock(ctx, ing.ID, next); err != nil {
			return nil, fmt.Errorf("update stock of ingredient %d: %w", ing.ID, err)
		}
		effects.Updated[ing.ID] = next

		if next.LessThanOrEqual(ing.MinStock) {
			products, err := c.repo.ListProductsUsingIngredient(ctx, ing.ID)
			if err != nil {
				return nil, fmt.Errorf("list products using ingredient %d: %w", ing.ID, err)
			}
			for _, p := range products {
				toDisable[p] = struct{}{}
			}
			c.logger.Info("ingredient reached minimum stock",
				zap.Int64("ingredient_id", ing.ID),
				zap.String("stock", next.String()),
				zap.String("min_stock", ing.MinStock.String()),
				zap.Int("products", len(products)))
		}
	}

	if len(toDisable) > 0 {
		ids := make([]int64, 0, len(toDisable))
		for id := range toDisable {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		if err := c.repo.DisableProducts(ctx, ids); err != nil {
			return nil, fmt.Errorf("disable products: %w", err)
		}
		metrics.ProductsDisabled.Add(float64(len(ids)))
		effects.DisabledProducts = ids
	}

	return effects, nil
}

func uniqueProductIDs(items []domain.OrderItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
