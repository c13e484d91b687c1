package storage

import (
	"context"

	"overcooked-payments/payment-svc/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func (r *PostgresRepository) ListRecipeLines(ctx context.Context, productIDs []int64) ([]domain.RecipeLine, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT product_id, ingredient_id, quantity
		FROM recipes
		WHERE product_id = ANY($1)
		ORDER BY product_id, ingredient_id`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.RecipeLine
	for rows.Next() {
		var line domain.RecipeLine
		if err := rows.Scan(&line.ProductID, &line.IngredientID, &line.QuantityPerUnit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *PostgresRepository) GetIngredients(ctx context.Context, ingredientIDs []int64) ([]domain.Ingredient, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, restaurant_id, name, current_stock, min_stock, track_stock
		FROM ingredients
		WHERE id = ANY($1)
		ORDER BY id`, pq.Array(ingredientIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []domain.Ingredient
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.RestaurantID, &ing.Name, &ing.CurrentStock, &ing.MinStock, &ing.TrackStock); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (r *PostgresRepository) UpdateIngredientStock(ctx context.Context, ingredientID int64, stock decimal.Decimal) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		"UPDATE ingredients SET current_stock = $1, updated_at = now() WHERE id = $2",
		stock, ingredientID)
	return err
}

func (r *PostgresRepository) ListProductsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		"SELECT DISTINCT product_id FROM recipes WHERE ingredient_id = $1 ORDER BY product_id",
		ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) DisableProducts(ctx context.Context, productIDs []int64) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		"UPDATE products SET available = false, updated_at = now() WHERE id = ANY($1)",
		pq.Array(productIDs))
	return err
}
