package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"overcooked-payments/payment-svc/internal/domain"
)

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	return r.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO orders (mesa_id, restaurant_id, branch_id, items, total_amount, status, order_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		order.TableExternalID, order.RestaurantID, order.BranchID, items, order.TotalAmount, string(order.Status), order.Token).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *PostgresRepository) SetPreference(ctx context.Context, orderID int64, preferenceID, initPoint, paymentStatus string) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE orders
		SET payment_preference_id = $1, payment_init_point = $2, payment_status = $3, updated_at = now()
		WHERE id = $4`,
		preferenceID, initPoint, paymentStatus, orderID)
	return err
}

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var (
		order        domain.Order
		branch       sql.NullString
		items        []byte
		status       string
		preferenceID sql.NullString
		initPoint    sql.NullString
		paymentID    sql.NullString
		payStatus    sql.NullString
		statusDetail sql.NullString
		approvedAt   sql.NullTime
	)
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id, mesa_id, restaurant_id, branch_id, items, total_amount, status, order_token,
			payment_preference_id, payment_init_point, payment_id, payment_status, payment_status_detail,
			payment_approved_at, created_at, updated_at
		FROM orders
		WHERE id = $1`, orderID).
		Scan(&order.ID, &order.TableExternalID, &order.RestaurantID, &branch, &items, &order.TotalAmount, &status, &order.Token,
			&preferenceID, &initPoint, &paymentID, &payStatus, &statusDetail,
			&approvedAt, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %d: %w", orderID, err)
		}
	}
	order.BranchID = stringPtr(branch)
	order.Status = domain.OrderStatus(status)
	order.PaymentPreferenceID = preferenceID.String
	order.PaymentInitPoint = initPoint.String
	order.PaymentID = paymentID.String
	order.PaymentStatus = payStatus.String
	order.PaymentStatusDetail = statusDetail.String
	if approvedAt.Valid {
		order.PaymentApprovedAt = &approvedAt.Time
	}
	return &order, nil
}

// UpdatePayment writes the provider-derived fields. The approval time is only
// overwritten when the update carries one.
func (r *PostgresRepository) UpdatePayment(ctx context.Context, orderID int64, update domain.PaymentUpdate) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_id = $2, payment_status = $3, payment_status_detail = $4,
			payment_approved_at = COALESCE($5, payment_approved_at), updated_at = now()
		WHERE id = $6`,
		string(update.Status), update.PaymentID, update.PaymentStatus, update.PaymentStatusDetail, update.ApprovedAt, orderID)
	return err
}

// TransitionStatus moves an order only if it is still in the expected status.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error) {
	result, err := r.conn(ctx).ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		string(to), orderID, string(from))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
