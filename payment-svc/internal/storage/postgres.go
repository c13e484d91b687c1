package storage

import (
	"context"
	"database/sql"
	"errors"

	"overcooked-payments/payment-svc/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) GetBranch(ctx context.Context, branchID string) (*domain.Branch, error) {
	var (
		branch domain.Branch
		source sql.NullString
	)
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, mp_config_source_branch_id
		FROM branches
		WHERE id = $1`, branchID).
		Scan(&branch.ID, &branch.RestaurantID, &branch.Name, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	branch.DelegateSourceBranchID = stringPtr(source)
	return &branch, nil
}

func (r *PostgresRepository) GetDelegateSource(ctx context.Context, branchID string) (*string, error) {
	var source sql.NullString
	err := r.conn(ctx).QueryRowContext(ctx,
		"SELECT mp_config_source_branch_id FROM branches WHERE id = $1", branchID).
		Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stringPtr(source), nil
}

func (r *PostgresRepository) ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, restaurant_id, name, mp_config_source_branch_id
		FROM branches
		WHERE restaurant_id = $1
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var (
			branch domain.Branch
			source sql.NullString
		)
		if err := rows.Scan(&branch.ID, &branch.RestaurantID, &branch.Name, &source); err != nil {
			return nil, err
		}
		branch.DelegateSourceBranchID = stringPtr(source)
		branches = append(branches, branch)
	}
	return branches, rows.Err()
}

func (r *PostgresRepository) SetDelegateSource(ctx context.Context, branchID string, sourceBranchID *string) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		"UPDATE branches SET mp_config_source_branch_id = $1 WHERE id = $2",
		sourceBranchID, branchID)
	return err
}

const paymentConfigColumns = `id, restaurant_id, branch_id, provider, enabled, access_token, public_key,
	webhook_url, webhook_secret, created_at, updated_at`

func (r *PostgresRepository) FindEnabledConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	return r.findConfig(ctx, `
		SELECT `+paymentConfigColumns+`
		FROM payment_configs
		WHERE restaurant_id = $1 AND branch_id IS NOT DISTINCT FROM $2 AND provider = $3 AND enabled = true
		LIMIT 1`, restaurantID, branchID, provider)
}

func (r *PostgresRepository) FindConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.PaymentConfig, error) {
	return r.findConfig(ctx, `
		SELECT `+paymentConfigColumns+`
		FROM payment_configs
		WHERE restaurant_id = $1 AND branch_id IS NOT DISTINCT FROM $2 AND provider = $3
		LIMIT 1`, restaurantID, branchID, provider)
}

func (r *PostgresRepository) findConfig(ctx context.Context, query string, args ...any) (*domain.PaymentConfig, error) {
	var (
		cfg    domain.PaymentConfig
		branch sql.NullString
	)
	err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID, &cfg.RestaurantID, &branch, &cfg.Provider, &cfg.Enabled, &cfg.AccessToken,
		&cfg.PublicKey, &cfg.WebhookURL, &cfg.WebhookSecret, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.BranchID = stringPtr(branch)
	return &cfg, nil
}

func (r *PostgresRepository) ListEnabledBranchIDs(ctx context.Context, restaurantID, provider string) ([]string, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT branch_id
		FROM payment_configs
		WHERE restaurant_id = $1 AND provider = $2 AND enabled = true AND branch_id IS NOT NULL`,
		restaurantID, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertConfig updates the row identified by cfg.ID, or inserts a new one when
// the ID is empty.
func (r *PostgresRepository) UpsertConfig(ctx context.Context, cfg *domain.PaymentConfig) error {
	if cfg.ID != "" {
		return r.conn(ctx).QueryRowContext(ctx, `
			UPDATE payment_configs
			SET enabled = $1, access_token = $2, public_key = $3, webhook_url = $4, webhook_secret = $5, updated_at = now()
			WHERE id = $6
			RETURNING created_at, updated_at`,
			cfg.Enabled, cfg.AccessToken, cfg.PublicKey, cfg.WebhookURL, cfg.WebhookSecret, cfg.ID).
			Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
	}
	return r.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO payment_configs (restaurant_id, branch_id, provider, enabled, access_token, public_key, webhook_url, webhook_secret)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		cfg.RestaurantID, cfg.BranchID, cfg.Provider, cfg.Enabled, cfg.AccessToken, cfg.PublicKey, cfg.WebhookURL, cfg.WebhookSecret).
		Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *PostgresRepository) GetTableByExternalID(ctx context.Context, externalID string) (*domain.Table, error) {
	var (
		table   domain.Table
		branch  sql.NullString
		expires sql.NullTime
	)
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id, mesa_id, restaurant_id, branch_id, token, token_expires_at, is_active
		FROM mesas
		WHERE mesa_id = $1`, externalID).
		Scan(&table.ID, &table.ExternalID, &table.RestaurantID, &branch, &table.Token, &expires, &table.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	table.BranchID = stringPtr(branch)
	if expires.Valid {
		table.TokenExpiresAt = &expires.Time
	}
	return &table, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}
