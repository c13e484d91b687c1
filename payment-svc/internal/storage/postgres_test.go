package storage_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) (*storage.PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return storage.NewPostgresRepository(db), mock
}

func strPtr(s string) *string {
	return &s
}

var configColumns = []string{"id", "restaurant_id", "branch_id", "provider", "enabled", "access_token", "public_key",
	"webhook_url", "webhook_secret", "created_at", "updated_at"}

func TestGetBranch(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("SELECT id, restaurant_id, name, mp_config_source_branch_id").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "name", "mp_config_source_branch_id"}).
			AddRow("b1", "r1", "Centro", "b2"))

	branch, err := repo.GetBranch(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, &domain.Branch{ID: "b1", RestaurantID: "r1", Name: "Centro", DelegateSourceBranchID: strPtr("b2")}, branch)
}

func TestGetBranch_NotFound(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("SELECT id, restaurant_id, name, mp_config_source_branch_id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	branch, err := repo.GetBranch(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, branch)
}

func TestGetDelegateSource(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *string
	}{
		{name: "pointer set", value: "b2", expected: strPtr("b2")},
		{name: "null pointer", value: nil, expected: nil},
		{name: "empty string counts as unset", value: "", expected: nil},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repo, mock := setupRepository(t)
			mock.ExpectQuery(regexp.QuoteMeta("SELECT mp_config_source_branch_id FROM branches WHERE id = $1")).
				WithArgs("b1").
				WillReturnRows(sqlmock.NewRows([]string{"mp_config_source_branch_id"}).AddRow(testCase.value))

			got, err := repo.GetDelegateSource(context.Background(), "b1")

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, got)
		})
	}
}

func TestGetDelegateSource_DBError(t *testing.T) {
	repo, mock := setupRepository(t)
	mock.ExpectQuery("SELECT mp_config_source_branch_id").
		WithArgs("b1").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.GetDelegateSource(context.Background(), "b1")

	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestListBranches(t *testing.T) {
	repo, mock := setupRepository(t)
	mock.ExpectQuery("FROM branches\\s+WHERE restaurant_id = \\$1\\s+ORDER BY name").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "name", "mp_config_source_branch_id"}).
			AddRow("b1", "r1", "Centro", nil).
			AddRow("b2", "r1", "Norte", "b1"))

	branches, err := repo.ListBranches(context.Background(), "r1")

	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Nil(t, branches[0].DelegateSourceBranchID)
	assert.Equal(t, strPtr("b1"), branches[1].DelegateSourceBranchID)
}

func TestSetDelegateSource(t *testing.T) {
	t.Run("set pointer", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE branches SET mp_config_source_branch_id = $1 WHERE id = $2")).
			WithArgs("b2", "b1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetDelegateSource(context.Background(), "b1", strPtr("b2")))
	})

	t.Run("clear pointer", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectExec("UPDATE branches SET mp_config_source_branch_id").
			WithArgs(nil, "b1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetDelegateSource(context.Background(), "b1", nil))
	})
}

func TestFindEnabledConfig(t *testing.T) {
	now := time.Now()

	t.Run("branch row", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("FROM payment_configs\\s+WHERE restaurant_id = \\$1 AND branch_id IS NOT DISTINCT FROM \\$2 AND provider = \\$3 AND enabled = true").
			WithArgs("r1", "b1", domain.ProviderMercadoPago).
			WillReturnRows(sqlmock.NewRows(configColumns).
				AddRow("cfg-1", "r1", "b1", "mercadopago", true, "APP_USR-1", "PK_1", "", "whsec", now, now))

		cfg, err := repo.FindEnabledConfig(context.Background(), "r1", strPtr("b1"), domain.ProviderMercadoPago)

		require.NoError(t, err)
		assert.Equal(t, "cfg-1", cfg.ID)
		assert.Equal(t, strPtr("b1"), cfg.BranchID)
		assert.Equal(t, "APP_USR-1", cfg.AccessToken)
		assert.True(t, cfg.Enabled)
	})

	t.Run("restaurant row", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("FROM payment_configs").
			WithArgs("r1", nil, domain.ProviderMercadoPago).
			WillReturnRows(sqlmock.NewRows(configColumns).
				AddRow("cfg-2", "r1", nil, "mercadopago", true, "APP_USR-2", "PK_2", "", "", now, now))

		cfg, err := repo.FindEnabledConfig(context.Background(), "r1", nil, domain.ProviderMercadoPago)

		require.NoError(t, err)
		assert.Nil(t, cfg.BranchID)
	})

	t.Run("none", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("FROM payment_configs").
			WithArgs("r1", nil, domain.ProviderMercadoPago).
			WillReturnRows(sqlmock.NewRows(configColumns))

		cfg, err := repo.FindEnabledConfig(context.Background(), "r1", nil, domain.ProviderMercadoPago)

		require.NoError(t, err)
		assert.Nil(t, cfg)
	})
}

func TestListEnabledBranchIDs(t *testing.T) {
	repo, mock := setupRepository(t)
	mock.ExpectQuery("SELECT branch_id\\s+FROM payment_configs").
		WithArgs("r1", domain.ProviderMercadoPago).
		WillReturnRows(sqlmock.NewRows([]string{"branch_id"}).AddRow("b1").AddRow("b3"))

	ids, err := repo.ListEnabledBranchIDs(context.Background(), "r1", domain.ProviderMercadoPago)

	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b3"}, ids)
}

func TestUpsertConfig(t *testing.T) {
	now := time.Now()

	t.Run("insert", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("INSERT INTO payment_configs").
			WithArgs("r1", "b1", "mercadopago", true, "APP_USR-1", "PK_1", "", "whsec").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("cfg-new", now, now))

		cfg := &domain.PaymentConfig{RestaurantID: "r1", BranchID: strPtr("b1"), Provider: "mercadopago", Enabled: true,
			AccessToken: "APP_USR-1", PublicKey: "PK_1", WebhookSecret: "whsec"}
		require.NoError(t, repo.UpsertConfig(context.Background(), cfg))
		assert.Equal(t, "cfg-new", cfg.ID)
	})

	t.Run("update by id", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("UPDATE payment_configs").
			WithArgs(false, "APP_USR-1", "PK_1", "https://hooks.example.com", "", "cfg-1").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		cfg := &domain.PaymentConfig{ID: "cfg-1", RestaurantID: "r1", AccessToken: "APP_USR-1", PublicKey: "PK_1",
			WebhookURL: "https://hooks.example.com"}
		require.NoError(t, repo.UpsertConfig(context.Background(), cfg))
		assert.Equal(t, "cfg-1", cfg.ID)
	})
}

func TestGetTableByExternalID(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("FROM mesas\\s+WHERE mesa_id = \\$1").
			WithArgs("mesa-4").
			WillReturnRows(sqlmock.NewRows([]string{"id", "mesa_id", "restaurant_id", "branch_id", "token", "token_expires_at", "is_active"}).
				AddRow("t1", "mesa-4", "r1", "b1", "tok1", expires, true))

		table, err := repo.GetTableByExternalID(context.Background(), "mesa-4")

		require.NoError(t, err)
		assert.Equal(t, "tok1", table.Token)
		assert.Equal(t, strPtr("b1"), table.BranchID)
		require.NotNil(t, table.TokenExpiresAt)
		assert.True(t, expires.Equal(*table.TokenExpiresAt))
		assert.True(t, table.Active)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := setupRepository(t)
		mock.ExpectQuery("FROM mesas").
			WithArgs("mesa-9").
			WillReturnError(sql.ErrNoRows)

		table, err := repo.GetTableByExternalID(context.Background(), "mesa-9")

		require.NoError(t, err)
		assert.Nil(t, table)
	})
}
