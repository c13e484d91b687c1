package service

import (
	"context"
	"fmt"

	"overcooked-payments/payment-svc/internal/domain"
)

// ConfigLookup finds the enabled provider credentials for a restaurant branch:
// the effective branch's own row first, then the restaurant-wide row.
type ConfigLookup struct {
	resolver BranchResolver
	configs  PaymentConfigRepository
}

func NewConfigLookup(resolver BranchResolver, configs PaymentConfigRepository) *ConfigLookup {
	return &ConfigLookup{resolver: resolver, configs: configs}
}

func (l *ConfigLookup) GetEffectiveConfig(ctx context.Context, restaurantID string, branchID *string, provider string) (*domain.ResolvedConfig, error) {
	var effective *string
	if branchID != nil && *branchID != "" {
		id, err := l.resolver.ResolveEffectiveBranch(ctx, *branchID)
		if err != nil {
			return nil, err
		}
		effective = &id

		cfg, err := l.configs.FindEnabledConfig(ctx, restaurantID, effective, provider)
		if err != nil {
			return nil, fmt.Errorf("find branch payment config: %w", err)
		}
		if cfg != nil {
			return &domain.ResolvedConfig{Config: cfg, Scope: domain.ScopeBranch, EffectiveBranchID: effective}, nil
		}
	}

	cfg, err := l.configs.FindEnabledConfig(ctx, restaurantID, nil, provider)
	if err != nil {
		return nil, fmt.Errorf("find restaurant payment config: %w", err)
	}
	if cfg != nil {
		return &domain.ResolvedConfig{Config: cfg, Scope: domain.ScopeRestaurant, EffectiveBranchID: effective}, nil
	}

	return &domain.ResolvedConfig{Scope: domain.ScopeNone, EffectiveBranchID: effective}, nil
}
