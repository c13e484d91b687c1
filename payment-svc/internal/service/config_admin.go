package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"overcooked-payments/payment-svc/internal/domain"

	"go.uber.org/zap"
)

const (
	LevelBranch     = "branch"
	LevelRestaurant = "restaurant"

	SourceModeSelf       = "self"
	SourceModeRestaurant = "restaurant"
	SourceModeBranch     = "branch"
	SourceModeNone       = "none"

	unknownBranchName = "unknown branch"
)

var configAdminRoles = []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleDeveloper}

type ReadConfigRequest struct {
	BranchID *string
	Level    string `validate:"omitempty,oneof=branch restaurant"`
}

type MaskedConfig struct {
	Enabled       bool   `json:"enabled"`
	AccessToken   string `json:"access_token"`
	PublicKey     string `json:"public_key"`
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret"`
}

type BranchConfigSource struct {
	Type             string `json:"type"`
	SourceBranchID   string `json:"source_branch_id,omitempty"`
	SourceBranchName string `json:"source_branch_name,omitempty"`
}

type BranchRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ConfigView struct {
	MercadoPago        MaskedConfig        `json:"mercadopago"`
	Scope              domain.ConfigScope  `json:"scope"`
	BranchConfigSource *BranchConfigSource `json:"branch_config_source,omitempty"`
	EligibleBranches   []BranchRef         `json:"eligible_branches"`
}

type MercadoPagoInput struct {
	Enabled       bool   `json:"enabled"`
	AccessToken   string `json:"access_token"`
	PublicKey     string `json:"public_key"`
	WebhookURL    string `json:"webhook_url" validate:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret"`
}

type WriteConfigRequest struct {
	BranchID       *string           `json:"branchId"`
	Scope          string            `json:"scope" validate:"omitempty,oneof=branch restaurant"`
	SourceMode     string            `json:"source_mode" validate:"omitempty,oneof=self restaurant branch"`
	SourceBranchID *string           `json:"source_branch_id"`
	MercadoPago    *MercadoPagoInput `json:"mercadopago"`
}

type WriteConfigResult struct {
	Success    bool   `json:"success"`
	Scope      string `json:"scope,omitempty"`
	SourceMode string `json:"source_mode,omitempty"`
}

// ConfigAdminService reads and writes a restaurant's payment configuration on
// behalf of an authenticated operator.
type ConfigAdminService struct {
	branches BranchRepository
	configs  PaymentConfigRepository
	resolver BranchResolver
	lookup   ConfigResolver
	logger   *zap.Logger
}

func NewConfigAdminService(
	branches BranchRepository,
	configs PaymentConfigRepository,
	resolver BranchResolver,
	lookup ConfigResolver,
	logger *zap.Logger,
) *ConfigAdminService {
	return &ConfigAdminService{
		branches: branches,
		configs:  configs,
		resolver: resolver,
		lookup:   lookup,
		logger:   logger,
	}
}

func (s *ConfigAdminService) Read(ctx context.Context, op domain.Operator, req ReadConfigRequest) (*ConfigView, error) {
	if !op.HasRole(configAdminRoles...) {
		return nil, domain.ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	branchID := normalizeID(req.BranchID)
	if req.Level == LevelRestaurant || branchID == nil {
		return s.readRestaurantLevel(ctx, op.RestaurantID)
	}

	branch, err := s.ownBranch(ctx, op.RestaurantID, *branchID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.lookup.GetEffectiveConfig(ctx, op.RestaurantID, branchID, domain.ProviderMercadoPago)
	if err != nil {
		return nil, err
	}

	source, err := s.describeSource(ctx, branch, resolved)
	if err != nil {
		return nil, err
	}

	eligible, err := s.eligibleSources(ctx, op.RestaurantID, branch.ID)
	if err != nil {
		return nil, err
	}

	return &ConfigView{
		MercadoPago:        maskConfig(resolved.Config),
		Scope:              resolved.Scope,
		BranchConfigSource: source,
		EligibleBranches:   eligible,
	}, nil
}

func (s *ConfigAdminService) readRestaurantLevel(ctx context.Context, restaurantID string) (*ConfigView, error) {
	cfg, err := s.configs.FindConfig(ctx, restaurantID, nil, domain.ProviderMercadoPago)
	if err != nil {
		return nil, fmt.Errorf("find restaurant payment config: %w", err)
	}

	scope := domain.ScopeNone
	if cfg != nil {
		scope = domain.ScopeRestaurant
	}
	return &ConfigView{
		MercadoPago:      maskConfig(cfg),
		Scope:            scope,
		EligibleBranches: []BranchRef{},
	}, nil
}

// describeSource reports where the branch's credentials actually come from.
func (s *ConfigAdminService) describeSource(ctx context.Context, branch *domain.Branch, resolved *domain.ResolvedConfig) (*BranchConfigSource, error) {
	switch resolved.Scope {
	case domain.ScopeRestaurant:
		return &BranchConfigSource{Type: SourceModeRestaurant}, nil
	case domain.ScopeNone:
		return &BranchConfigSource{Type: SourceModeNone}, nil
	}

	if resolved.EffectiveBranchID == nil || *resolved.EffectiveBranchID == branch.ID {
		return &BranchConfigSource{Type: SourceModeSelf}, nil
	}

	sourceID := *resolved.EffectiveBranchID
	name := unknownBranchName
	source, err := s.branches.GetBranch(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source branch: %w", err)
	}
	if source != nil && source.Name != "" {
		name = source.Name
	}
	return &BranchConfigSource{Type: SourceModeBranch, SourceBranchID: sourceID, SourceBranchName: name}, nil
}

func (s *ConfigAdminService) eligibleSources(ctx context.Context, restaurantID, branchID string) ([]BranchRef, error) {
	branches, err := s.branches.ListBranches(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	enabledIDs, err := s.configs.ListEnabledBranchIDs(ctx, restaurantID, domain.ProviderMercadoPago)
	if err != nil {
		return nil, fmt.Errorf("list configured branches: %w", err)
	}

	withConfig := make(map[string]struct{}, len(enabledIDs))
	for _, id := range enabledIDs {
		withConfig[id] = struct{}{}
	}

	eligible := []BranchRef{}
	for _, b := range branches {
		if b.ID == branchID {
			continue
		}
		if _, ok := withConfig[b.ID]; ok {
			eligible = append(eligible, BranchRef{ID: b.ID, Name: b.Name})
		}
	}
	return eligible, nil
}

func (s *ConfigAdminService) Write(ctx context.Context, op domain.Operator, req WriteConfigRequest) (*WriteConfigResult, error) {
	if !op.HasRole(configAdminRoles...) {
		return nil, domain.ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	mode := req.SourceMode
	if mode == "" {
		switch req.Scope {
		case LevelBranch:
			mode = SourceModeSelf
		case LevelRestaurant:
			mode = SourceModeRestaurant
		default:
			return nil, domain.Validation("source_mode is required (self, restaurant or branch)")
		}
	}

	branchID := normalizeID(req.BranchID)
	var branch *domain.Branch
	if branchID != nil {
		var err error
		branch, err = s.ownBranch(ctx, op.RestaurantID, *branchID)
		if err != nil {
			return nil, err
		}
	}

	if mode == SourceModeBranch {
		return s.writeDelegation(ctx, op, branch, normalizeID(req.SourceBranchID))
	}
	return s.writeOwnConfig(ctx, op, mode, branch, req.MercadoPago)
}

func (s *ConfigAdminService) writeDelegation(ctx context.Context, op domain.Operator, branch *domain.Branch, sourceID *string) (*WriteConfigResult, error) {
	if branch == nil {
		return nil, domain.Validation("branchId is required when source_mode is branch")
	}
	if sourceID == nil {
		return nil, domain.Validation("source_branch_id is required when source_mode is branch")
	}
	if *sourceID == branch.ID {
		return nil, domain.Validation("a branch cannot use itself as its payment source")
	}

	source, err := s.branches.GetBranch(ctx, *sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source branch: %w", err)
	}
	if source == nil || source.RestaurantID != op.RestaurantID {
		return nil, domain.Validation("source branch does not belong to this restaurant")
	}

	sourceCfg, err := s.configs.FindEnabledConfig(ctx, op.RestaurantID, sourceID, domain.ProviderMercadoPago)
	if err != nil {
		return nil, fmt.Errorf("find source branch payment config: %w", err)
	}
	if sourceCfg == nil {
		return nil, domain.Validation("source branch has no enabled Mercado Pago configuration of its own")
	}

	if err := s.resolver.ValidateDelegationEdge(ctx, branch.ID, *sourceID); err != nil {
		if errors.Is(err, domain.ErrCycleDetected) {
			return nil, domain.Wrap(domain.KindValidation, "delegation rejected", err)
		}
		return nil, err
	}

	if err := s.branches.SetDelegateSource(ctx, branch.ID, sourceID); err != nil {
		return nil, fmt.Errorf("set delegation source: %w", err)
	}

	s.logger.Info("branch payment delegation updated",
		zap.String("restaurant_id", op.RestaurantID),
		zap.String("branch_id", branch.ID),
		zap.String("source_branch_id", *sourceID),
		zap.String("user_id", op.UserID))

	return &WriteConfigResult{Success: true, SourceMode: SourceModeBranch}, nil
}

func (s *ConfigAdminService) writeOwnConfig(ctx context.Context, op domain.Operator, mode string, branch *domain.Branch, in *MercadoPagoInput) (*WriteConfigResult, error) {
	if in == nil {
		return nil, domain.Validation("mercadopago configuration is required")
	}

	var target *string
	scope := domain.ScopeRestaurant
	if mode == SourceModeSelf {
		if branch == nil {
			return nil, domain.Validation("branchId is required when source_mode is self")
		}
		target = &branch.ID
		scope = domain.ScopeBranch
	}

	existing, err := s.configs.FindConfig(ctx, op.RestaurantID, target, domain.ProviderMercadoPago)
	if err != nil {
		return nil, fmt.Errorf("find payment config: %w", err)
	}

	cfg := &domain.PaymentConfig{
		RestaurantID: op.RestaurantID,
		BranchID:     target,
		Provider:     domain.ProviderMercadoPago,
		Enabled:      in.Enabled,
		PublicKey:    strings.TrimSpace(in.PublicKey),
		WebhookURL:   strings.TrimSpace(in.WebhookURL),
	}
	var storedToken, storedSecret string
	if existing != nil {
		cfg.ID = existing.ID
		storedToken = existing.AccessToken
		storedSecret = existing.WebhookSecret
	}
	cfg.AccessToken = mergeSecret(in.AccessToken, storedToken)
	cfg.WebhookSecret = mergeSecret(in.WebhookSecret, storedSecret)

	if cfg.Enabled {
		if cfg.PublicKey == "" {
			return nil, domain.Validation("public_key is required when the configuration is enabled")
		}
		if cfg.AccessToken == "" {
			return nil, domain.Validation("access_token is required to enable a configuration without a stored token")
		}
	}

	// Validation is complete; from here on the write is applied.
	if branch != nil && branch.DelegateSourceBranchID != nil {
		if err := s.branches.SetDelegateSource(ctx, branch.ID, nil); err != nil {
			return nil, fmt.Errorf("clear delegation source: %w", err)
		}
	}

	if err := s.configs.UpsertConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("upsert payment config: %w", err)
	}

	fields := []zap.Field{
		zap.String("restaurant_id", op.RestaurantID),
		zap.String("scope", string(scope)),
		zap.Bool("enabled", cfg.Enabled),
		zap.String("user_id", op.UserID),
	}
	if target != nil {
		fields = append(fields, zap.String("branch_id", *target))
	}
	s.logger.Info("payment config saved", fields...)

	return &WriteConfigResult{Success: true, Scope: string(scope), SourceMode: mode}, nil
}

// ownBranch loads a branch and checks it belongs to the operator's restaurant.
func (s *ConfigAdminService) ownBranch(ctx context.Context, restaurantID, branchID string) (*domain.Branch, error) {
	branch, err := s.branches.GetBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	if branch == nil {
		return nil, domain.ErrBranchNotFound
	}
	if branch.RestaurantID != restaurantID {
		return nil, domain.ErrForbidden
	}
	return branch, nil
}

func maskConfig(cfg *domain.PaymentConfig) MaskedConfig {
	if cfg == nil {
		return MaskedConfig{}
	}
	return MaskedConfig{
		Enabled:       cfg.Enabled,
		AccessToken:   MaskSecret(cfg.AccessToken),
		PublicKey:     cfg.PublicKey,
		WebhookURL:    cfg.WebhookURL,
		WebhookSecret: MaskSecret(cfg.WebhookSecret),
	}
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
