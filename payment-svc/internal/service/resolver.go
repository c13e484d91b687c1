package service

import (
	"context"
	"fmt"

	"overcooked-payments/payment-svc/internal/domain"
	"overcooked-payments/payment-svc/internal/metrics"

	"go.uber.org/zap"
)

// DelegationResolver follows a branch's "use another branch's credentials"
// pointer to the branch whose payment config actually applies.
type DelegationResolver struct {
	branches BranchRepository
	logger   *zap.Logger
}

func NewDelegationResolver(branches BranchRepository, logger *zap.Logger) *DelegationResolver {
	return &DelegationResolver{branches: branches, logger: logger}
}

// ResolveEffectiveBranch returns the branch at the end of branchID's
// delegation chain. A branch without a pointer (or unknown to the store) is
// its own effective branch. Revisiting a branch or following more than
// MaxDelegationHops pointers yields ErrCycleDetected.
func (r *DelegationResolver) ResolveEffectiveBranch(ctx context.Context, branchID string) (string, error) {
	visited := map[string]struct{}{branchID: {}}
	return r.walk(ctx, branchID, branchID, visited, 0)
}

// ValidateDelegationEdge checks that pointing ownerBranchID at targetBranchID
// would leave every chain starting at the owner acyclic and bounded. Nothing
// is written.
func (r *DelegationResolver) ValidateDelegationEdge(ctx context.Context, ownerBranchID, targetBranchID string) error {
	if ownerBranchID == targetBranchID {
		return domain.ErrCycleDetected
	}
	visited := map[string]struct{}{ownerBranchID: {}, targetBranchID: {}}
	_, err := r.walk(ctx, ownerBranchID, targetBranchID, visited, 1)
	return err
}

func (r *DelegationResolver) walk(ctx context.Context, origin, current string, visited map[string]struct{}, hops int) (string, error) {
	for {
		next, err := r.branches.GetDelegateSource(ctx, current)
		if err != nil {
			return "", fmt.Errorf("read delegation of branch %s: %w", current, err)
		}
		if next == nil || *next == "" {
			return current, nil
		}

		if _, seen := visited[*next]; seen {
			r.logger.Error("cycle detected in branch payment delegation",
				zap.String("start_branch_id", origin),
				zap.String("revisited_branch_id", *next),
				zap.Int("hops", hops))
			metrics.DelegationCycles.Inc()
			return "", domain.ErrCycleDetected
		}

		hops++
		if hops > domain.MaxDelegationHops {
			r.logger.Error("max hops exceeded in branch payment delegation",
				zap.String("start_branch_id", origin),
				zap.Int("max_hops", domain.MaxDelegationHops))
			metrics.DelegationCycles.Inc()
			return "", domain.ErrCycleDetected
		}

		visited[*next] = struct{}{}
		current = *next
	}
}
