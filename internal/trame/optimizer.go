package trame

import (
	"context"
	"time"
)

// DistributionOptimizer is the extension point for the equity-improvement
// pass. Implementations rebalance duty assignments between staff members and
// must use optimistic concurrency (Gateway.UpdateDutyAssignment checks record
// versions) so concurrent regeneration never loses updates.
//
// No strategy is prescribed here; the default does nothing and the
// orchestrator only reports the before/after score delta.
type DistributionOptimizer interface {
	Improve(ctx context.Context, siteID string, start, end time.Time) (improved bool, err error)
}

type noopOptimizer struct{}

func (noopOptimizer) Improve(context.Context, string, time.Time, time.Time) (bool, error) {
	return false, nil
}

// NoopOptimizer returns the default optimizer, which leaves the distribution
// untouched.
func NoopOptimizer() DistributionOptimizer {
	return noopOptimizer{}
}
