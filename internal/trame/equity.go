package trame

import (
	"context"
	"math"
	"time"
)

// EquityScorer reports how evenly duty assignments are distributed across the
// staff of a site. The score is only used to report relative improvement, it
// is never enforced as a hard constraint.
type EquityScorer struct {
	gw Gateway
}

func NewEquityScorer(gw Gateway) *EquityScorer {
	return &EquityScorer{gw: gw}
}

// ComputeScore returns a 0..100 score inversely proportional to the
// coefficient of variation of per-staff assignment counts.
func (s *EquityScorer) ComputeScore(ctx context.Context, siteID string, start, end time.Time) (int, error) {
	countsByStaff, err := s.gw.AssignmentCountsByStaff(ctx, siteID, start, end)
	if err != nil {
		return 0, err
	}

	counts := make([]int, 0, len(countsByStaff))
	for _, c := range countsByStaff {
		counts = append(counts, c)
	}

	return ScoreFromCounts(counts), nil
}

// ScoreFromCounts computes max(0, 100 - (stddev/mean)*100), rounded. Zero or
// one staff member is vacuous equality and scores 100, which also avoids the
// divide by zero.
func ScoreFromCounts(counts []int) int {
	if len(counts) <= 1 {
		return 100
	}

	mean := 0.0
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(len(counts))

	if mean == 0 {
		return 100
	}

	variance := 0.0
	for _, c := range counts {
		variance += math.Pow(float64(c)-mean, 2)
	}
	variance /= float64(len(counts))
	stdDev := math.Sqrt(variance)

	score := 100 - (stdDev/mean)*100
	if score < 0 {
		score = 0
	}

	return int(math.Round(score))
}
