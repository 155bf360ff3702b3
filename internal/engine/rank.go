package engine

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/claimsight/denials-cli/internal/model"
)

// Rank orders aggregate groups by composite severity and returns the top-K
// trends plus the full ranked list for audit, along with how many groups
// the minimum-volume floor excluded.
//
// Severity is a weighted combination of denial rate, denied count, and
// denied dollars, each min-max normalized within the candidate set. The
// tie-break chain (denied dollars, denied count, key) guarantees a strict
// total order, so ranks are always a dense 1..N.
func Rank(groups []model.AggregateGroup, opts Options) (trends []model.DenialTrend, full []model.RankedGroup, excluded int) {
	candidates := make([]model.AggregateGroup, 0, len(groups))
	for _, g := range groups {
		if g.TotalCount < opts.MinVolume || g.InsufficientData {
			excluded++
			continue
		}
		candidates = append(candidates, g)
	}
	if len(candidates) == 0 {
		return nil, nil, excluded
	}

	rateN := minMaxNormalize(candidates, func(g model.AggregateGroup) float64 { return g.DenialRate })
	countN := minMaxNormalize(candidates, func(g model.AggregateGroup) float64 { return float64(g.DeniedCount) })
	amountN := minMaxNormalize(candidates, func(g model.AggregateGroup) float64 { return g.TotalDenied.InexactFloat64() })

	severities := make(map[string]float64, len(candidates))
	for i, g := range candidates {
		s := opts.WeightDenialRate*rateN[i] + opts.WeightCount*countN[i] + opts.WeightAmount*amountN[i]
		severities[g.Key] = math.Round(s*1e6) / 1e6
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if severities[a.Key] != severities[b.Key] {
			return severities[a.Key] > severities[b.Key]
		}
		if cmp := a.TotalDenied.Cmp(b.TotalDenied); cmp != 0 {
			return cmp > 0
		}
		if a.DeniedCount != b.DeniedCount {
			return a.DeniedCount > b.DeniedCount
		}
		return a.Key < b.Key
	})

	full = make([]model.RankedGroup, len(candidates))
	for i, g := range candidates {
		full[i] = model.RankedGroup{
			Rank:        i + 1,
			Key:         g.Key,
			Severity:    severities[g.Key],
			TotalCount:  g.TotalCount,
			DeniedCount: g.DeniedCount,
			DenialRate:  g.DenialRate,
			TotalDenied: g.TotalDenied,
		}
	}

	k := opts.TopK
	if k > len(candidates) {
		k = len(candidates)
	}
	trends = make([]model.DenialTrend, k)
	for i := 0; i < k; i++ {
		trends[i] = model.DenialTrend{
			Rank:     i + 1,
			Severity: severities[candidates[i].Key],
			Group:    candidates[i],
		}
	}

	zap.L().Debug("rank: dimension ranked",
		zap.Int("candidates", len(candidates)),
		zap.Int("excluded_low_volume", excluded),
		zap.Int("top_k", k),
	)
	return trends, full, excluded
}

// minMaxNormalize maps each group's metric into [0,1] within the candidate
// set. A degenerate spread (all values equal) normalizes to 1: every group
// sits at the shared maximum.
func minMaxNormalize(groups []model.AggregateGroup, metric func(model.AggregateGroup) float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		v := metric(g)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]float64, len(groups))
	spread := hi - lo
	for i, g := range groups {
		if spread == 0 {
			out[i] = 1
			continue
		}
		out[i] = (metric(g) - lo) / spread
	}
	return out
}
