package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/claimsight/denials-cli/internal/model"
)

// Aggregate groups normalized claims by the given dimension list (a single
// dimension or a composite) and computes per-group counts, rates, money
// totals, and the evidence statistics inference reads later.
//
// Accumulation is a running sum over unordered input: every counter update
// is associative and commutative, so identical input yields the identical
// group set regardless of record order. Output is sorted by key.
func Aggregate(records []model.ClaimRecord, dims []model.Dimension, windows PayerWindows) []model.AggregateGroup {
	label := model.DimensionLabel(dims)
	acc := make(map[string]*groupAccum)

	for i := range records {
		rec := &records[i]
		key := groupKey(rec, dims)
		g, ok := acc[key]
		if !ok {
			g = newGroupAccum()
			acc[key] = g
		}
		g.add(rec, windows)
	}

	out := make([]model.AggregateGroup, 0, len(acc))
	for key, g := range acc {
		out = append(out, g.finish(label, key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	zap.L().Debug("aggregate: dimension complete",
		zap.String("dimension", label),
		zap.Int("groups", len(out)),
		zap.Int("records", len(records)),
	)
	return out
}

func groupKey(rec *model.ClaimRecord, dims []model.Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		switch d {
		case model.DimensionCPT:
			parts[i] = rec.CPTCode
		case model.DimensionPayer:
			parts[i] = rec.PayerID
		case model.DimensionProvider:
			parts[i] = rec.ProviderID
		}
	}
	return strings.Join(parts, "|")
}

type groupAccum struct {
	total       int
	denied      int
	totalBilled decimal.Decimal
	totalDenied decimal.Decimal
	ev          model.GroupEvidence
}

func newGroupAccum() *groupAccum {
	return &groupAccum{
		totalBilled: decimal.Zero,
		totalDenied: decimal.Zero,
		ev: model.GroupEvidence{
			ReasonCounts:    make(map[string]int),
			ModifierCounts:  make(map[string]int),
			PayerCounts:     make(map[string]int),
			SpecialtyCounts: make(map[string]int),
		},
	}
}

func (g *groupAccum) add(rec *model.ClaimRecord, windows PayerWindows) {
	g.total++
	g.totalBilled = g.totalBilled.Add(rec.BilledAmount)

	if !rec.Denied {
		return
	}
	g.denied++
	// A partial payment above the billed amount must not pull the group's
	// denied dollars negative; the lost amount floors at zero per claim.
	if loss := rec.BilledAmount.Sub(rec.PaidAmount); loss.IsPositive() {
		g.totalDenied = g.totalDenied.Add(loss)
	}
	g.ev.PayerCounts[rec.PayerID]++

	if rec.DenialReason != "" {
		g.ev.ReasonCounts[rec.DenialReason]++
	}
	for _, m := range rec.Modifiers {
		g.ev.ModifierCounts[m]++
	}
	if rec.ProviderSpecialty != "" {
		g.ev.SpecialtyCounts[rec.ProviderSpecialty]++
	}
	if mismatch, known := specialtyMismatch(rec.ProviderSpecialty, rec.CPTCode); known {
		g.ev.SpecialtyKnown++
		if mismatch {
			g.ev.MismatchCount++
		}
	}
	if lag, ok := rec.SubmissionLagDays(); ok {
		g.ev.LagKnownCount++
		g.ev.TotalLagDays += lag
		if lag > windows.Days(rec.PayerID) {
			g.ev.LateFilingCount++
		}
	}
}

// finish snapshots the accumulator. An accumulator always holds at least
// one record, so the denial rate is well defined here; the
// InsufficientData flag exists for groups built elsewhere and is honored
// by Rank.
func (g *groupAccum) finish(dimension, key string) model.AggregateGroup {
	return model.AggregateGroup{
		Dimension:   dimension,
		Key:         key,
		TotalCount:  g.total,
		DeniedCount: g.denied,
		DenialRate:  float64(g.denied) / float64(g.total),
		TotalBilled: g.totalBilled,
		TotalDenied: g.totalDenied,
		Evidence:    g.ev,
	}
}
