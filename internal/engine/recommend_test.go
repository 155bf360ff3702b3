package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsight/denials-cli/internal/model"
)

func trendWith(attrs []model.CauseAttribution, g model.AggregateGroup) model.DenialTrend {
	return model.DenialTrend{Rank: 1, Severity: 1, Group: g, Attributions: attrs}
}

func TestRecommend_OnePerAttribution(t *testing.T) {
	g := evidenceGroup(6, model.GroupEvidence{
		PayerCounts: map[string]int{"AETNA": 6},
	})
	attrs := []model.CauseAttribution{
		{Dimension: "cpt", TrendKey: "99213", Category: model.CauseFilingWindowExceeded, Confidence: 0.9},
		{Dimension: "cpt", TrendKey: "99213", Category: model.CauseModifierIssue, Confidence: 0.75},
	}

	recs := Recommend(trendWith(attrs, g), testWindows())
	require.Len(t, recs, 2)
	assert.Equal(t, model.CauseFilingWindowExceeded, recs[0].Category)
	assert.Equal(t, model.CauseModifierIssue, recs[1].Category)
	assert.Equal(t, 0.9, recs[0].Confidence)
}

func TestRecommend_FilingWindowNamesPayerWindow(t *testing.T) {
	g := evidenceGroup(6, model.GroupEvidence{
		PayerCounts: map[string]int{"AETNA": 6},
	})
	attrs := []model.CauseAttribution{
		{Category: model.CauseFilingWindowExceeded, Confidence: 0.9},
	}

	recs := Recommend(trendWith(attrs, g), testWindows())
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Action, "30-day filing window", "dominant payer AETNA has a 30-day override")
	assert.Contains(t, recs[0].Action, "99213")
}

func TestRecommend_UnclassifiedManualReview(t *testing.T) {
	g := evidenceGroup(2, model.GroupEvidence{})
	attrs := []model.CauseAttribution{
		{Category: model.CauseUnclassified, Confidence: 0},
	}

	recs := Recommend(trendWith(attrs, g), testWindows())
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Action, "Requires manual review")
	assert.Equal(t, model.ImpactLow, recs[0].Impact)
}

func TestRecommend_EveryCategoryHasText(t *testing.T) {
	g := evidenceGroup(6, model.GroupEvidence{
		PayerCounts: map[string]int{"AETNA": 6},
	})
	for _, cat := range model.AllCauseCategories {
		text := actionText(cat, g, testWindows())
		assert.NotEmpty(t, text, "category %s", cat)
	}
}

func TestRecommend_DollarFiguresGrouped(t *testing.T) {
	g := evidenceGroup(6, model.GroupEvidence{})
	g.TotalDenied = decimal.NewFromInt(1234567)
	text := actionText(model.CauseModifierIssue, g, testWindows())
	assert.Contains(t, text, "$1,234,567.00")
}

func TestImpactFor(t *testing.T) {
	smallDollars := model.AggregateGroup{TotalDenied: decimal.NewFromInt(500)}
	midDollars := model.AggregateGroup{TotalDenied: decimal.NewFromInt(5000)}
	bigDollars := model.AggregateGroup{TotalDenied: decimal.NewFromInt(50000)}

	cases := []struct {
		name string
		attr model.CauseAttribution
		g    model.AggregateGroup
		want model.ImpactClass
	}{
		{"high confidence", model.CauseAttribution{Category: model.CauseModifierIssue, Confidence: 0.9}, smallDollars, model.ImpactHigh},
		{"high dollars", model.CauseAttribution{Category: model.CauseModifierIssue, Confidence: 0.3}, bigDollars, model.ImpactHigh},
		{"medium confidence", model.CauseAttribution{Category: model.CauseModifierIssue, Confidence: 0.6}, smallDollars, model.ImpactMedium},
		{"medium dollars", model.CauseAttribution{Category: model.CauseModifierIssue, Confidence: 0.3}, midDollars, model.ImpactMedium},
		{"low", model.CauseAttribution{Category: model.CauseModifierIssue, Confidence: 0.3}, smallDollars, model.ImpactLow},
		{"unclassified always low", model.CauseAttribution{Category: model.CauseUnclassified, Confidence: 0.9}, bigDollars, model.ImpactLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, impactFor(tc.attr, tc.g))
		})
	}
}
