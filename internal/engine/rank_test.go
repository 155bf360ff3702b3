package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsight/denials-cli/internal/model"
)

func testOptions() Options {
	return Options{
		Dimensions:       []model.Dimension{model.DimensionCPT},
		TopK:             10,
		MinVolume:        5,
		WeightDenialRate: 1.0 / 3,
		WeightCount:      1.0 / 3,
		WeightAmount:     1.0 / 3,
		Catalog:          DefaultCatalog(),
		PayerWindows:     testWindows(),
	}
}

func group(key string, total, denied int, dollars int64) model.AggregateGroup {
	return model.AggregateGroup{
		Dimension:   "cpt",
		Key:         key,
		TotalCount:  total,
		DeniedCount: denied,
		DenialRate:  float64(denied) / float64(total),
		TotalBilled: decimal.NewFromInt(dollars * 2),
		TotalDenied: decimal.NewFromInt(dollars),
	}
}

func TestRank_OrdersBySeverity(t *testing.T) {
	groups := []model.AggregateGroup{
		group("A", 100, 10, 1000), // low on all metrics
		group("B", 100, 80, 50000),
		group("C", 100, 40, 8000),
	}

	trends, full, excluded := Rank(groups, testOptions())
	assert.Equal(t, 0, excluded)
	require.Len(t, trends, 3)
	require.Len(t, full, 3)

	assert.Equal(t, "B", trends[0].Group.Key)
	assert.Equal(t, "C", trends[1].Group.Key)
	assert.Equal(t, "A", trends[2].Group.Key)

	for i, rg := range full {
		assert.Equal(t, i+1, rg.Rank, "ranks are dense 1..N")
	}
	assert.InDelta(t, 1.0, full[0].Severity, 1e-9, "max on every metric normalizes to 1")
	assert.InDelta(t, 0.0, full[2].Severity, 1e-9, "min on every metric normalizes to 0")
}

func TestRank_MinVolumeExcludes(t *testing.T) {
	groups := []model.AggregateGroup{
		group("BIG", 100, 50, 5000),
		group("TINY", 3, 3, 99999), // all denied but below the volume floor
	}

	trends, full, excluded := Rank(groups, testOptions())
	assert.Equal(t, 1, excluded)
	require.Len(t, trends, 1)
	assert.Equal(t, "BIG", trends[0].Group.Key)
	assert.Len(t, full, 1)
}

func TestRank_InsufficientDataExcluded(t *testing.T) {
	g := group("EMPTY", 10, 0, 0)
	g.InsufficientData = true
	_, _, excluded := Rank([]model.AggregateGroup{g}, testOptions())
	assert.Equal(t, 1, excluded)
}

func TestRank_TieBreaksAreDeterministic(t *testing.T) {
	// Identical metrics: severity ties, dollars tie, counts tie, so the
	// key decides.
	groups := []model.AggregateGroup{
		group("ZZZ", 10, 5, 1000),
		group("AAA", 10, 5, 1000),
	}

	trends, _, _ := Rank(groups, testOptions())
	require.Len(t, trends, 2)
	assert.Equal(t, "AAA", trends[0].Group.Key)
	assert.Equal(t, "ZZZ", trends[1].Group.Key)
	assert.Equal(t, 1, trends[0].Rank)
	assert.Equal(t, 2, trends[1].Rank)
}

func TestRank_DegenerateSpreadNormalizesToOne(t *testing.T) {
	groups := []model.AggregateGroup{
		group("A", 10, 5, 1000),
		group("B", 10, 5, 1000),
	}
	_, full, _ := Rank(groups, testOptions())
	require.Len(t, full, 2)
	for _, rg := range full {
		assert.InDelta(t, 1.0, rg.Severity, 1e-9)
	}
}

func TestRank_TopKCapsTrendsNotAudit(t *testing.T) {
	var groups []model.AggregateGroup
	for i := 0; i < 20; i++ {
		groups = append(groups, group(string(rune('A'+i)), 100, i+10, int64(i*500)))
	}

	opts := testOptions()
	opts.TopK = 5
	trends, full, _ := Rank(groups, opts)
	assert.Len(t, trends, 5)
	assert.Len(t, full, 20, "full ranking keeps every candidate")
}

func TestRank_NoCandidates(t *testing.T) {
	trends, full, excluded := Rank(nil, testOptions())
	assert.Nil(t, trends)
	assert.Nil(t, full)
	assert.Equal(t, 0, excluded)
}
