package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsight/denials-cli/internal/model"
)

// filingScenario builds 10 claims for one CPT code where 6 are denied for
// timely filing and submitted past a 30-day window.
func filingScenario() []model.RawClaim {
	var records []model.RawClaim
	for i := 0; i < 6; i++ {
		records = append(records, model.RawClaim{
			ClaimID:        fmt.Sprintf("D-%d", i),
			CPTCode:        "99213",
			PayerID:        "AETNA",
			ProviderID:     "P-1",
			BilledAmount:   "200.00",
			DenialFlag:     "true",
			DenialReason:   "CO-29 TIMELY FILING",
			ServiceDate:    "2026-01-01",
			SubmissionDate: "2026-02-15", // 45 days, past the 30-day window
		})
	}
	for i := 0; i < 4; i++ {
		records = append(records, model.RawClaim{
			ClaimID:      fmt.Sprintf("P-%d", i),
			CPTCode:      "99213",
			PayerID:      "AETNA",
			ProviderID:   "P-1",
			BilledAmount: "200.00",
			PaidAmount:   "200.00",
			DenialFlag:   "false",
			ServiceDate:  "2026-01-01",
		})
	}
	return records
}

func TestAnalyze_FilingScenario(t *testing.T) {
	result, err := Analyze(context.Background(), filingScenario(), testOptions())
	require.NoError(t, err)

	require.Len(t, result.Dimensions, 1)
	dr := result.Dimensions[0]
	assert.Equal(t, "cpt", dr.Dimension)
	require.Len(t, dr.Trends, 1)

	trend := dr.Trends[0]
	assert.Equal(t, 1, trend.Rank)
	assert.Equal(t, "99213", trend.Group.Key)
	assert.InDelta(t, 0.6, trend.Group.DenialRate, 1e-9)

	require.NotEmpty(t, trend.Attributions)
	top := trend.Attributions[0]
	assert.Equal(t, model.CauseFilingWindowExceeded, top.Category)
	assert.Equal(t, 0.9, top.Confidence)

	require.NotEmpty(t, trend.Recommendations)
	assert.Contains(t, trend.Recommendations[0].Action, "30-day filing window")
}

func TestAnalyze_EmptyInputSucceeds(t *testing.T) {
	result, err := Analyze(context.Background(), nil, testOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Rejections.TotalRecords)
	require.NotEmpty(t, result.Rejections.Notes)
	assert.Contains(t, result.Rejections.Notes[0], "no valid records")

	require.Len(t, result.Dimensions, 1)
	assert.NotNil(t, result.Dimensions[0].Trends)
	assert.Empty(t, result.Dimensions[0].Trends)
	assert.Empty(t, result.Dimensions[0].FullRanking)
}

func TestAnalyze_BadWeightsFailBeforeProcessing(t *testing.T) {
	opts := testOptions()
	opts.WeightDenialRate = 0.9
	opts.WeightCount = 0.9
	opts.WeightAmount = 0.9

	_, err := Analyze(context.Background(), filingScenario(), opts)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "weights", cfgErr.Field)
}

func TestAnalyze_WeightToleranceAccepted(t *testing.T) {
	opts := testOptions()
	opts.WeightDenialRate = 0.3333333
	opts.WeightCount = 0.3333333
	opts.WeightAmount = 0.3333334

	_, err := Analyze(context.Background(), filingScenario(), opts)
	assert.NoError(t, err)
}

func TestAnalyze_ByteIdenticalWithFixedClock(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := filingScenario()

	run := func() []byte {
		eng, err := New(testOptions())
		require.NoError(t, err)
		result, err := eng.WithClock(func() time.Time { return fixed }).
			Analyze(context.Background(), records)
		require.NoError(t, err)
		b, err := json.Marshal(result)
		require.NoError(t, err)
		return b
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, string(first), string(run()))
	}
}

func TestAnalyze_MultipleDimensions(t *testing.T) {
	opts := testOptions()
	opts.Dimensions = []model.Dimension{model.DimensionCPT, model.DimensionPayer, model.DimensionProvider}

	result, err := Analyze(context.Background(), filingScenario(), opts)
	require.NoError(t, err)
	require.Len(t, result.Dimensions, 3)
	assert.Equal(t, "cpt", result.Dimensions[0].Dimension)
	assert.Equal(t, "payer", result.Dimensions[1].Dimension)
	assert.Equal(t, "provider", result.Dimensions[2].Dimension)
}

func TestAnalyze_ParamsEchoed(t *testing.T) {
	result, err := Analyze(context.Background(), filingScenario(), testOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"cpt"}, result.Params.Dimensions)
	assert.Equal(t, 10, result.Params.TopK)
	assert.Equal(t, 5, result.Params.MinVolume)
	assert.Equal(t, "rules-v1", result.RuleSetVersion)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, filingScenario(), testOptions())
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		field  string
	}{
		{"no dimensions", func(o *Options) { o.Dimensions = nil }, "dimensions"},
		{"unknown dimension", func(o *Options) { o.Dimensions = []model.Dimension{"zip"} }, "dimensions"},
		{"duplicate dimension", func(o *Options) {
			o.Dimensions = []model.Dimension{model.DimensionCPT, model.DimensionCPT}
		}, "dimensions"},
		{"zero top-k", func(o *Options) { o.TopK = 0 }, "top_k"},
		{"negative min volume", func(o *Options) { o.MinVolume = -1 }, "min_volume"},
		{"negative weight", func(o *Options) { o.WeightCount = -0.1 }, "weight_count"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestPayerWindows_Days(t *testing.T) {
	w := testWindows()
	assert.Equal(t, 30, w.Days("AETNA"))
	assert.Equal(t, 30, w.Days(" aetna "))
	assert.Equal(t, 90, w.Days("CIGNA"))
	assert.Equal(t, 90, PayerWindows{}.Days("ANY"))
}
