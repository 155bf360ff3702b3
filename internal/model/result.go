package model

import "time"

// AnalysisParams echoes the effective engine configuration into the result
// so consumers can tell which knobs produced a given ranking.
type AnalysisParams struct {
	Dimensions       []string `json:"dimensions"`
	TopK             int      `json:"top_k"`
	MinVolume        int      `json:"min_volume"`
	WeightDenialRate float64  `json:"weight_denial_rate"`
	WeightCount      float64  `json:"weight_count"`
	WeightAmount     float64  `json:"weight_amount"`
	RuleSetVersion   string   `json:"rule_set_version"`
}

// DimensionResult holds the ranked output for one requested dimension.
type DimensionResult struct {
	Dimension         string        `json:"dimension"`
	Trends            []DenialTrend `json:"trends"`
	FullRanking       []RankedGroup `json:"full_ranking"`
	GroupCount        int           `json:"group_count"`
	ExcludedLowVolume int           `json:"excluded_low_volume"`
}

// AnalysisResult is the structured object the presentation layer consumes.
// It reads, never mutates, this result.
type AnalysisResult struct {
	RunID          string            `json:"run_id,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
	RuleSetVersion string            `json:"rule_set_version"`
	Params         AnalysisParams    `json:"params"`
	Rejections     RejectionLog      `json:"rejections"`
	Dimensions     []DimensionResult `json:"dimensions"`
}
