package model

import "github.com/shopspring/decimal"

// DenialTrend is a ranked aggregate group annotated with its severity score
// and the attributions/recommendations derived from it.
type DenialTrend struct {
	Rank            int                `json:"rank"`
	Severity        float64            `json:"severity"`
	Group           AggregateGroup     `json:"group"`
	Attributions    []CauseAttribution `json:"attributions,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
}

// RankedGroup is one audit entry in the full ranked list.
type RankedGroup struct {
	Rank        int             `json:"rank"`
	Key         string          `json:"key"`
	Severity    float64         `json:"severity"`
	TotalCount  int             `json:"total_count"`
	DeniedCount int             `json:"denied_count"`
	DenialRate  float64         `json:"denial_rate"`
	TotalDenied decimal.Decimal `json:"total_denied"`
}
