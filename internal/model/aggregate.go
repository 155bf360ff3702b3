package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension identifies one grouping axis for aggregation.
type Dimension string

const (
	DimensionCPT      Dimension = "cpt"
	DimensionPayer    Dimension = "payer"
	DimensionProvider Dimension = "provider"
)

// KnownDimensions lists every dimension the aggregator accepts.
var KnownDimensions = []Dimension{DimensionCPT, DimensionPayer, DimensionProvider}

// Valid reports whether d is a recognized dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionCPT, DimensionPayer, DimensionProvider:
		return true
	}
	return false
}

// DimensionLabel renders a dimension list as a composite label ("cpt",
// "cpt|payer").
func DimensionLabel(dims []Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = string(d)
	}
	return strings.Join(parts, "|")
}

// GroupEvidence holds the per-group statistics the inference engine reads.
// Computed during aggregation so raw claim records can be released
// afterwards; all counters are over the group's denied claims.
type GroupEvidence struct {
	ReasonCounts    map[string]int // denial reason code -> denied claims
	ModifierCounts  map[string]int // modifier code -> denied claims carrying it
	PayerCounts     map[string]int // payer id -> denied claims
	SpecialtyCounts map[string]int // provider specialty -> denied claims
	MismatchCount   int            // denied claims whose specialty conflicts with the CPT category
	SpecialtyKnown  int            // denied claims with a known specialty and CPT category
	LateFilingCount int            // denied claims submitted past the payer filing window
	LagKnownCount   int            // denied claims with both dates known
	TotalLagDays    int            // sum of submission lags over LagKnownCount claims
}

// AvgLagDays returns the mean submission lag across denied claims with
// known dates, 0 when none.
func (e GroupEvidence) AvgLagDays() float64 {
	if e.LagKnownCount == 0 {
		return 0
	}
	return float64(e.TotalLagDays) / float64(e.LagKnownCount)
}

// AggregateGroup is one dimension-key bucket. Immutable after the
// aggregation pass that produced it.
type AggregateGroup struct {
	Dimension        string          `json:"dimension"`
	Key              string          `json:"key"`
	TotalCount       int             `json:"total_count"`
	DeniedCount      int             `json:"denied_count"`
	DenialRate       float64         `json:"denial_rate"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalDenied      decimal.Decimal `json:"total_denied"`
	InsufficientData bool            `json:"insufficient_data,omitempty"`

	// Evidence feeds root-cause inference only; it carries map-shaped
	// counters and is deliberately excluded from serialized results.
	Evidence GroupEvidence `json:"-"`
}
