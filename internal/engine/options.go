package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/claimsight/denials-cli/internal/config"
	"github.com/claimsight/denials-cli/internal/model"
)

// weightTolerance absorbs float representation error when checking that the
// three severity weights sum to 1.
const weightTolerance = 1e-6

// ConfigError reports a whole-run misconfiguration. It always identifies
// the offending field and value; it is returned before any record is
// processed.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: invalid config %s=%v: %s", e.Field, e.Value, e.Reason)
}

// PayerWindows resolves timely-filing windows per payer id.
type PayerWindows struct {
	DefaultDays int
	ByPayer     map[string]int // upper-cased payer id -> days
}

// Days returns the filing window for a payer, falling back to the default.
func (w PayerWindows) Days(payerID string) int {
	if d, ok := w.ByPayer[strings.ToUpper(strings.TrimSpace(payerID))]; ok && d > 0 {
		return d
	}
	if w.DefaultDays > 0 {
		return w.DefaultDays
	}
	return 90
}

// Options holds the effective parameters of one analysis run.
type Options struct {
	Dimensions       []model.Dimension
	TopK             int
	MinVolume        int
	WeightDenialRate float64
	WeightCount      float64
	WeightAmount     float64
	Catalog          *RuleCatalog
	PayerWindows     PayerWindows
}

// OptionsFromConfig translates the loaded configuration into engine
// options, loading the rule catalog override when one is configured.
func OptionsFromConfig(eng config.EngineConfig, payers config.PayerConfig) (Options, error) {
	dims := make([]model.Dimension, 0, len(eng.Dimensions))
	for _, d := range eng.Dimensions {
		dims = append(dims, model.Dimension(strings.ToLower(strings.TrimSpace(d))))
	}

	catalog := DefaultCatalog()
	if eng.RulesPath != "" {
		loaded, err := LoadCatalog(eng.RulesPath)
		if err != nil {
			return Options{}, err
		}
		catalog = loaded
	}
	if eng.RuleSetVersion != "" && eng.RulesPath == "" {
		catalog.Version = eng.RuleSetVersion
	}

	byPayer := make(map[string]int, len(payers.FilingWindowDays))
	for id, days := range payers.FilingWindowDays {
		byPayer[strings.ToUpper(strings.TrimSpace(id))] = days
	}

	return Options{
		Dimensions:       dims,
		TopK:             eng.TopK,
		MinVolume:        eng.MinVolume,
		WeightDenialRate: eng.WeightDenialRate,
		WeightCount:      eng.WeightCount,
		WeightAmount:     eng.WeightAmount,
		Catalog:          catalog,
		PayerWindows: PayerWindows{
			DefaultDays: payers.DefaultFilingWindowDays,
			ByPayer:     byPayer,
		},
	}, nil
}

// Validate checks the options and returns a *ConfigError describing the
// first problem found. It runs before any record processing.
func (o Options) Validate() error {
	if len(o.Dimensions) == 0 {
		return &ConfigError{Field: "dimensions", Value: o.Dimensions, Reason: "at least one dimension is required"}
	}
	seen := make(map[model.Dimension]bool, len(o.Dimensions))
	for _, d := range o.Dimensions {
		if !d.Valid() {
			return &ConfigError{Field: "dimensions", Value: string(d), Reason: "unknown dimension (want cpt, payer, or provider)"}
		}
		if seen[d] {
			return &ConfigError{Field: "dimensions", Value: string(d), Reason: "duplicate dimension"}
		}
		seen[d] = true
	}

	if o.TopK <= 0 {
		return &ConfigError{Field: "top_k", Value: o.TopK, Reason: "must be positive"}
	}
	if o.MinVolume < 0 {
		return &ConfigError{Field: "min_volume", Value: o.MinVolume, Reason: "must not be negative"}
	}

	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weight_denial_rate", o.WeightDenialRate},
		{"weight_count", o.WeightCount},
		{"weight_amount", o.WeightAmount},
	} {
		if w.value < 0 || math.IsNaN(w.value) {
			return &ConfigError{Field: w.name, Value: w.value, Reason: "must be a non-negative number"}
		}
	}
	sum := o.WeightDenialRate + o.WeightCount + o.WeightAmount
	if math.Abs(sum-1) > weightTolerance {
		return &ConfigError{Field: "weights", Value: sum, Reason: "weight_denial_rate + weight_count + weight_amount must sum to 1"}
	}

	if o.Catalog != nil {
		if err := o.Catalog.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Params echoes the options into the serializable result form.
func (o Options) Params() model.AnalysisParams {
	dims := make([]string, len(o.Dimensions))
	for i, d := range o.Dimensions {
		dims[i] = string(d)
	}
	version := ""
	if o.Catalog != nil {
		version = o.Catalog.Version
	}
	return model.AnalysisParams{
		Dimensions:       dims,
		TopK:             o.TopK,
		MinVolume:        o.MinVolume,
		WeightDenialRate: o.WeightDenialRate,
		WeightCount:      o.WeightCount,
		WeightAmount:     o.WeightAmount,
		RuleSetVersion:   version,
	}
}
