package engine

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/claimsight/denials-cli/internal/model"
)

// Rule is one root-cause test. Rules are data: the condition is selected by
// Kind, and thresholds/confidences/keywords are plain fields, so each rule
// can be unit-tested and overridden without touching code.
type Rule struct {
	ID          string              `yaml:"id"`
	Kind        string              `yaml:"kind"`
	Category    model.CauseCategory `yaml:"category,omitempty"`
	Confidence  float64             `yaml:"confidence"`
	Threshold   float64             `yaml:"threshold"`
	Keywords    []string            `yaml:"keywords,omitempty"`
	Description string              `yaml:"description"`
	Disabled    bool                `yaml:"disabled,omitempty"`
}

// Rule kinds. Each names a condition implemented in infer.go.
const (
	// KindFilingReason fires when filing-related reason codes cover at
	// least Threshold of the group's denials.
	KindFilingReason = "filing_reason"
	// KindFilingLag fires when at least Threshold of denials with known
	// dates were submitted past the payer's filing window.
	KindFilingLag = "filing_lag"
	// KindReasonConcentration fires when a single reason code covers more
	// than Threshold of denials; the cause is derived from that code.
	KindReasonConcentration = "reason_concentration"
	// KindModifierCooccurrence fires when one modifier co-occurs with more
	// than Threshold of the group's denials.
	KindModifierCooccurrence = "modifier_cooccurrence"
	// KindSpecialtyMismatch fires when at least Threshold of judgeable
	// denials pair a provider specialty with an out-of-scope CPT section.
	KindSpecialtyMismatch = "specialty_mismatch"
	// KindReasonFamily fires when reason codes containing any keyword
	// cover at least Threshold of denials.
	KindReasonFamily = "reason_family"
	// KindHighRate fires when the group's denial rate reaches Threshold.
	KindHighRate = "high_rate"
)

var knownKinds = map[string]bool{
	KindFilingReason:         true,
	KindFilingLag:            true,
	KindReasonConcentration:  true,
	KindModifierCooccurrence: true,
	KindSpecialtyMismatch:    true,
	KindReasonFamily:         true,
	KindHighRate:             true,
}

// RuleCatalog is the versioned, ordered rule set. Order encodes
// specificity; evaluation is independent per rule.
type RuleCatalog struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// DefaultCatalog returns the built-in rule set. Keyword families follow the
// standard CARC groupings used by billing teams; thresholds are the
// documented defaults and are replaceable via a catalog file.
func DefaultCatalog() *RuleCatalog {
	return &RuleCatalog{
		Version: "rules-v1",
		Rules: []Rule{
			{
				ID:          "filing-reason-share",
				Kind:        KindFilingReason,
				Category:    model.CauseFilingWindowExceeded,
				Confidence:  0.9,
				Threshold:   0.6,
				Keywords:    []string{"FILING", "TIMELY", "CO-29", "29"},
				Description: "filing-related reason codes dominate the group's denials",
			},
			{
				ID:          "reason-concentration",
				Kind:        KindReasonConcentration,
				Confidence:  0.8,
				Threshold:   0.6,
				Description: "a single denial reason code covers most denials; cause derived from that code",
			},
			{
				ID:          "modifier-cooccurrence",
				Kind:        KindModifierCooccurrence,
				Category:    model.CauseModifierIssue,
				Confidence:  0.75,
				Threshold:   0.5,
				Description: "one modifier code co-occurs with most denials",
			},
			{
				ID:          "family-modifier",
				Kind:        KindReasonFamily,
				Category:    model.CauseModifierIssue,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"MODIFIER", "CO-4", "M78"},
				Description: "modifier-related reason codes",
			},
			{
				ID:          "family-prior-auth",
				Kind:        KindReasonFamily,
				Category:    model.CausePriorAuthMissing,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"PRIOR AUTH", "AUTH", "CO-197", "197"},
				Description: "prior-authorization reason codes",
			},
			{
				ID:          "family-documentation",
				Kind:        KindReasonFamily,
				Category:    model.CauseDocumentationInsufficient,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"DOCUMENTATION", "RECORD", "CO-16", "16"},
				Description: "documentation/records reason codes",
			},
			{
				ID:          "family-medical-necessity",
				Kind:        KindReasonFamily,
				Category:    model.CauseMedicalNecessityMismatch,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"LCD", "NCD", "MEDICAL NECESSITY", "CO-50", "50"},
				Description: "LCD/NCD or medical-necessity reason codes",
			},
			{
				ID:          "family-bundling",
				Kind:        KindReasonFamily,
				Category:    model.CauseBundlingEdit,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"BUNDL", "NCCI", "CO-97", "97"},
				Description: "NCCI bundling reason codes",
			},
			{
				ID:          "family-non-covered",
				Kind:        KindReasonFamily,
				Category:    model.CauseNonCoveredService,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"NON-COVERED", "NOT COVERED", "CO-96", "96"},
				Description: "non-covered-service reason codes",
			},
			{
				ID:          "family-fee-schedule",
				Kind:        KindReasonFamily,
				Category:    model.CauseFeeScheduleExceeded,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"FEE SCHEDULE", "CHARGE EXCEEDS", "CO-45", "45"},
				Description: "charge-exceeds-fee-schedule reason codes",
			},
			{
				ID:          "family-credentialing",
				Kind:        KindReasonFamily,
				Category:    model.CauseCredentialingIssue,
				Confidence:  0.7,
				Threshold:   0.4,
				Keywords:    []string{"CREDENTIAL", "ENROLLMENT", "ELIGIB"},
				Description: "credentialing/enrollment/eligibility reason codes",
			},
			{
				ID:          "filing-lag",
				Kind:        KindFilingLag,
				Category:    model.CauseFilingWindowExceeded,
				Confidence:  0.7,
				Threshold:   0.5,
				Description: "submission-to-service lag exceeds the payer filing window",
			},
			{
				ID:          "specialty-mismatch",
				Kind:        KindSpecialtyMismatch,
				Category:    model.CauseSpecialtyMismatch,
				Confidence:  0.65,
				Threshold:   0.4,
				Description: "provider specialty inconsistent with the billed CPT section",
			},
			{
				ID:          "systemic-rate",
				Kind:        KindHighRate,
				Category:    model.CauseSystemicDenialPattern,
				Confidence:  0.5,
				Threshold:   0.8,
				Description: "near-total denial rate suggests a payer- or setup-level problem",
			},
		},
	}
}

// LoadCatalog reads a rule catalog from a YAML file. The file replaces the
// default catalog wholesale; unknown kinds or malformed entries fail load.
func LoadCatalog(path string) (*RuleCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read catalog %s", path)
	}
	var catalog RuleCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, eris.Wrapf(err, "rules: parse catalog %s", path)
	}
	if err := catalog.Validate(); err != nil {
		return nil, eris.Wrapf(err, "rules: invalid catalog %s", path)
	}
	return &catalog, nil
}

// Validate checks the catalog for structural problems. Returned errors are
// *ConfigError since a broken catalog is a whole-run misconfiguration.
func (c *RuleCatalog) Validate() error {
	if c.Version == "" {
		return &ConfigError{Field: "rules.version", Value: "", Reason: "catalog version is required"}
	}
	if len(c.Rules) == 0 {
		return &ConfigError{Field: "rules", Value: 0, Reason: "catalog has no rules"}
	}
	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.ID == "" {
			return &ConfigError{Field: "rules.id", Value: "", Reason: "rule id is required"}
		}
		if seen[r.ID] {
			return &ConfigError{Field: "rules.id", Value: r.ID, Reason: "duplicate rule id"}
		}
		seen[r.ID] = true
		if !knownKinds[r.Kind] {
			return &ConfigError{Field: "rules.kind", Value: r.Kind, Reason: "unknown rule kind"}
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return &ConfigError{Field: "rules.confidence", Value: r.Confidence, Reason: "must be within [0,1]"}
		}
		if r.Threshold < 0 || r.Threshold > 1 {
			return &ConfigError{Field: "rules.threshold", Value: r.Threshold, Reason: "must be within [0,1]"}
		}
		if r.Kind != KindReasonConcentration && !r.Category.Valid() {
			return &ConfigError{Field: "rules.category", Value: string(r.Category), Reason: "unknown cause category"}
		}
		if r.Kind == KindReasonFamily && len(r.Keywords) == 0 {
			return &ConfigError{Field: "rules.keywords", Value: r.ID, Reason: "reason_family rules require keywords"}
		}
	}
	return nil
}

// reasonCategories maps denial reason keyword families to tagged causes;
// used by reason-concentration to derive a category from the dominant code.
var reasonCategories = []struct {
	category model.CauseCategory
	keywords []string
}{
	{model.CauseFilingWindowExceeded, []string{"FILING", "TIMELY", "CO-29"}},
	{model.CauseModifierIssue, []string{"MODIFIER", "CO-4", "M78"}},
	{model.CausePriorAuthMissing, []string{"PRIOR AUTH", "AUTH", "CO-197"}},
	{model.CauseDocumentationInsufficient, []string{"DOCUMENTATION", "RECORD", "CO-16"}},
	{model.CauseMedicalNecessityMismatch, []string{"LCD", "NCD", "MEDICAL NECESSITY", "CO-50"}},
	{model.CauseBundlingEdit, []string{"BUNDL", "NCCI", "CO-97"}},
	{model.CauseNonCoveredService, []string{"NON-COVERED", "NOT COVERED", "CO-96"}},
	{model.CauseFeeScheduleExceeded, []string{"FEE SCHEDULE", "CHARGE EXCEEDS", "CO-45"}},
	{model.CauseCredentialingIssue, []string{"CREDENTIAL", "ENROLLMENT", "ELIGIB"}},
}
