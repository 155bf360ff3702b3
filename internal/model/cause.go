package model

// CauseCategory is the closed set of denial root causes the inference
// engine can attribute. Modeled as tagged constants, not free-form strings,
// so the cause-to-recommendation mapping stays exhaustive.
type CauseCategory string

const (
	CauseFilingWindowExceeded      CauseCategory = "filing_window_exceeded"
	CauseModifierIssue             CauseCategory = "modifier_issue"
	CausePriorAuthMissing          CauseCategory = "prior_auth_missing"
	CauseDocumentationInsufficient CauseCategory = "documentation_insufficient"
	CauseMedicalNecessityMismatch  CauseCategory = "medical_necessity_mismatch"
	CauseBundlingEdit              CauseCategory = "bundling_edit"
	CauseNonCoveredService         CauseCategory = "non_covered_service"
	CauseFeeScheduleExceeded       CauseCategory = "fee_schedule_exceeded"
	CauseCredentialingIssue        CauseCategory = "credentialing_issue"
	CauseSpecialtyMismatch         CauseCategory = "specialty_mismatch"
	CauseSystemicDenialPattern     CauseCategory = "systemic_denial_pattern"
	CauseUnclassified              CauseCategory = "unclassified"
)

// AllCauseCategories lists every category in a stable order.
var AllCauseCategories = []CauseCategory{
	CauseFilingWindowExceeded,
	CauseModifierIssue,
	CausePriorAuthMissing,
	CauseDocumentationInsufficient,
	CauseMedicalNecessityMismatch,
	CauseBundlingEdit,
	CauseNonCoveredService,
	CauseFeeScheduleExceeded,
	CauseCredentialingIssue,
	CauseSpecialtyMismatch,
	CauseSystemicDenialPattern,
	CauseUnclassified,
}

// Valid reports whether c is a recognized cause category.
func (c CauseCategory) Valid() bool {
	for _, k := range AllCauseCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Evidence is one literal observation that triggered a rule: which
// attribute was examined, the value seen, and the rule that flagged it.
type Evidence struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
	RuleID    string `json:"rule_id"`
}

// CauseAttribution attaches a probable cause to a trend. Read-only to
// downstream consumers; confidence is always within [0,1].
type CauseAttribution struct {
	Dimension  string        `json:"dimension"`
	TrendKey   string        `json:"trend_key"`
	Category   CauseCategory `json:"category"`
	Confidence float64       `json:"confidence"`
	RuleIDs    []string      `json:"rule_ids,omitempty"`
	Evidence   []Evidence    `json:"evidence,omitempty"`
}
