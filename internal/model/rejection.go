package model

// RejectionReason classifies why a raw claim entry was rejected or flagged.
type RejectionReason string

const (
	RejectMissingRequiredField RejectionReason = "missing_required_field"
	RejectInvalidAmount        RejectionReason = "invalid_amount"
	RejectInvalidDate          RejectionReason = "invalid_date"
	RejectUnknownCode          RejectionReason = "unknown_code"
)

// RejectionSample records one concrete rejection or warning for auditing.
type RejectionSample struct {
	ClaimID string          `json:"claim_id"`
	Reason  RejectionReason `json:"reason"`
	Field   string          `json:"field"`
	Value   string          `json:"value"`
}

// ReasonCount is one (reason, count) pair; kept as a sorted slice instead of
// a map so the result serializes identically on every run.
type ReasonCount struct {
	Reason RejectionReason `json:"reason"`
	Count  int             `json:"count"`
}

// RejectionLog summarizes normalization outcomes for a run. Rejected records
// never reach aggregation; warnings mark records that were kept after a
// lossy coercion (zeroed amount, unknown date).
type RejectionLog struct {
	TotalRecords   int               `json:"total_records"`
	ValidRecords   int               `json:"valid_records"`
	RejectedCount  int               `json:"rejected_count"`
	Rejections     []ReasonCount     `json:"rejections,omitempty"`
	Samples        []RejectionSample `json:"samples,omitempty"`
	Warnings       []ReasonCount     `json:"warnings,omitempty"`
	WarningSamples []RejectionSample `json:"warning_samples,omitempty"`
	Notes          []string          `json:"notes,omitempty"`
}
