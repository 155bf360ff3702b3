package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawClaim is one claim line as supplied by the caller (CSV/XLSX row or API
// payload). All fields are raw strings; the normalizer owns coercion.
type RawClaim struct {
	ClaimID           string   `json:"claim_id"`
	CPTCode           string   `json:"cpt_code"`
	PayerID           string   `json:"payer_id"`
	ProviderID        string   `json:"provider_id"`
	ProviderSpecialty string   `json:"provider_specialty,omitempty"`
	BilledAmount      string   `json:"billed_amount"`
	PaidAmount        string   `json:"paid_amount,omitempty"`
	DenialFlag        string   `json:"denial_flag,omitempty"`
	DenialReason      string   `json:"denial_reason,omitempty"`
	ServiceDate       string   `json:"service_date,omitempty"`
	SubmissionDate    string   `json:"submission_date,omitempty"`
	Modifiers         []string `json:"modifiers,omitempty"`
}

// ClaimRecord is the normalized, immutable claim line. Every downstream
// stage operates only on this fixed-shape type; raw records never pass the
// normalizer.
type ClaimRecord struct {
	ClaimID           string
	CPTCode           string // upper-cased, trimmed
	PayerID           string
	ProviderID        string
	ProviderSpecialty string // lower-cased, "" when unknown
	BilledAmount      decimal.Decimal
	PaidAmount        decimal.Decimal
	Denied            bool
	DenialReason      string // upper-cased, "" when none
	ServiceDate       *time.Time
	SubmissionDate    *time.Time
	Modifiers         []string // upper-cased, deduped, sorted
}

// SubmissionLagDays returns the whole days between service and submission.
// The second return is false when either date is unknown.
func (c *ClaimRecord) SubmissionLagDays() (int, bool) {
	if c.ServiceDate == nil || c.SubmissionDate == nil {
		return 0, false
	}
	return int(c.SubmissionDate.Sub(*c.ServiceDate).Hours() / 24), true
}
