// Package ingest reads claim files (CSV, XLSX) into raw claim records,
// tolerating the messy headers billing exports actually ship with.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/claimsight/denials-cli/internal/model"
)

// Canonical column keys recognized by the row mapper.
const (
	colClaimID        = "claim_id"
	colCPTCode        = "cpt_code"
	colPayerID        = "payer_id"
	colProviderID     = "provider_id"
	colSpecialty      = "provider_specialty"
	colBilledAmount   = "billed_amount"
	colPaidAmount     = "paid_amount"
	colDenialFlag     = "denial_flag"
	colDenialReason   = "denial_reason"
	colServiceDate    = "service_date"
	colSubmissionDate = "submission_date"
	colModifiers      = "modifiers"
)

// headerSynonyms maps squashed header names (lower-cased, non-alphanumerics
// stripped) to canonical column keys.
var headerSynonyms = map[string]string{
	"claimid":     colClaimID,
	"claimnumber": colClaimID,
	"claimno":     colClaimID,
	"id":          colClaimID,

	"cptcode":       colCPTCode,
	"cpt":           colCPTCode,
	"procedurecode": colCPTCode,
	"hcpcscode":     colCPTCode,

	"payerid":          colPayerID,
	"payer":            colPayerID,
	"payername":        colPayerID,
	"insurancecompany": colPayerID,
	"insurancename":    colPayerID,

	"providerid":        colProviderID,
	"provider":          colProviderID,
	"physicianname":     colProviderID,
	"doctorname":        colProviderID,
	"doctorfullname":    colProviderID,
	"renderingprovider": colProviderID,

	"specialty":         colSpecialty,
	"providerspecialty": colSpecialty,

	"billedamount":       colBilledAmount,
	"chargeamount":       colBilledAmount,
	"balance":            colBilledAmount,
	"balanceamt":         colBilledAmount,
	"outstandingbalance": colBilledAmount,

	"paidamount":    colPaidAmount,
	"paymentamount": colPaidAmount,

	"denied":      colDenialFlag,
	"denialflag":  colDenialFlag,
	"claimstatus": colDenialFlag,
	"status":      colDenialFlag,

	"denialreason":     colDenialReason,
	"denialreasoncode": colDenialReason,
	"reasonfordenial":  colDenialReason,

	"servicedate":   colServiceDate,
	"dateofservice": colServiceDate,
	"dos":           colServiceDate,

	"submissiondate": colSubmissionDate,
	"submitted":      colSubmissionDate,
	"filingdate":     colSubmissionDate,
	"claimdate":      colSubmissionDate,

	"modifier":      colModifiers,
	"modifiers":     colModifiers,
	"modifiercodes": colModifiers,
}

// requiredColumns must all resolve for a row to qualify as the header.
var requiredColumns = []string{colCPTCode, colPayerID, colProviderID, colBilledAmount}

// maxHeaderScan is how many leading rows are probed for the header; billing
// exports often prepend one or two junk/title rows.
const maxHeaderScan = 3

// squashHeader normalizes a raw header cell for synonym lookup.
func squashHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveHeader maps a candidate header row to column-index -> canonical
// key, reporting whether every required column was found.
func resolveHeader(row []string) (map[int]string, bool) {
	cols := make(map[int]string, len(row))
	found := make(map[string]bool)
	for i, cell := range row {
		if key, ok := headerSynonyms[squashHeader(cell)]; ok {
			if _, taken := found[key]; !taken {
				cols[i] = key
				found[key] = true
			}
		}
	}
	for _, req := range requiredColumns {
		if !found[req] {
			return nil, false
		}
	}
	return cols, true
}

// FromRows converts tabular rows into raw claims. The header is detected
// within the first few rows; rows above it are discarded.
func FromRows(rows [][]string) ([]model.RawClaim, error) {
	headerIdx := -1
	var cols map[int]string
	for i := 0; i < len(rows) && i < maxHeaderScan; i++ {
		if c, ok := resolveHeader(rows[i]); ok {
			headerIdx = i
			cols = c
			break
		}
	}
	if headerIdx < 0 {
		return nil, eris.Errorf("ingest: no header row with required columns %v found in first %d rows",
			requiredColumns, maxHeaderScan)
	}

	var out []model.RawClaim
	for _, row := range rows[headerIdx+1:] {
		if blankRow(row) {
			continue
		}
		out = append(out, rowToRaw(row, cols))
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowToRaw(row []string, cols map[int]string) model.RawClaim {
	var raw model.RawClaim
	for i, key := range cols {
		if i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		switch key {
		case colClaimID:
			raw.ClaimID = value
		case colCPTCode:
			raw.CPTCode = value
		case colPayerID:
			raw.PayerID = value
		case colProviderID:
			raw.ProviderID = value
		case colSpecialty:
			raw.ProviderSpecialty = value
		case colBilledAmount:
			raw.BilledAmount = value
		case colPaidAmount:
			raw.PaidAmount = value
		case colDenialFlag:
			raw.DenialFlag = value
		case colDenialReason:
			raw.DenialReason = value
		case colServiceDate:
			raw.ServiceDate = value
		case colSubmissionDate:
			raw.SubmissionDate = value
		case colModifiers:
			raw.Modifiers = splitModifiers(value)
		}
	}
	return raw
}

func splitModifiers(value string) []string {
	if value == "" {
		return nil
	}
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == ' '
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
