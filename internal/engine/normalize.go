package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/claimsight/denials-cli/internal/model"
)

// maxRejectionSamples caps how many concrete rejections and warnings the
// log retains; counts are always complete.
const maxRejectionSamples = 10

// dateLayouts are tried in order when parsing service/submission dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Normalize validates and canonicalizes raw claim entries. Malformed
// records are skipped and logged, never fatal: the second return is the
// full rejection log for the run.
func Normalize(records []model.RawClaim) ([]model.ClaimRecord, *model.RejectionLog) {
	nl := newNormalizeLog(len(records))
	out := make([]model.ClaimRecord, 0, len(records))

	for _, raw := range records {
		rec, ok := normalizeOne(raw, nl)
		if ok {
			out = append(out, rec)
		}
	}

	log := nl.finish(len(out))
	zap.L().Info("normalize: run complete",
		zap.Int("total", log.TotalRecords),
		zap.Int("valid", log.ValidRecords),
		zap.Int("rejected", log.RejectedCount),
	)
	return out, log
}

func normalizeOne(raw model.RawClaim, nl *normalizeLog) (model.ClaimRecord, bool) {
	claimID := strings.TrimSpace(raw.ClaimID)

	for _, req := range []struct {
		field string
		value string
	}{
		{"claim_id", claimID},
		{"cpt_code", strings.TrimSpace(raw.CPTCode)},
		{"payer_id", strings.TrimSpace(raw.PayerID)},
		{"provider_id", strings.TrimSpace(raw.ProviderID)},
		{"billed_amount", strings.TrimSpace(raw.BilledAmount)},
	} {
		if req.value == "" {
			nl.reject(claimID, model.RejectMissingRequiredField, req.field, "")
			return model.ClaimRecord{}, false
		}
	}

	cpt := strings.ToUpper(strings.TrimSpace(raw.CPTCode))
	if !validCPTCode(cpt) {
		nl.reject(claimID, model.RejectUnknownCode, "cpt_code", cpt)
		return model.ClaimRecord{}, false
	}

	billed, billedOK := parseAmount(raw.BilledAmount)
	if billedOK && billed.IsNegative() {
		nl.reject(claimID, model.RejectInvalidAmount, "billed_amount", raw.BilledAmount)
		return model.ClaimRecord{}, false
	}
	if !billedOK {
		// Non-numeric amounts are zeroed and flagged, not silently kept.
		nl.warn(claimID, model.RejectInvalidAmount, "billed_amount", raw.BilledAmount)
		billed = decimal.Zero
	}

	paid := decimal.Zero
	if p := strings.TrimSpace(raw.PaidAmount); p != "" {
		var paidOK bool
		paid, paidOK = parseAmount(p)
		if paidOK && paid.IsNegative() {
			nl.reject(claimID, model.RejectInvalidAmount, "paid_amount", raw.PaidAmount)
			return model.ClaimRecord{}, false
		}
		if !paidOK {
			nl.warn(claimID, model.RejectInvalidAmount, "paid_amount", raw.PaidAmount)
			paid = decimal.Zero
		}
	}

	reason := strings.ToUpper(strings.TrimSpace(raw.DenialReason))
	denied, ok := parseDenialFlag(raw.DenialFlag, reason)
	if !ok {
		field := "denial_flag"
		if strings.TrimSpace(raw.DenialFlag) == "" {
			nl.reject(claimID, model.RejectMissingRequiredField, field, "")
		} else {
			nl.reject(claimID, model.RejectUnknownCode, field, raw.DenialFlag)
		}
		return model.ClaimRecord{}, false
	}

	// Unparsable dates never reject the record; timing evidence just goes
	// unknown for this claim.
	serviceDate := parseDateField(claimID, "service_date", raw.ServiceDate, nl)
	submissionDate := parseDateField(claimID, "submission_date", raw.SubmissionDate, nl)

	return model.ClaimRecord{
		ClaimID:           claimID,
		CPTCode:           cpt,
		PayerID:           strings.ToUpper(strings.TrimSpace(raw.PayerID)),
		ProviderID:        strings.TrimSpace(raw.ProviderID),
		ProviderSpecialty: strings.ToLower(strings.TrimSpace(raw.ProviderSpecialty)),
		BilledAmount:      billed,
		PaidAmount:        paid,
		Denied:            denied,
		DenialReason:      reason,
		ServiceDate:       serviceDate,
		SubmissionDate:    submissionDate,
		Modifiers:         normalizeModifiers(raw.Modifiers),
	}, true
}

// validCPTCode accepts CPT-4 (5 digits, or 4 digits + letter for category
// II/III codes) and HCPCS level II (letter + 4 digits).
func validCPTCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	isAlpha := func(b byte) bool { return b >= 'A' && b <= 'Z' }

	switch {
	case isDigit(code[0]) && isDigit(code[1]) && isDigit(code[2]) && isDigit(code[3]):
		return isDigit(code[4]) || isAlpha(code[4])
	case isAlpha(code[0]):
		return isDigit(code[1]) && isDigit(code[2]) && isDigit(code[3]) && isDigit(code[4])
	}
	return false
}

// parseAmount coerces a money string to a decimal, tolerating "$" and
// thousands separators.
func parseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseDenialFlag interprets the raw flag. An empty flag is derived from
// the denial reason: a claim carrying a reason code was denied.
func parseDenialFlag(flag, reason string) (denied, ok bool) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "true", "yes", "y", "1", "denied", "denial", "d":
		return true, true
	case "false", "no", "n", "0", "paid", "approved", "accepted":
		return false, true
	case "":
		if reason != "" {
			return true, true
		}
		return false, false
	}
	return false, false
}

func parseDateField(claimID, field, value string, nl *normalizeLog) *time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	nl.warn(claimID, model.RejectInvalidDate, field, value)
	return nil
}

func normalizeModifiers(mods []string) []string {
	if len(mods) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(mods))
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// normalizeLog accumulates rejection/warning counters during a pass and is
// released at run end.
type normalizeLog struct {
	total          int
	rejected       int
	rejectCounts   map[model.RejectionReason]int
	warnCounts     map[model.RejectionReason]int
	samples        []model.RejectionSample
	warningSamples []model.RejectionSample
}

func newNormalizeLog(total int) *normalizeLog {
	return &normalizeLog{
		total:        total,
		rejectCounts: make(map[model.RejectionReason]int),
		warnCounts:   make(map[model.RejectionReason]int),
	}
}

func (nl *normalizeLog) reject(claimID string, reason model.RejectionReason, field, value string) {
	nl.rejected++
	nl.rejectCounts[reason]++
	if len(nl.samples) < maxRejectionSamples {
		nl.samples = append(nl.samples, model.RejectionSample{
			ClaimID: claimID, Reason: reason, Field: field, Value: value,
		})
	}
	zap.L().Debug("normalize: record rejected",
		zap.String("claim_id", claimID),
		zap.String("reason", string(reason)),
		zap.String("field", field),
	)
}

func (nl *normalizeLog) warn(claimID string, reason model.RejectionReason, field, value string) {
	nl.warnCounts[reason]++
	if len(nl.warningSamples) < maxRejectionSamples {
		nl.warningSamples = append(nl.warningSamples, model.RejectionSample{
			ClaimID: claimID, Reason: reason, Field: field, Value: value,
		})
	}
}

func (nl *normalizeLog) finish(valid int) *model.RejectionLog {
	log := &model.RejectionLog{
		TotalRecords:   nl.total,
		ValidRecords:   valid,
		RejectedCount:  nl.rejected,
		Rejections:     sortedReasonCounts(nl.rejectCounts),
		Warnings:       sortedReasonCounts(nl.warnCounts),
		Samples:        nl.samples,
		WarningSamples: nl.warningSamples,
	}
	if valid == 0 {
		if nl.total == 0 {
			log.Notes = append(log.Notes, "no valid records: input was empty")
		} else {
			log.Notes = append(log.Notes, "no valid records: all input records were rejected")
		}
	}
	return log
}

func sortedReasonCounts(m map[model.RejectionReason]int) []model.ReasonCount {
	if len(m) == 0 {
		return nil
	}
	out := make([]model.ReasonCount, 0, len(m))
	for reason, count := range m {
		out = append(out, model.ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out
}
