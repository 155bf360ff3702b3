package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsight/denials-cli/internal/model"
)

func validRaw() model.RawClaim {
	return model.RawClaim{
		ClaimID:        "C-1",
		CPTCode:        "99213",
		PayerID:        "aetna",
		ProviderID:     "P-100",
		BilledAmount:   "150.00",
		PaidAmount:     "0",
		DenialFlag:     "true",
		DenialReason:   "co-29 timely filing",
		ServiceDate:    "2026-01-10",
		SubmissionDate: "2026-04-01",
	}
}

func TestNormalize_ValidRecord(t *testing.T) {
	claims, log := Normalize([]model.RawClaim{validRaw()})
	require.Len(t, claims, 1)
	assert.Equal(t, 0, log.RejectedCount)

	c := claims[0]
	assert.Equal(t, "99213", c.CPTCode)
	assert.Equal(t, "AETNA", c.PayerID, "payer id is upper-cased")
	assert.Equal(t, "CO-29 TIMELY FILING", c.DenialReason)
	assert.True(t, c.Denied)
	assert.Equal(t, "150", c.BilledAmount.String())

	lag, ok := c.SubmissionLagDays()
	require.True(t, ok)
	assert.Equal(t, 81, lag)
}

func TestNormalize_MissingRequiredFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		strip func(*model.RawClaim)
	}{
		{"claim_id", func(r *model.RawClaim) { r.ClaimID = "" }},
		{"cpt_code", func(r *model.RawClaim) { r.CPTCode = "  " }},
		{"payer_id", func(r *model.RawClaim) { r.PayerID = "" }},
		{"provider_id", func(r *model.RawClaim) { r.ProviderID = "" }},
		{"billed_amount", func(r *model.RawClaim) { r.BilledAmount = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.strip(&raw)
			claims, log := Normalize([]model.RawClaim{raw})
			assert.Empty(t, claims)
			require.Equal(t, 1, log.RejectedCount)
			require.Len(t, log.Samples, 1)
			assert.Equal(t, model.RejectMissingRequiredField, log.Samples[0].Reason)
			assert.Equal(t, tc.name, log.Samples[0].Field)
		})
	}
}

func TestNormalize_CPTCodeFormats(t *testing.T) {
	valid := []string{"99213", "0001U", "J1100", "g0008"}
	for _, code := range valid {
		raw := validRaw()
		raw.CPTCode = code
		claims, _ := Normalize([]model.RawClaim{raw})
		assert.Len(t, claims, 1, "code %q should be accepted", code)
	}

	invalid := []string{"992", "9921399", "99-21", "ABCDE", "9921!"}
	for _, code := range invalid {
		raw := validRaw()
		raw.CPTCode = code
		claims, log := Normalize([]model.RawClaim{raw})
		assert.Empty(t, claims, "code %q should be rejected", code)
		require.Len(t, log.Samples, 1)
		assert.Equal(t, model.RejectUnknownCode, log.Samples[0].Reason)
	}
}

func TestNormalize_Amounts(t *testing.T) {
	t.Run("currency formatting tolerated", func(t *testing.T) {
		raw := validRaw()
		raw.BilledAmount = "$1,250.50"
		claims, log := Normalize([]model.RawClaim{raw})
		require.Len(t, claims, 1)
		assert.Equal(t, "1250.5", claims[0].BilledAmount.String())
		assert.Empty(t, log.Warnings)
	})

	t.Run("negative billed rejects", func(t *testing.T) {
		raw := validRaw()
		raw.BilledAmount = "-50"
		claims, log := Normalize([]model.RawClaim{raw})
		assert.Empty(t, claims)
		require.Len(t, log.Samples, 1)
		assert.Equal(t, model.RejectInvalidAmount, log.Samples[0].Reason)
	})

	t.Run("non-numeric billed zeroes with warning", func(t *testing.T) {
		raw := validRaw()
		raw.BilledAmount = "N/A"
		claims, log := Normalize([]model.RawClaim{raw})
		require.Len(t, claims, 1)
		assert.True(t, claims[0].BilledAmount.IsZero())
		require.Len(t, log.Warnings, 1)
		assert.Equal(t, model.RejectInvalidAmount, log.Warnings[0].Reason)
	})

	t.Run("blank paid defaults to zero silently", func(t *testing.T) {
		raw := validRaw()
		raw.PaidAmount = ""
		claims, log := Normalize([]model.RawClaim{raw})
		require.Len(t, claims, 1)
		assert.True(t, claims[0].PaidAmount.IsZero())
		assert.Empty(t, log.Warnings)
	})
}

func TestNormalize_DenialFlag(t *testing.T) {
	t.Run("derived from reason when blank", func(t *testing.T) {
		raw := validRaw()
		raw.DenialFlag = ""
		raw.DenialReason = "CO-16"
		claims, _ := Normalize([]model.RawClaim{raw})
		require.Len(t, claims, 1)
		assert.True(t, claims[0].Denied)
	})

	t.Run("blank with no reason rejects", func(t *testing.T) {
		raw := validRaw()
		raw.DenialFlag = ""
		raw.DenialReason = ""
		claims, log := Normalize([]model.RawClaim{raw})
		assert.Empty(t, claims)
		require.Len(t, log.Samples, 1)
		assert.Equal(t, model.RejectMissingRequiredField, log.Samples[0].Reason)
		assert.Equal(t, "denial_flag", log.Samples[0].Field)
	})

	t.Run("unrecognized token rejects", func(t *testing.T) {
		raw := validRaw()
		raw.DenialFlag = "maybe"
		claims, log := Normalize([]model.RawClaim{raw})
		assert.Empty(t, claims)
		require.Len(t, log.Samples, 1)
		assert.Equal(t, model.RejectUnknownCode, log.Samples[0].Reason)
	})

	t.Run("paid synonyms mean not denied", func(t *testing.T) {
		for _, flag := range []string{"false", "no", "0", "paid", "approved"} {
			raw := validRaw()
			raw.DenialFlag = flag
			raw.DenialReason = ""
			claims, _ := Normalize([]model.RawClaim{raw})
			require.Len(t, claims, 1, "flag %q", flag)
			assert.False(t, claims[0].Denied)
		}
	})
}

func TestNormalize_BadDatesWarnNotReject(t *testing.T) {
	raw := validRaw()
	raw.ServiceDate = "not-a-date"
	claims, log := Normalize([]model.RawClaim{raw})
	require.Len(t, claims, 1)
	assert.Nil(t, claims[0].ServiceDate)
	require.Len(t, log.Warnings, 1)
	assert.Equal(t, model.RejectInvalidDate, log.Warnings[0].Reason)

	_, ok := claims[0].SubmissionLagDays()
	assert.False(t, ok)
}

func TestNormalize_ModifiersDedupedSorted(t *testing.T) {
	raw := validRaw()
	raw.Modifiers = []string{"59", "gt", "59", " LT ", ""}
	claims, _ := Normalize([]model.RawClaim{raw})
	require.Len(t, claims, 1)
	assert.Equal(t, []string{"59", "GT", "LT"}, claims[0].Modifiers)
}

func TestNormalize_EmptyInputNote(t *testing.T) {
	claims, log := Normalize(nil)
	assert.Empty(t, claims)
	assert.Equal(t, 0, log.TotalRecords)
	require.NotEmpty(t, log.Notes)
	assert.Contains(t, log.Notes[0], "input was empty")
}

func TestNormalize_SampleCapKeepsFullCounts(t *testing.T) {
	records := make([]model.RawClaim, 25)
	for i := range records {
		raw := validRaw()
		raw.CPTCode = "bad"
		records[i] = raw
	}
	claims, log := Normalize(records)
	assert.Empty(t, claims)
	assert.Equal(t, 25, log.RejectedCount)
	assert.Len(t, log.Samples, maxRejectionSamples)
	require.Len(t, log.Rejections, 1)
	assert.Equal(t, 25, log.Rejections[0].Count)
	require.NotEmpty(t, log.Notes)
	assert.Contains(t, log.Notes[0], "all input records were rejected")
}
