package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/claimsight/denials-cli/internal/model"
)

// usd formats grouped dollar figures inside recommendation text.
var usd = message.NewPrinter(language.AmericanEnglish)

// Recommend maps a trend's attributions to remediation actions from the
// fixed template catalog. Output keeps the attributions' order (confidence
// descending), so results across trends follow rank then confidence.
// Unclassified attributions get only the manual-review placeholder.
func Recommend(trend model.DenialTrend, windows PayerWindows) []model.Recommendation {
	g := trend.Group
	out := make([]model.Recommendation, 0, len(trend.Attributions))
	for _, attr := range trend.Attributions {
		out = append(out, model.Recommendation{
			Dimension:  g.Dimension,
			TrendKey:   g.Key,
			Category:   attr.Category,
			Action:     actionText(attr.Category, g, windows),
			Impact:     impactFor(attr, g),
			Confidence: attr.Confidence,
		})
	}
	return out
}

// actionText renders the template for a cause category, substituting the
// trend's literal key and figures. The switch is exhaustive over the tagged
// categories; an unknown category falls through to manual review.
func actionText(category model.CauseCategory, g model.AggregateGroup, windows PayerWindows) string {
	key := g.Key
	denied := g.DeniedCount
	dollars := usd.Sprintf("$%.2f", g.TotalDenied.InexactFloat64())

	switch category {
	case model.CauseFilingWindowExceeded:
		days := windows.Days(dominantPayer(g))
		return usd.Sprintf("Implement automated claim submission within the payer's %d-day filing window for %s: %d denials (%s) missed it.",
			days, key, denied, dollars)
	case model.CauseModifierIssue:
		return usd.Sprintf("Train coding staff on modifier rules and run pre-submission modifier edits for %s; %d denials (%s) carry modifier problems.",
			key, denied, dollars)
	case model.CausePriorAuthMissing:
		return usd.Sprintf("Track prior authorizations and verify approval before service for %s; %d denials (%s) lacked authorization.",
			key, denied, dollars)
	case model.CauseDocumentationInsufficient:
		return usd.Sprintf("Adopt documentation templates and audit charts before billing %s; %d denials (%s) cite insufficient records.",
			key, denied, dollars)
	case model.CauseMedicalNecessityMismatch:
		return usd.Sprintf("Check LCD/NCD coverage policies for %s and attach supporting documentation on appeal; %d denials (%s) cite medical necessity.",
			key, denied, dollars)
	case model.CauseBundlingEdit:
		return usd.Sprintf("Educate coders on NCCI bundling edits affecting %s and override only with documentation; %d denials (%s) were bundled.",
			key, denied, dollars)
	case model.CauseNonCoveredService:
		return usd.Sprintf("Verify coverage before service and collect ABNs where %s is non-covered; %d denials (%s) cite coverage exclusions.",
			key, denied, dollars)
	case model.CauseFeeScheduleExceeded:
		return usd.Sprintf("Review the payer fee schedule for %s and align charges or renegotiate rates; %d denials (%s) exceeded the schedule.",
			key, denied, dollars)
	case model.CauseCredentialingIssue:
		return usd.Sprintf("Audit provider credentialing and payer enrollment behind %s; %d denials (%s) cite enrollment or eligibility problems.",
			key, denied, dollars)
	case model.CauseSpecialtyMismatch:
		return usd.Sprintf("Review CPT selection against provider specialty for %s; %d denials (%s) were billed outside the specialty's scope.",
			key, denied, dollars)
	case model.CauseSystemicDenialPattern:
		return usd.Sprintf("Escalate %s for payer-level review: %.0f%% of %d claims denied (%s) with no single dominant cause.",
			key, g.DenialRate*100, g.TotalCount, dollars)
	case model.CauseUnclassified:
	}
	return usd.Sprintf("Requires manual review: no catalog rule explains the %d denials (%s) for %s.", denied, dollars, key)
}

// impactFor grades expected payoff from the attribution confidence and the
// dollars at stake.
func impactFor(attr model.CauseAttribution, g model.AggregateGroup) model.ImpactClass {
	if attr.Category == model.CauseUnclassified {
		return model.ImpactLow
	}
	dollars := g.TotalDenied.InexactFloat64()
	switch {
	case attr.Confidence >= 0.8 || dollars >= 10000:
		return model.ImpactHigh
	case attr.Confidence >= 0.5 || dollars >= 1000:
		return model.ImpactMedium
	}
	return model.ImpactLow
}

// dominantPayer returns the payer responsible for the most denials in the
// group; ties resolve lexicographically. Empty when no denials carry a
// payer (then the default filing window applies).
func dominantPayer(g model.AggregateGroup) string {
	payer, _ := dominantEntry(g.Evidence.PayerCounts)
	return payer
}
