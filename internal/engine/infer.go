package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claimsight/denials-cli/internal/model"
)

// Infer applies the ordered rule catalog to one aggregate group and returns
// its cause attributions. Rules are evaluated independently; when several
// rules land on the same category the confidences combine by maximum, never
// by sum. A group no rule explains gets exactly one Unclassified
// attribution with confidence 0.
func Infer(g model.AggregateGroup, catalog *RuleCatalog, windows PayerWindows) []model.CauseAttribution {
	type firing struct {
		rule     Rule
		category model.CauseCategory
		evidence []model.Evidence
	}
	var fired []firing

	for _, rule := range catalog.Rules {
		if rule.Disabled {
			continue
		}
		category, evidence, ok := evalRule(rule, g, windows)
		if !ok {
			continue
		}
		fired = append(fired, firing{rule: rule, category: category, evidence: evidence})
	}

	if len(fired) == 0 {
		return []model.CauseAttribution{{
			Dimension:  g.Dimension,
			TrendKey:   g.Key,
			Category:   model.CauseUnclassified,
			Confidence: 0,
		}}
	}

	// Combine per category: max confidence, rule ids and evidence in
	// catalog order.
	byCategory := make(map[model.CauseCategory]*model.CauseAttribution)
	var order []model.CauseCategory
	for _, f := range fired {
		attr, ok := byCategory[f.category]
		if !ok {
			attr = &model.CauseAttribution{
				Dimension: g.Dimension,
				TrendKey:  g.Key,
				Category:  f.category,
			}
			byCategory[f.category] = attr
			order = append(order, f.category)
		}
		if f.rule.Confidence > attr.Confidence {
			attr.Confidence = f.rule.Confidence
		}
		attr.RuleIDs = append(attr.RuleIDs, f.rule.ID)
		attr.Evidence = append(attr.Evidence, f.evidence...)
	}

	out := make([]model.CauseAttribution, 0, len(order))
	for _, cat := range order {
		attr := byCategory[cat]
		if attr.Confidence > 1 {
			attr.Confidence = 1
		}
		out = append(out, *attr)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// evalRule dispatches on the rule kind. It returns the cause category (the
// rule's own, or the derived one for reason-concentration), the literal
// evidence that satisfied the condition, and whether the rule fired.
func evalRule(rule Rule, g model.AggregateGroup, windows PayerWindows) (model.CauseCategory, []model.Evidence, bool) {
	if g.DeniedCount == 0 {
		return "", nil, false
	}
	ev := g.Evidence

	switch rule.Kind {
	case KindFilingReason, KindReasonFamily:
		matched, codes := reasonFamilyCount(ev.ReasonCounts, rule.Keywords)
		share := float64(matched) / float64(g.DeniedCount)
		if share < rule.Threshold || matched == 0 {
			return "", nil, false
		}
		return rule.Category, []model.Evidence{{
			Attribute: "denial_reason_family",
			Value:     fmt.Sprintf("%s covers %.0f%% of %d denials", strings.Join(codes, ","), share*100, g.DeniedCount),
			RuleID:    rule.ID,
		}}, true

	case KindFilingLag:
		if ev.LagKnownCount == 0 {
			return "", nil, false
		}
		share := float64(ev.LateFilingCount) / float64(ev.LagKnownCount)
		if share < rule.Threshold {
			return "", nil, false
		}
		return rule.Category, []model.Evidence{{
			Attribute: "submission_lag",
			Value: fmt.Sprintf("%d of %d dated denials past the filing window, avg lag %.0f days",
				ev.LateFilingCount, ev.LagKnownCount, ev.AvgLagDays()),
			RuleID: rule.ID,
		}}, true

	case KindReasonConcentration:
		code, count := dominantEntry(ev.ReasonCounts)
		if code == "" {
			return "", nil, false
		}
		share := float64(count) / float64(g.DeniedCount)
		if share <= rule.Threshold {
			return "", nil, false
		}
		category, ok := reasonCategory(code)
		if !ok {
			return "", nil, false
		}
		return category, []model.Evidence{{
			Attribute: "denial_reason",
			Value:     fmt.Sprintf("%s covers %.0f%% of %d denials", code, share*100, g.DeniedCount),
			RuleID:    rule.ID,
		}}, true

	case KindModifierCooccurrence:
		code, count := dominantEntry(ev.ModifierCounts)
		if code == "" {
			return "", nil, false
		}
		share := float64(count) / float64(g.DeniedCount)
		if share <= rule.Threshold {
			return "", nil, false
		}
		return rule.Category, []model.Evidence{{
			Attribute: "modifier",
			Value:     fmt.Sprintf("modifier %s on %.0f%% of %d denials", code, share*100, g.DeniedCount),
			RuleID:    rule.ID,
		}}, true

	case KindSpecialtyMismatch:
		if ev.SpecialtyKnown == 0 {
			return "", nil, false
		}
		share := float64(ev.MismatchCount) / float64(g.DeniedCount)
		if share < rule.Threshold {
			return "", nil, false
		}
		return rule.Category, []model.Evidence{{
			Attribute: "provider_specialty",
			Value: fmt.Sprintf("%d of %d denials billed outside the provider's specialty scope",
				ev.MismatchCount, g.DeniedCount),
			RuleID: rule.ID,
		}}, true

	case KindHighRate:
		if g.DenialRate < rule.Threshold {
			return "", nil, false
		}
		return rule.Category, []model.Evidence{{
			Attribute: "denial_rate",
			Value:     fmt.Sprintf("%.0f%% of %d claims denied", g.DenialRate*100, g.TotalCount),
			RuleID:    rule.ID,
		}}, true
	}
	return "", nil, false
}

// reasonFamilyCount sums denied-claim counts across reason codes matching
// any keyword. Matched codes come back sorted for stable evidence text.
func reasonFamilyCount(reasons map[string]int, keywords []string) (int, []string) {
	var total int
	var codes []string
	for code, count := range reasons {
		if containsAny(code, keywords) {
			total += count
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return total, codes
}

// containsAny reports whether any keyword occurs in s. Numeric keyword
// edges must land on code boundaries so CARC numbers never match inside
// longer codes: "97" does not match "CO-197", "29" does not match "CO-297".
// Alphabetic edges still match as prefixes/suffixes ("BUNDL" matches
// "UNBUNDLED", "ELIGIB" matches "ELIGIBILITY").
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if containsKeyword(s, kw) {
			return true
		}
	}
	return false
}

func containsKeyword(s, kw string) bool {
	if kw == "" {
		return false
	}
	needBefore := isDigit(kw[0])
	needAfter := isDigit(kw[len(kw)-1])
	for start := 0; ; start++ {
		i := strings.Index(s[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if (!needBefore || i == 0 || !isAlnum(s[i-1])) &&
			(!needAfter || end == len(s) || !isAlnum(s[end])) {
			return true
		}
		start = i
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// dominantEntry returns the highest-count key; ties resolve to the
// lexicographically smaller key so results never depend on map order.
func dominantEntry(m map[string]int) (string, int) {
	var bestKey string
	var bestCount int
	for k, c := range m {
		if c > bestCount || (c == bestCount && (bestKey == "" || k < bestKey)) {
			bestKey, bestCount = k, c
		}
	}
	return bestKey, bestCount
}

// reasonCategory maps a denial reason code to a tagged cause via the
// keyword families; false when the code matches no family.
func reasonCategory(code string) (model.CauseCategory, bool) {
	for _, rc := range reasonCategories {
		if containsAny(code, rc.keywords) {
			return rc.category, true
		}
	}
	return "", false
}
