package model

// ImpactClass grades the expected payoff of acting on a recommendation.
type ImpactClass string

const (
	ImpactHigh   ImpactClass = "high"
	ImpactMedium ImpactClass = "medium"
	ImpactLow    ImpactClass = "low"
)

// Recommendation is a remediation action derived from a cause attribution.
// Never mutated after creation.
type Recommendation struct {
	Dimension  string        `json:"dimension"`
	TrendKey   string        `json:"trend_key"`
	Category   CauseCategory `json:"category"`
	Action     string        `json:"action"`
	Impact     ImpactClass   `json:"impact"`
	Confidence float64       `json:"confidence"`
}
