package model

import "time"

// RunStatus tracks a persisted analysis run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one stored analysis run: the input source, the parameters used,
// and the full result for later audit.
type Run struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Status    RunStatus       `json:"status"`
	Params    AnalysisParams  `json:"params"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
