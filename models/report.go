package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clause is a contiguous segment of contract text, the unit of risk analysis.
// Position within the document is preserved so reports read in source order.
type Clause struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// MinRiskScore and MaxRiskScore bound the verdict scale.
const (
	MinRiskScore = 0
	MaxRiskScore = 5
)

// RiskVerdict is the structured result of analyzing one clause.
// A zero score with empty reasons and redline is the explicit
// "no risk found" result, not an error.
type RiskVerdict struct {
	RiskScore int      `json:"risk_score"`
	Reasons   []string `json:"reasons"`
	Redline   string   `json:"redline"`
}

// Validate checks the verdict against the response schema.
func (v *RiskVerdict) Validate() error {
	if v.RiskScore < MinRiskScore || v.RiskScore > MaxRiskScore {
		return fmt.Errorf("risk_score %d out of range [%d,%d]", v.RiskScore, MinRiskScore, MaxRiskScore)
	}
	return nil
}

// PrecedentMatch is a similar historical clause returned by the precedent
// store. Read-only context; never persisted beyond the current request.
type PrecedentMatch struct {
	PrecedentID string  `json:"precedent_id"`
	Similarity  float64 `json:"similarity"`
	Excerpt     string  `json:"excerpt,omitempty"`
}

// ClauseAnalysis pairs a clause with its verdict or, when analysis failed,
// an explicit error placeholder. Exactly one of Verdict and Error is set.
type ClauseAnalysis struct {
	Clause     Clause           `json:"clause"`
	Verdict    *RiskVerdict     `json:"verdict,omitempty"`
	Error      string           `json:"error,omitempty"`
	Precedents []PrecedentMatch `json:"precedents,omitempty"`
}

// AnalysisReport is the per-document result handed to the notifier.
// Entries always cover every clause the splitter produced; a report that
// could not analyze every clause is marked incomplete, never truncated.
type AnalysisReport struct {
	DocumentID       uuid.UUID        `json:"document_id"`
	Entries          []ClauseAnalysis `json:"entries"`
	Complete         bool             `json:"complete"`
	IncompleteReason string           `json:"incomplete_reason,omitempty"`
	Warnings         []string         `json:"warnings,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
