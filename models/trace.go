package models

import "time"

// TraceEntry is one append-only record per LLM call, keyed by document and
// clause index. The on-disk format (JSONL) is an implementation detail, not
// a compatibility surface.
type TraceEntry struct {
	DocumentID  string       `json:"document_id"`
	ClauseIndex int          `json:"clause_index"`
	Attempt     int          `json:"attempt"`
	Prompt      string       `json:"prompt"`
	RawResponse string       `json:"raw_response,omitempty"`
	Verdict     *RiskVerdict `json:"verdict,omitempty"`
	Error       string       `json:"error,omitempty"`
	Timestamp   time.Time    `json:"ts"`
}
