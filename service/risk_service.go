package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"clauseguard-backend/llm"
	"clauseguard-backend/models"
	"clauseguard-backend/trace"

	"github.com/google/uuid"
)

var (
	// ErrAnalysis is returned when a clause could not be scored: the model
	// replied with no usable verdict, or rejected the request outright.
	// Scoped to the clause; the rest of the document proceeds.
	ErrAnalysis = errors.New("clause analysis failed")

	// ErrBackendUnavailable is returned when transient retries are
	// exhausted without reaching the model. Environmental, not
	// clause-specific.
	ErrBackendUnavailable = errors.New("analysis backend unavailable")
)

const riskSystemPrompt = "You are a contract risk assistant. Reply in valid JSON only."

const repairInstruction = "\n\nYour previous reply was not valid JSON. Respond with ONLY a single JSON object matching the schema, no prose, no code fences."

// RiskConfig controls pacing and retry behavior of the risk analyzer.
type RiskConfig struct {
	// MaxRetries is the total number of attempts per clause for transient
	// backend failures.
	MaxRetries int
	// RetryDelay is the base backoff delay, doubled per failed attempt.
	RetryDelay time.Duration
	// ThrottleDelay is slept before every model call to stay under rate
	// limits.
	ThrottleDelay time.Duration
}

// DefaultRiskConfig returns the pacing defaults.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxRetries:    3,
		RetryDelay:    2 * time.Second,
		ThrottleDelay: 500 * time.Millisecond,
	}
}

// RiskService scores individual contract clauses via a chat model.
type RiskService struct {
	client   llm.ChatClient
	recorder trace.Recorder
	config   RiskConfig
	sleep    func(time.Duration)
}

// RiskServiceOption is a functional option for RiskService
type RiskServiceOption func(*RiskService)

// RiskWithChatClient sets the chat model client
func RiskWithChatClient(client llm.ChatClient) RiskServiceOption {
	return func(s *RiskService) {
		s.client = client
	}
}

// RiskWithRecorder sets the trace recorder
func RiskWithRecorder(recorder trace.Recorder) RiskServiceOption {
	return func(s *RiskService) {
		s.recorder = recorder
	}
}

// RiskWithConfig sets pacing and retry configuration
func RiskWithConfig(config RiskConfig) RiskServiceOption {
	return func(s *RiskService) {
		s.config = config
	}
}

// NewRiskService creates a new risk service
func NewRiskService(opts ...RiskServiceOption) *RiskService {
	s := &RiskService{
		recorder: trace.NopRecorder{},
		config:   DefaultRiskConfig(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.MaxRetries < 1 {
		s.config.MaxRetries = 1
	}
	return s
}

// AnalyzeClause scores one clause, optionally grounded on precedent matches.
// Transient backend failures are retried with exponential backoff up to
// MaxRetries attempts. A syntactically invalid verdict gets exactly one
// repair retry with a stricter instruction before giving up.
func (s *RiskService) AnalyzeClause(ctx context.Context, docID uuid.UUID, clause models.Clause, precedents []models.PrecedentMatch) (*models.RiskVerdict, error) {
	prompt := buildClausePrompt(clause.Text, precedents)

	raw, err := s.complete(ctx, docID, clause.Index, prompt)
	if err != nil {
		return nil, err
	}

	verdict, parseErr := llm.ParseVerdict(raw)
	if parseErr == nil {
		s.record(docID, clause.Index, 1, prompt, raw, verdict, "")
		return verdict, nil
	}
	s.record(docID, clause.Index, 1, prompt, raw, nil, parseErr.Error())

	// One repair attempt with a stricter instruction.
	repairPrompt := prompt + repairInstruction
	raw, err = s.complete(ctx, docID, clause.Index, repairPrompt)
	if err != nil {
		return nil, err
	}

	verdict, parseErr = llm.ParseVerdict(raw)
	if parseErr != nil {
		s.record(docID, clause.Index, 2, repairPrompt, raw, nil, parseErr.Error())
		return nil, fmt.Errorf("%w: %s", ErrAnalysis, parseErr.Error())
	}
	s.record(docID, clause.Index, 2, repairPrompt, raw, verdict, "")
	return verdict, nil
}

// complete calls the model with throttling and transient-failure retry.
func (s *RiskService) complete(ctx context.Context, docID uuid.UUID, clauseIndex int, prompt string) (string, error) {
	var lastErr error
	delay := s.config.RetryDelay
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		if s.config.ThrottleDelay > 0 {
			s.sleep(s.config.ThrottleDelay)
		}

		raw, err := s.client.Complete(ctx, riskSystemPrompt, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		s.record(docID, clauseIndex, attempt, prompt, "", nil, err.Error())

		// A permanent rejection (4xx, undecodable body) is specific to this
		// request, not evidence the backend is down.
		if !llm.IsTransient(err) {
			return "", fmt.Errorf("%w: %s", ErrAnalysis, err.Error())
		}
		if attempt < s.config.MaxRetries {
			jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
			s.sleep(delay + jitter)
			delay *= 2
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, lastErr.Error())
}

func (s *RiskService) record(docID uuid.UUID, clauseIndex, attempt int, prompt, raw string, verdict *models.RiskVerdict, errMsg string) {
	s.recorder.Record(models.TraceEntry{
		DocumentID:  docID.String(),
		ClauseIndex: clauseIndex,
		Attempt:     attempt,
		Prompt:      prompt,
		RawResponse: raw,
		Verdict:     verdict,
		Error:       errMsg,
		Timestamp:   time.Now().UTC(),
	})
}

// buildClausePrompt assembles the scoring prompt, appending precedent
// excerpts when available.
func buildClausePrompt(clauseText string, precedents []models.PrecedentMatch) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following contract clause and return JSON only following this schema:\n")
	sb.WriteString("{ \"risk_score\": int (0-5), \"reasons\": [str], \"redline\": str }\n\n")
	sb.WriteString("Clause:\n\"\"\"\n")
	sb.WriteString(clauseText)
	sb.WriteString("\n\"\"\"\n")

	if len(precedents) > 0 {
		sb.WriteString("\nSimilar clauses from reviewed contracts, for context:\n")
		for _, p := range precedents {
			fmt.Fprintf(&sb, "- (similarity %.2f) %s\n", p.Similarity, p.Excerpt)
		}
	}
	return sb.String()
}
