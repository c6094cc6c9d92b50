package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clauseguard-backend/models"
)

// ErrInvalidVerdict means the model reply could not be parsed into a verdict
// matching the schema. At most one repair retry is worth attempting; after
// that the clause fails rather than fabricating a verdict.
var ErrInvalidVerdict = errors.New("response does not match verdict schema")

// rawVerdict uses pointers so missing keys are distinguishable from zero
// values: a reply without risk_score is malformed, a reply with 0 is not.
type rawVerdict struct {
	RiskScore *int      `json:"risk_score"`
	Reasons   []string  `json:"reasons"`
	Redline   *string   `json:"redline"`
}

// ParseVerdict parses a model reply into a RiskVerdict. The reply should be
// a bare JSON object, but markdown fences and surrounding commentary are
// tolerated: fences are stripped and the first balanced JSON object is
// extracted before validation.
func ParseVerdict(reply string) (*models.RiskVerdict, error) {
	candidate := stripCodeFences(reply)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		extracted, ok := extractFirstJSON(candidate)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidVerdict)
		}
		if err := json.Unmarshal([]byte(extracted), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
		}
	}

	if raw.RiskScore == nil {
		return nil, fmt.Errorf("%w: missing risk_score", ErrInvalidVerdict)
	}

	verdict := &models.RiskVerdict{
		RiskScore: *raw.RiskScore,
		Reasons:   raw.Reasons,
	}
	if verdict.Reasons == nil {
		verdict.Reasons = []string{}
	}
	if raw.Redline != nil {
		verdict.Redline = *raw.Redline
	}
	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}
	return verdict, nil
}

// stripCodeFences removes a surrounding triple-backtick fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// extractFirstJSON returns the first balanced {...} object in s.
// Brace counting ignores braces inside JSON strings.
func extractFirstJSON(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
