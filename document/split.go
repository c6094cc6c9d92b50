package document

import (
	"regexp"
	"strings"
)

// Default clause length bounds, in characters. Fragments shorter than the
// minimum are merged with a neighbor; blocks longer than the maximum are
// re-split on sentence boundaries.
const (
	DefaultMinClauseLen = 40
	DefaultMaxClauseLen = 2000
)

// headingRe matches clause boundary markers: "Section 1.", "Clause 2:",
// ALL-CAPS heading lines, "1. Definitions" style headings, and "1.1 "
// subsection markers.
var headingRe = regexp.MustCompile(
	`(?m)^(?:Section|Clause)\s+\d+[.: -]?` +
		`|^[A-Z][A-Z ]{4,}\n` +
		`|^\d+\.\s+[A-Z][A-Za-z ]{3,}\n` +
		`|^\d+\.\d+\s+`)

var (
	crRe        = regexp.MustCompile(`\r\n?`)
	multiNLRe   = regexp.MustCompile(`\n\s*\n\s*\n+`)
	multiGapRe  = regexp.MustCompile(`[ \t]{2,}`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
	anySpaceRe  = regexp.MustCompile(`\s+`)
)

// NormalizeWhitespace collapses runs of blank lines to a single blank line,
// runs of spaces and tabs to one space, and trims the result.
func NormalizeWhitespace(s string) string {
	s = crRe.ReplaceAllString(s, "\n")
	s = multiNLRe.ReplaceAllString(s, "\n\n")
	s = multiGapRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CollapseWhitespace reduces all whitespace runs to single spaces. Two texts
// that collapse to the same string carry the same words in the same order,
// which is the lossless-split guarantee Split maintains.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(anySpaceRe.ReplaceAllString(s, " "))
}

// Split segments normalized contract text into an ordered sequence of
// non-empty clauses using the default length bounds. No text is dropped:
// concatenating the output and collapsing whitespace reproduces the input.
func Split(text string) []string {
	return SplitWithLimits(text, DefaultMinClauseLen, DefaultMaxClauseLen)
}

// SplitWithLimits is Split with explicit clause length bounds.
//
// Strategy, in order of preference: split at heading markers; fall back to
// paragraph breaks when no headings are found (or heading splitting yields a
// single block); re-split any block above maxLen on sentence boundaries;
// merge fragments below minLen into a neighboring clause.
func SplitWithLimits(text string, minLen, maxLen int) []string {
	text = NormalizeWhitespace(text)
	if text == "" {
		return nil
	}

	parts := splitAtHeadings(text)
	if len(parts) <= 1 {
		if paragraphs := splitParagraphs(text); len(paragraphs) > 1 {
			parts = paragraphs
		}
	}

	var clauses []string
	for _, part := range parts {
		for _, chunk := range chunkLongClause(part, maxLen) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			// Merge sub-minimum fragments into the previous clause so
			// headings and stray lines do not surface as noise clauses.
			if len(chunk) < minLen && len(clauses) > 0 {
				clauses[len(clauses)-1] += "\n\n" + chunk
				continue
			}
			clauses = append(clauses, chunk)
		}
	}

	// A leading fragment below minLen cannot merge backwards; fold it into
	// the clause that follows rather than dropping it.
	if len(clauses) > 1 && len(clauses[0]) < minLen {
		clauses[1] = clauses[0] + "\n\n" + clauses[1]
		clauses = clauses[1:]
	}
	return clauses
}

// splitAtHeadings cuts the text at every heading marker, keeping each heading
// attached to the content that follows it.
func splitAtHeadings(text string) []string {
	locs := headingRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var parts []string
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			if chunk := strings.TrimSpace(text[last:loc[0]]); chunk != "" {
				parts = append(parts, chunk)
			}
			last = loc[0]
		}
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

func splitParagraphs(text string) []string {
	var parts []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// chunkLongClause re-splits an over-long block into sentence-boundary pieces
// no longer than maxLen. Sentences that would overflow a chunk start a new
// one; a single sentence above maxLen is packed word by word, never cut
// mid-word.
func chunkLongClause(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current []string
	curLen := 0
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			curLen = 0
		}
	}

	for _, sentence := range splitSentences(text) {
		if curLen+len(sentence) > maxLen {
			flush()
		}
		if len(sentence) > maxLen {
			// Pack words of the oversized sentence into maxLen chunks.
			for _, word := range strings.Fields(sentence) {
				if curLen+len(word) > maxLen {
					flush()
				}
				current = append(current, word)
				curLen += len(word) + 1
			}
			flush()
			continue
		}
		current = append(current, sentence)
		curLen += len(sentence) + 1
	}
	flush()
	return chunks
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace. Good enough for clause chunking; not a linguistic segmenter.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '?', '!':
			if runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
