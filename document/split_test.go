package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `1. DEFINITIONS

In this Agreement, "Confidential Information" means any information disclosed by one party to the other that is marked confidential or would reasonably be understood to be confidential.

2. TERM AND TERMINATION

This Agreement commences on the Effective Date and continues for one year. Either party may terminate for convenience on thirty days written notice.

3. LIMITATION OF LIABILITY

Neither party shall be liable for indirect or consequential damages. The aggregate liability of either party shall not exceed the fees paid in the twelve months preceding the claim.`

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("   \n\n  \t "))
}

func TestSplitPreservesAllText(t *testing.T) {
	clauses := Split(sampleContract)
	require.NotEmpty(t, clauses)

	joined := CollapseWhitespace(strings.Join(clauses, " "))
	assert.Equal(t, CollapseWhitespace(sampleContract), joined)
}

func TestSplitNumberedSections(t *testing.T) {
	clauses := Split(sampleContract)
	require.GreaterOrEqual(t, len(clauses), 3)

	assert.Contains(t, clauses[0], "DEFINITIONS")
	found := false
	for _, c := range clauses {
		if strings.Contains(c, "terminate for convenience") {
			found = true
		}
	}
	assert.True(t, found, "termination clause missing from split output")
}

func TestSplitHeadingStyles(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			"section keyword",
			"Section 1. Payment terms apply to all invoices issued hereunder and are due within thirty days.\nSection 2. Late payments shall accrue interest at the maximum lawful rate until paid in full.",
		},
		{
			"clause keyword",
			"Clause 1: The supplier warrants that all goods conform to the agreed specification in every respect.\nClause 2: The buyer shall inspect the goods within ten business days of delivery to the site.",
		},
		{
			"decimal numbering",
			"1.1 The parties agree to negotiate in good faith any dispute arising under this agreement first.\n1.2 Failing resolution, disputes shall be referred to binding arbitration in the agreed venue.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clauses := Split(tc.text)
			assert.GreaterOrEqual(t, len(clauses), 2)
			joined := CollapseWhitespace(strings.Join(clauses, " "))
			assert.Equal(t, CollapseWhitespace(tc.text), joined)
		})
	}
}

func TestSplitParagraphFallback(t *testing.T) {
	text := "The first paragraph describes the obligations of the supplier under this framework agreement.\n\nThe second paragraph describes the remedies available to the buyer in case of late delivery."
	clauses := Split(text)
	require.Len(t, clauses, 2)
	assert.Contains(t, clauses[0], "first paragraph")
	assert.Contains(t, clauses[1], "second paragraph")
}

func TestSplitChunksOversizedClauses(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "The contractor shall perform obligation number %d with reasonable skill and care. ", i)
	}
	text := sb.String()

	clauses := SplitWithLimits(text, DefaultMinClauseLen, DefaultMaxClauseLen)
	require.Greater(t, len(clauses), 1)

	for i, c := range clauses {
		assert.LessOrEqualf(t, len(c), DefaultMaxClauseLen, "clause %d exceeds max length", i)
	}
	joined := CollapseWhitespace(strings.Join(clauses, " "))
	assert.Equal(t, CollapseWhitespace(text), joined)
}

func TestSplitNeverCutsWords(t *testing.T) {
	word := strings.Repeat("indemnification ", 200)
	clauses := SplitWithLimits(word, DefaultMinClauseLen, 100)
	for _, c := range clauses {
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "indemnification", w)
		}
	}
}

func TestSplitMergesShortFragments(t *testing.T) {
	text := "WHEREAS\n\nThe parties wish to enter into a binding agreement regarding the supply of industrial components over a period of several years."
	clauses := Split(text)
	require.Len(t, clauses, 1)
	assert.Contains(t, clauses[0], "WHEREAS")
	assert.Contains(t, clauses[0], "industrial components")

	for _, c := range clauses {
		assert.GreaterOrEqual(t, len(c), DefaultMinClauseLen)
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	clauses := Split(sampleContract)
	posDefinitions := -1
	posLiability := -1
	for i, c := range clauses {
		if strings.Contains(c, "DEFINITIONS") {
			posDefinitions = i
		}
		if strings.Contains(c, "LIMITATION OF LIABILITY") {
			posLiability = i
		}
	}
	require.NotEqual(t, -1, posDefinitions)
	require.NotEqual(t, -1, posLiability)
	assert.Less(t, posDefinitions, posLiability)
}
