package repository

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known words onto fixed unit vectors so similarity
// ordering is deterministic without a network call.
type fakeEmbedder struct{}

func (fakeEmbedder) embed(text string) []float32 {
	// Crude bag-of-keywords projection onto three axes.
	v := make([]float32, 3)
	for _, kw := range []struct {
		word string
		axis int
	}{
		{"termination", 0},
		{"terminate", 0},
		{"confidential", 1},
		{"liability", 2},
	} {
		if containsWord(text, kw.word) {
			v[kw.axis] += 1
		}
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return []float32{1, 0, 0}
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func containsWord(text, word string) bool {
	for i := 0; i+len(word) <= len(text); i++ {
		match := true
		for j := 0; j < len(word); j++ {
			c := text[i+j]
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != word[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (f fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func (f fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func newTestChromemStore(t *testing.T) *ChromemPrecedentStore {
	t.Helper()
	store, err := NewChromemPrecedentStore(t.TempDir(), "precedents", fakeEmbedder{})
	require.NoError(t, err)
	return store
}

func TestChromemQueryEmptyCollection(t *testing.T) {
	store := newTestChromemStore(t)

	matches, err := store.Query(context.Background(), "termination rights", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemUpsertAndQuery(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "0", "Either party may terminate upon thirty days notice."))
	require.NoError(t, store.Upsert(ctx, "1", "Confidential information shall not be disclosed."))
	require.NoError(t, store.Upsert(ctx, "2", "Aggregate liability shall not exceed fees paid."))

	matches, err := store.Query(ctx, "termination for convenience", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "0", matches[0].PrecedentID)
	assert.Contains(t, matches[0].Excerpt, "terminate")
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestChromemQueryCapsK(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "0", "Confidential information shall be protected."))

	matches, err := store.Query(ctx, "confidential data handling", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestChromemUpsertReplaces(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "0", "Liability is unlimited."))
	require.NoError(t, store.Upsert(ctx, "0", "Liability is capped at twelve months of fees."))

	matches, err := store.Query(ctx, "liability cap", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Excerpt, "capped")
}

func TestChromemRejectsNonPositiveK(t *testing.T) {
	store := newTestChromemStore(t)
	_, err := store.Query(context.Background(), "anything", 0)
	assert.Error(t, err)
}
