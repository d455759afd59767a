package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
)

func Test_RecomputeTotals_sumsFrequencyForOneKindOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totals_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	mustAtom(t, st, store.KindLemma, "食べる", 3)
	mustAtom(t, st, store.KindGrammar, "基本形", 5)

	sum, err := st.RecomputeTotals(context.Background(), store.KindLemma)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sum)

	totals, err := st.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, totals[store.KindLemma])
	assert.Equal(t, 0.0, totals[store.KindGrammar], "RecomputeTotals was only called for lemma")
}

func Test_TotalSentences_countsDistinctIngestedSentences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totals_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, created, err := st.UpsertSentence(ctx, "食べる", nil, nil, store.SourceMeta{})
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = st.UpsertSentence(ctx, "食べる", nil, nil, store.SourceMeta{})
	require.NoError(t, err)
	require.False(t, created, "re-upserting the same text must not create a duplicate row")

	_, created, err = st.UpsertSentence(ctx, "飲む", nil, nil, store.SourceMeta{})
	require.NoError(t, err)
	require.True(t, created)

	n, err := st.TotalSentences(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func Test_ReviewQueue_separatesTheTwoReviewTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totals_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	sentenceID := mustSentence(t, st, "食べる")
	lemmaID := mustAtom(t, st, store.KindLemma, "食べる", 1)
	_, err = st.Link(ctx, sentenceID, lemmaID)
	require.NoError(t, err)
	require.NoError(t, st.Touch(ctx, lemmaID, store.Forward, 0, store.Relearn))

	forward, err := st.ReviewQueue(ctx, store.WritingToPronunciation)
	require.NoError(t, err)
	backward, err := st.ReviewQueue(ctx, store.PronunciationToWriting)
	require.NoError(t, err)

	assert.Contains(t, forward, sentenceID)
	assert.Contains(t, backward, sentenceID)
}
