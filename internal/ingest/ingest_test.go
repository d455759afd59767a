package ingest_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/ingest"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
	"github.com/dekarrin/yomimemo/internal/tokenizer"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingest_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func tabeteRecord() ingest.Record {
	return ingest.Record{
		Meta: store.SourceMeta{Database: "tatoeba", ID: "42"},
		Tokens: []tokenizer.Token{
			{Surface: "食べ", Base: "食べる", Disambiguator: "動詞,自立", Grammar: "連用形", Pronunciation: "たべ"},
			{Surface: "ます", Base: "ます", Disambiguator: "助動詞", Grammar: "基本形", Pronunciation: "ます"},
		},
	}
}

func Test_IngestSentence_createsAllFiveAtomKinds(t *testing.T) {
	st := openTestStore(t)
	in := ingest.New(st, nil)
	ctx := context.Background()

	sentenceID, created, err := in.IngestSentence(ctx, tabeteRecord())
	require.NoError(t, err)
	require.True(t, created)

	atoms, err := st.AtomsForSentence(ctx, sentenceID)
	require.NoError(t, err)

	kinds := map[store.Kind]bool{}
	for _, a := range atoms {
		kinds[a.Kind] = true
	}
	assert.True(t, kinds[store.KindLemma])
	assert.True(t, kinds[store.KindGrammar])
	assert.True(t, kinds[store.KindGrapheme])
	assert.True(t, kinds[store.KindPronunciation])
	assert.True(t, kinds[store.KindSound])
}

func Test_IngestSentence_isIdempotentOnDuplicateText(t *testing.T) {
	st := openTestStore(t)
	in := ingest.New(st, nil)
	ctx := context.Background()

	first, created, err := in.IngestSentence(ctx, tabeteRecord())
	require.NoError(t, err)
	require.True(t, created)

	before, err := st.AtomsForSentence(ctx, first)
	require.NoError(t, err)

	second, created, err := in.IngestSentence(ctx, tabeteRecord())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)

	after, err := st.AtomsForSentence(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after), "re-ingesting the same text must not duplicate atom links")
}

func Test_IngestSentence_sharesGraphemeAtomsAcrossSentences(t *testing.T) {
	st := openTestStore(t)
	in := ingest.New(st, nil)
	ctx := context.Background()

	_, _, err := in.IngestSentence(ctx, tabeteRecord())
	require.NoError(t, err)

	second := ingest.Record{
		Meta: store.SourceMeta{Database: "tatoeba", ID: "43"},
		Tokens: []tokenizer.Token{
			{Surface: "食べ物", Base: "食べ物", Disambiguator: "名詞", Grammar: "*", Pronunciation: "たべもの"},
		},
	}
	_, _, err = in.IngestSentence(ctx, second)
	require.NoError(t, err)

	atoms, err := st.AtomsOfKind(ctx, store.KindGrapheme)
	require.NoError(t, err)

	var foundShared bool
	for _, a := range atoms {
		if a.Key.Text == "食" {
			foundShared = true
			assert.Equal(t, 2.0, a.Frequency, "食 appears once in each sentence")
		}
	}
	assert.True(t, foundShared, "expected a grapheme atom for the shared character 食")
}

func Test_IngestSentence_repeatedAtomWithinSentenceCountsOnce(t *testing.T) {
	st := openTestStore(t)
	in := ingest.New(st, nil)
	ctx := context.Background()

	rec := ingest.Record{
		Meta: store.SourceMeta{Database: "tatoeba", ID: "99"},
		Tokens: []tokenizer.Token{
			{Surface: "もも", Base: "もも", Disambiguator: "名詞", Grammar: "*", Pronunciation: "もも"},
		},
	}
	_, created, err := in.IngestSentence(ctx, rec)
	require.NoError(t, err)
	require.True(t, created)

	graphemes, err := st.AtomsOfKind(ctx, store.KindGrapheme)
	require.NoError(t, err)
	var mo *store.Atom
	for i := range graphemes {
		if graphemes[i].Key.Text == "も" {
			mo = &graphemes[i]
		}
	}
	require.NotNil(t, mo, "expected a grapheme atom for も")
	assert.Equal(t, 1.0, mo.Frequency, "も appears twice in one sentence but links to only one sentence")

	sounds, err := st.AtomsOfKind(ctx, store.KindSound)
	require.NoError(t, err)
	var moSound *store.Atom
	for i := range sounds {
		if sounds[i].Key.Text == "も" {
			moSound = &sounds[i]
		}
	}
	require.NotNil(t, moSound, "expected a sound atom for も")
	assert.Equal(t, 1.0, moSound.Frequency)
}

func Test_RecomputeAllTotals_sumsFrequencyPerKind(t *testing.T) {
	st := openTestStore(t)
	in := ingest.New(st, nil)
	ctx := context.Background()

	_, _, err := in.IngestSentence(ctx, tabeteRecord())
	require.NoError(t, err)
	require.NoError(t, in.RecomputeAllTotals(ctx))

	totals, err := st.Totals(ctx)
	require.NoError(t, err)
	assert.Greater(t, totals[store.KindLemma], 0.0)
	assert.Greater(t, totals[store.KindGrapheme], 0.0)
}
