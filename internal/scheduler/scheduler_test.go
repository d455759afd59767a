package scheduler_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/config"
	"github.com/dekarrin/yomimemo/internal/memory"
	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduler_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// ingestOneAtomSentence builds the minimal single-lemma-sentence fixture
// used by the "single sentence, three atoms"-style scenarios named in
// spec 8, trimmed to one atom since RecommendSentence only needs
// MinimumUnknownFrequency/IDForMinimumUnknownFrequency to be populated.
func ingestOneAtomSentence(t *testing.T, st *sqlite.Store, text string, source string) (store.SentenceID, store.AtomID) {
	t.Helper()
	ctx := context.Background()
	sentence, _, err := st.UpsertSentence(ctx, text, []string{text}, []string{text}, store.SourceMeta{Database: source})
	require.NoError(t, err)
	atomID, err := st.UpsertAtom(ctx, store.KindLemma, store.AtomKey{Text: text})
	require.NoError(t, err)
	_, err = st.Link(ctx, sentence.ID, atomID)
	require.NoError(t, err)
	return sentence.ID, atomID
}

func Test_RecommendSentence_picksHighestPayoffGroup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	ingestOneAtomSentence(t, st, "a-sentence", "")
	ingestOneAtomSentence(t, st, "b-sentence", "")

	sched := scheduler.New(st, memory.FromConfig(config.Defaults()), 1)

	sentence, breakdown, ok, err := sched.RecommendSentence(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, breakdown)
	require.Contains(t, []string{"a-sentence", "b-sentence"}, sentence.Text)
}

func Test_RecommendSentence_noneWhenNothingUnknown(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_, atomID := ingestOneAtomSentence(t, st, "only-sentence", "")
	require.NoError(t, st.Touch(ctx, atomID, store.Forward, 0, store.Refresh))

	sched := scheduler.New(st, memory.FromConfig(config.Defaults()), 1)
	_, _, ok, err := sched.RecommendSentence(ctx, "")
	require.NoError(t, err)
	require.False(t, ok, "a sentence with no unknown atoms must not be recommendable")
}

func Test_Next_returnsFalseWithNoEligibleAtoms(t *testing.T) {
	st := openTestStore(t)
	sched := scheduler.New(st, memory.FromConfig(config.Defaults()), 1)

	_, ok, err := sched.Next(context.Background(), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_Next_surfacesKnownAtomPastGrace(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	sentenceID, atomID := ingestOneAtomSentence(t, st, "known-sentence", "")

	require.NoError(t, st.Touch(ctx, atomID, store.Forward, 0, store.Refresh))

	cfg := config.Defaults()
	sched := scheduler.New(st, memory.FromConfig(cfg), 1)

	item, ok, err := sched.Next(ctx, 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, atomID, item.AtomID)
	require.Equal(t, sentenceID, item.SentenceID)
}

func Test_LearnCommit_marksSentenceSeenAndAtomRefreshed(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	sentenceID, atomID := ingestOneAtomSentence(t, st, "commit-sentence", "")

	sched := scheduler.New(st, memory.FromConfig(config.Defaults()), 1)
	err := sched.LearnCommit(ctx, sentenceID, []scheduler.Selection{{AtomID: atomID, Direction: store.Forward}}, 5)
	require.NoError(t, err)

	atom, err := st.GetAtom(ctx, atomID)
	require.NoError(t, err)
	require.NotNil(t, atom.Forward.LastRefresh)

	sentence, err := st.GetSentence(ctx, sentenceID)
	require.NoError(t, err)
	require.NotNil(t, sentence.LastSeen)
}
