package learning_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/learning"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "learning_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedAtom(t *testing.T, st *sqlite.Store) store.AtomID {
	t.Helper()
	id, err := st.UpsertAtom(context.Background(), store.KindLemma, store.AtomKey{Text: "食べる"})
	require.NoError(t, err)
	return id
}

func Test_Learn_movesUnseenAtomToLearning(t *testing.T) {
	st := openTestStore(t)
	eng := learning.New(st)
	ctx := context.Background()
	atomID := seedAtom(t, st)

	before, err := st.GetAtom(ctx, atomID)
	require.NoError(t, err)
	require.Equal(t, store.Unseen, before.Forward.State())

	require.NoError(t, eng.Learn(ctx, atomID, store.Forward, 10))

	after, err := st.GetAtom(ctx, atomID)
	require.NoError(t, err)
	require.NotNil(t, after.Forward.LastRefresh)
	require.NotNil(t, after.Forward.LastRelearn)
	require.Equal(t, 10.0, *after.Forward.LastRefresh)
	require.Equal(t, 10.0, *after.Forward.LastRelearn)
}

func Test_NotRemembered_knownAtomBecomesForgotten(t *testing.T) {
	st := openTestStore(t)
	eng := learning.New(st)
	ctx := context.Background()
	atomID := seedAtom(t, st)

	require.NoError(t, eng.Learn(ctx, atomID, store.Forward, 0))
	require.NoError(t, eng.Remembered(ctx, atomID, store.Forward, 20))

	require.NoError(t, eng.NotRemembered(ctx, atomID, store.Forward, 25))

	atom, err := st.GetAtom(ctx, atomID)
	require.NoError(t, err)
	require.NotNil(t, atom.Forward.LastRefresh)
	require.Nil(t, atom.Forward.LastRelearn)
}

func Test_NotRemembered_thenRestoresToLearning(t *testing.T) {
	st := openTestStore(t)
	eng := learning.New(st)
	ctx := context.Background()
	atomID := seedAtom(t, st)

	require.NoError(t, eng.Learn(ctx, atomID, store.Forward, 0))
	require.NoError(t, eng.NotRemembered(ctx, atomID, store.Forward, 25))
	require.NoError(t, eng.NotRemembered(ctx, atomID, store.Forward, 30))

	atom, err := st.GetAtom(ctx, atomID)
	require.NoError(t, err)
	require.NotNil(t, atom.Forward.LastRefresh)
	require.NotNil(t, atom.Forward.LastRelearn)
	require.Equal(t, 30.0, *atom.Forward.LastRefresh)
	require.Equal(t, 30.0, *atom.Forward.LastRelearn)
}

func Test_Remembered_appendsLogOnlyWhenAlreadyKnown(t *testing.T) {
	st := openTestStore(t)
	eng := learning.New(st)
	ctx := context.Background()
	atomID := seedAtom(t, st)

	require.NoError(t, eng.Learn(ctx, atomID, store.Forward, 0))
	logs, err := st.AllLogs(ctx)
	require.NoError(t, err)
	require.Empty(t, logs, "introducing a new atom must not emit a log entry")

	require.NoError(t, eng.Remembered(ctx, atomID, store.Forward, 20))
	logs, err = st.AllLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.True(t, logs[0].Remembered)
}
