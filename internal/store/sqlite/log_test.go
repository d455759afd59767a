package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
	"github.com/dekarrin/yomimemo/internal/yerr"
)

func Test_AppendLog_assignsAnIDWhenNoneGiven(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.AppendLog(ctx, store.LogEntry{
		Kind:      store.KindLemma,
		Direction: store.Forward,
		LoggedAt:  time.Unix(100, 0),
	}))

	logs, err := st.AllLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.NotEmpty(t, logs[0].ID)
}

func Test_AllLogs_ordersByLoggedAtAscending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.AppendLog(ctx, store.LogEntry{ID: "later", LoggedAt: time.Unix(200, 0)}))
	require.NoError(t, st.AppendLog(ctx, store.LogEntry{ID: "earlier", LoggedAt: time.Unix(100, 0)}))

	logs, err := st.AllLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "earlier", logs[0].ID)
	assert.Equal(t, "later", logs[1].ID)
}

func Test_AppendLog_duplicateIDIsReportedAsConstraintViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	entry := store.LogEntry{ID: "dup", LoggedAt: time.Unix(100, 0)}
	require.NoError(t, st.AppendLog(ctx, entry))

	err = st.AppendLog(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, yerr.ErrConstraintViolation)
}

func Test_GetAtom_unknownIDIsReportedAsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.GetAtom(context.Background(), store.AtomID(99999))
	require.Error(t, err)
	assert.ErrorIs(t, err, yerr.ErrNotFound)
}
