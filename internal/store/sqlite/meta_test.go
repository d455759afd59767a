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

func Test_Open_seedsEngineMetaOnFirstOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	meta, err := st.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.TimestampVariant, meta.SchemaVariant)
	assert.True(t, meta.FeatureProbeOK)
	assert.NotZero(t, meta.RNGSeed)
}

func Test_Open_preservesEngineMetaAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)

	original, err := st.Meta(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	meta, err := reopened.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original.RNGSeed, meta.RNGSeed, "reopening an existing database must not reseed the RNG")
}

func Test_SetMeta_roundTripsThroughTheBlobColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta_test.db")
	st, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	want := store.EngineMeta{
		SchemaVersion:  7,
		SchemaVariant:  store.StrengthVariant,
		RNGSeed:        424242,
		FeatureProbeOK: true,
	}
	require.NoError(t, st.SetMeta(context.Background(), want))

	got, err := st.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
