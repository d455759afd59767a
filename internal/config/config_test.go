package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/yomimemo/internal/config"
)

func Test_Defaults_matchesSpecLiterals(t *testing.T) {
	cfg := config.Defaults()
	assert.Equal(t, 0.95, cfg.DesiredRetention)
	assert.Equal(t, 20.0, cfg.BaselineStrength)
	assert.Equal(t, 20.0, cfg.TestDelay)
	assert.Equal(t, 5*time.Minute, cfg.RelearnGrace)
	assert.Equal(t, 600, cfg.ReviewTimeSeconds)
}

func Test_LoadTOML_overridesOnlyFieldsPresentInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
desired_retention = 0.9
translation_languages = ["jpn", "eng"]
`), 0o644))

	cfg, err := config.LoadTOML(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.DesiredRetention, "explicitly set in the file")
	assert.Equal(t, []string{"jpn", "eng"}, cfg.TranslationLanguages, "explicitly set in the file")
	assert.Equal(t, 20.0, cfg.BaselineStrength, "left at the Defaults() value")
	assert.Equal(t, 600, cfg.ReviewTimeSeconds, "left at the Defaults() value")
}

func Test_LoadTOML_convertsRelearnGraceSecondsIntoADuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`relearn_grace_seconds = 120`), 0o644))

	cfg, err := config.LoadTOML(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.RelearnGrace)
}

func Test_LogRetention_isNegativeForAnyRetentionBelowOne(t *testing.T) {
	cfg := config.Defaults()
	assert.Less(t, cfg.LogRetention(), 0.0)
}

func Test_LoadTOML_missingFileReturnsError(t *testing.T) {
	_, err := config.LoadTOML(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
