// Package config holds yomimemo's tunable parameters: the memory-model
// constants of spec section 4.3, the scheduler's preferred-source and
// translation-language preferences, and the review session's wall-clock
// budget. Values are layered Defaults() < TOML file, read in cmd/yomimemo;
// no command-line flag sets any of these fields.
package config

import (
	"math"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable named in spec section 4.3 and section 6.
type Config struct {
	// DesiredRetention is the target probability of recall at review
	// time. Must be in (0, 1).
	DesiredRetention float64 `toml:"desired_retention"`

	// BaselineStrength is the number of days of memory conferred by a
	// single refresh.
	BaselineStrength float64 `toml:"baseline_strength"`

	// TestDelay is the horizon, in days, used by the review-utility
	// integral.
	TestDelay float64 `toml:"test_delay"`

	// RelearnGrace is the minimum wait after a refresh before the atom
	// may be shown again.
	RelearnGrace time.Duration `toml:"-"`

	// RelearnGraceSeconds is RelearnGrace expressed in seconds, the form
	// stored in the TOML file (time.Duration doesn't round-trip through
	// TOML's native types cleanly).
	RelearnGraceSeconds float64 `toml:"relearn_grace_seconds"`

	// PreferredSourceDatabase is favored when recommend-sentence must
	// break a tie between sentences of equal payoff.
	PreferredSourceDatabase string `toml:"preferred_source_database"`

	// TranslationLanguages is an ordered preference list used when
	// looking up a gloss/translation for a recommended sentence.
	TranslationLanguages []string `toml:"translation_languages"`

	// ReviewTimeSeconds bounds a review session's wall-clock budget.
	ReviewTimeSeconds int `toml:"review_time_seconds"`
}

// Defaults returns the literal defaults table from spec section 4.3/6.
func Defaults() Config {
	return Config{
		DesiredRetention:        0.95,
		BaselineStrength:        20,
		TestDelay:               20,
		RelearnGrace:            5 * time.Minute,
		RelearnGraceSeconds:     (5 * time.Minute).Seconds(),
		PreferredSourceDatabase: "",
		TranslationLanguages:    []string{"eng"},
		ReviewTimeSeconds:       600,
	}
}

// LogRetention returns ln(desired_retention), which is negative for any
// DesiredRetention in (0, 1).
func (c Config) LogRetention() float64 {
	return math.Log(c.DesiredRetention)
}

// LoadTOML reads an optional override file at path, starting from
// Defaults() and overwriting only the fields present in the file.
func LoadTOML(path string) (Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if meta.IsDefined("relearn_grace_seconds") {
		cfg.RelearnGrace = time.Duration(cfg.RelearnGraceSeconds * float64(time.Second))
	}
	return cfg, nil
}
