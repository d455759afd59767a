/*
Yomimemo is a spaced-repetition engine for Japanese sentence mining.

It decomposes ingested sentences into memory atoms (lemmas, grammar
forms, graphemes, and the two directions of a word's pronunciation),
tracks a forgetting-curve memory state for each, and schedules reviews
by utility rather than a fixed interval.

Usage:

	yomimemo [command]

The commands are:

	build-database      ingest tokenized sentences into a store, then
	                    transfer learning progress from --old-database
	recommend-sentence  pick the next sentence to introduce
	review              run an interactive review session

Run "yomimemo [command] --help" for a command's flags.
*/
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dekarrin/yomimemo/internal/logging"
	"github.com/dekarrin/yomimemo/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates bad flags or arguments.
	ExitUsageError

	// ExitStoreError indicates a problem opening or querying the store.
	ExitStoreError

	// ExitRunError indicates a problem during a command's own run, after
	// its store opened successfully.
	ExitRunError
)

var (
	returnCode int

	dbPath     string
	configPath string
	verbose    bool

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "yomimemo",
	Short:   "A utility-scheduled spaced-repetition engine for Japanese sentence mining",
	Version: version.Current,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logging.WithRun(logging.New(verbose), uuid.NewString())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "yomimemo.db", "path to the engine's sqlite store")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an optional TOML config file overriding the memory-model defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(buildDatabaseCmd)
	rootCmd.AddCommand(recommendSentenceCmd)
	rootCmd.AddCommand(reviewCmd)
}

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		if returnCode == ExitSuccess {
			returnCode = ExitRunError
		}
	}
}

func fail(code int, format string, args ...any) error {
	returnCode = code
	return fmt.Errorf(format, args...)
}
