package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dekarrin/yomimemo/internal/config"
	"github.com/dekarrin/yomimemo/internal/memory"
	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
)

var rngSeed int64

var recommendSentenceCmd = &cobra.Command{
	Use:   "recommend-sentence",
	Short: "Pick the highest-payoff sentence still containing unknown atoms",
	RunE:  runRecommendSentence,
}

func init() {
	recommendSentenceCmd.Flags().Int64Var(&rngSeed, "seed", 0, "override the scheduler's process RNG seed (0 uses the stored one)")
}

func runRecommendSentence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail(ExitUsageError, "load config: %w", err)
	}

	st, err := sqlite.Open(dbPath, log)
	if err != nil {
		return fail(ExitStoreError, "open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	seed := rngSeed
	if seed == 0 {
		meta, err := st.Meta(ctx)
		if err != nil {
			return fail(ExitStoreError, "read engine meta: %w", err)
		}
		seed = meta.RNGSeed
	}

	sched := scheduler.New(st, memory.FromConfig(cfg), seed)

	sentence, atoms, ok, err := sched.RecommendSentence(ctx, cfg.PreferredSourceDatabase)
	if err != nil {
		return fail(ExitRunError, "recommend sentence: %w", err)
	}
	if !ok {
		cmd.Println("every ingested sentence is already fully known")
		return nil
	}

	presenter, err := newPresenter()
	if err != nil {
		return fail(ExitRunError, "start presenter: %w", err)
	}
	defer presenter.Close()

	translation := annotateWithGlosses(ctx, cfg, lookupTranslation(ctx, cfg, sentence), atoms)
	presenter.ShowSentence(sentence, translation, atoms)

	return nil
}
