package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dekarrin/yomimemo/internal/learning"
	"github.com/dekarrin/yomimemo/internal/memory"
	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run an interactive review session until nothing is eligible or the time budget runs out",
	RunE:  runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
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
	meta, err := st.Meta(ctx)
	if err != nil {
		return fail(ExitStoreError, "read engine meta: %w", err)
	}

	sched := scheduler.New(st, memory.FromConfig(cfg), meta.RNGSeed)
	learner := learning.New(st)

	presenter, err := newPresenter()
	if err != nil {
		return fail(ExitRunError, "start presenter: %w", err)
	}
	defer presenter.Close()

	deadline := time.Now().Add(time.Duration(cfg.ReviewTimeSeconds) * time.Second)
	reviewed := 0

	for cfg.ReviewTimeSeconds > 0 && time.Now().Before(deadline) {
		now := daysSinceEpochNow()

		item, ok, err := sched.Next(ctx, now)
		if err != nil {
			return fail(ExitRunError, "select review item: %w", err)
		}
		if !ok {
			cmd.Println("nothing left eligible for review")
			break
		}

		sentence, err := st.GetSentence(ctx, item.SentenceID)
		if err != nil {
			return fail(ExitRunError, "load review sentence: %w", err)
		}
		atoms, err := st.AtomsForSentence(ctx, item.SentenceID)
		if err != nil {
			return fail(ExitRunError, "load review atoms: %w", err)
		}

		breakdown := make([]scheduler.AtomBreakdown, len(atoms))
		for i, a := range atoms {
			breakdown[i] = scheduler.AtomBreakdown{Atom: a}
		}
		translation := annotateWithGlosses(ctx, cfg, lookupTranslation(ctx, cfg, sentence), breakdown)
		presenter.ShowSentence(sentence, translation, breakdown)

		unit := store.Unit{Kind: item.Kind, Direction: item.Direction}
		remembered, err := presenter.AskRemembered(unit)
		if err != nil {
			return fail(ExitRunError, "read judgment: %w", err)
		}

		if remembered {
			if err := learner.Remembered(ctx, item.AtomID, item.Direction, now); err != nil {
				return fail(ExitRunError, "record judgment: %w", err)
			}
		} else {
			if err := learner.NotRemembered(ctx, item.AtomID, item.Direction, now); err != nil {
				return fail(ExitRunError, "record judgment: %w", err)
			}
		}
		if err := st.RefreshSentenceSeen(ctx, item.SentenceID, time.Now()); err != nil {
			return fail(ExitRunError, "mark sentence seen: %w", err)
		}

		reviewed++
	}

	cmd.Printf("reviewed %d item(s)\n", reviewed)

	horizon, ok, err := sched.NextEligibleAt(ctx, daysSinceEpochNow())
	if err != nil {
		return fail(ExitRunError, "compute next review horizon: %w", err)
	}
	if ok {
		wait := time.Duration((horizon-daysSinceEpochNow())*86400) * time.Second
		if wait < 0 {
			wait = 0
		}
		cmd.Printf("next review in %s\n", wait.Round(time.Second))
	} else {
		cmd.Println("next review in: nothing scheduled yet")
	}

	return nil
}

func daysSinceEpochNow() float64 {
	return float64(time.Now().Unix()) / 86400
}
