package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dekarrin/yomimemo/internal/ingest"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/store/sqlite"
	"github.com/dekarrin/yomimemo/internal/tokenizer"
	"github.com/dekarrin/yomimemo/internal/transfer"
	"github.com/dekarrin/yomimemo/internal/util"
)

var (
	tokenizerBin   string
	tokenizerArgs  []string
	sentenceTable  string
	oldDatabase    string
	legacyStrength bool
	legacyNow      float64
)

var buildDatabaseCmd = &cobra.Command{
	Use:   "build-database",
	Short: "Tokenize and ingest a stream of sentences into the store, then carry progress forward from an old store",
	Long: `build-database reads newline-delimited JSON records from
--sentence-table (or stdin if it is "-"), each record shaped as:

	{"text": "...", "source": {"database": "...", "url": "...", "id": "...", "license": "...", "creator": "..."}}

sends text through the configured tokenizer, and ingests the resulting
tokens as sentences and atoms.

If --old-database is given, it runs the memory transfer from that store
into --database once ingestion finishes, matching sentences by text and
carrying each matched sentence's progress forward: by default using the
canonical (last_refresh, last_relearn) aggregate/disaggregate, or with
--legacy-strength using the single-scalar memory_strength bipartite
least-squares path for stores built by an older engine version.`,
	RunE: runBuildDatabase,
}

func init() {
	buildDatabaseCmd.Flags().StringVar(&tokenizerBin, "tokenizer", "mecab", "path to the morphological analyzer binary")
	buildDatabaseCmd.Flags().StringSliceVar(&tokenizerArgs, "tokenizer-arg", nil, "extra argument to pass to the tokenizer binary (repeatable)")
	buildDatabaseCmd.Flags().StringVar(&sentenceTable, "sentence-table", "-", `source of newline-delimited JSON sentence records ("-" for stdin)`)
	buildDatabaseCmd.Flags().StringVar(&oldDatabase, "old-database", "", "path to a prior store to transfer learning progress from")
	buildDatabaseCmd.Flags().BoolVar(&legacyStrength, "legacy-strength", false, "treat --old-database as a legacy memory_strength store instead of the canonical timestamp-pair format")
	buildDatabaseCmd.Flags().Float64Var(&legacyNow, "legacy-now", 0, "days-since-epoch instant to stamp legacy-migrated atoms at (required with --legacy-strength)")
}

type sourceRecord struct {
	Text   string           `json:"text"`
	Source store.SourceMeta `json:"source"`
}

func runBuildDatabase(cmd *cobra.Command, args []string) error {
	st, err := sqlite.Open(dbPath, log)
	if err != nil {
		return fail(ExitStoreError, "open store: %w", err)
	}
	defer st.Close()

	var in *os.File
	if sentenceTable == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(sentenceTable)
		if err != nil {
			return fail(ExitUsageError, "open sentence table: %w", err)
		}
		defer in.Close()
	}

	tok := tokenizer.New(tokenizerBin, tokenizerArgs...)
	ingester := ingest.New(st, log)
	ctx := context.Background()

	var records []ingest.Record
	seenSources := util.NewStringSet()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var rec sourceRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fail(ExitUsageError, "parse source line: %w", err)
		}

		// source dumps are sometimes concatenated from overlapping
		// exports; skip an exact repeat of (database, id) rather than
		// paying for a redundant tokenize call.
		sourceKey := rec.Source.Database + "\x1f" + rec.Source.ID
		if seenSources.Has(sourceKey) {
			log.Debug("skipping duplicate source record", zap.String("database", rec.Source.Database), zap.String("id", rec.Source.ID))
			continue
		}
		seenSources.Add(sourceKey)

		tokens, err := tok.Tokenize(ctx, rec.Text)
		if err != nil {
			log.Warn("skipping sentence that failed to tokenize", zap.String("text", rec.Text), zap.Error(err))
			continue
		}
		records = append(records, ingest.Record{Meta: rec.Source, Tokens: tokens})
	}
	if err := scanner.Err(); err != nil {
		return fail(ExitUsageError, "read source: %w", err)
	}

	if err := ingester.IngestStream(ctx, records); err != nil {
		return fail(ExitRunError, "ingest: %w", err)
	}

	log.Info("ingest complete", zap.Int("sentences", len(records)))

	if oldDatabase == "" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fail(ExitUsageError, "load config: %w", err)
	}

	oldStore, err := sqlite.Open(oldDatabase, log)
	if err != nil {
		return fail(ExitStoreError, "open old database: %w", err)
	}
	defer oldStore.Close()

	if err := transferFromOld(ctx, oldStore, st, cfg.LogRetention(), cfg.BaselineStrength); err != nil {
		return fail(ExitRunError, "transfer: %w", err)
	}
	if err := transfer.CopyLogs(ctx, oldStore, st); err != nil {
		return fail(ExitRunError, "copy logs: %w", err)
	}

	log.Info("transfer complete", zap.String("old_database", oldDatabase))
	return nil
}

func transferFromOld(ctx context.Context, oldStore, newStore store.Store, logRetention, baselineStrength float64) error {
	if legacyStrength {
		return transfer.StrengthTransfer(ctx, oldStore, newStore, legacyNow)
	}
	return transfer.TimestampTransfer(ctx, oldStore, newStore, logRetention, baselineStrength)
}
