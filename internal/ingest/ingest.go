// Package ingest implements spec section 4.2: it consumes an
// already-analyzed token stream from internal/tokenizer and populates
// sentences and atoms, grounded on original_source/japanese_data.py's
// build_database/count_or_create loop. Text is NFC-normalized and
// width-folded before it becomes a storage key, since the corpus mixes
// half-width and full-width forms of the same character.
package ingest

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/tokenizer"
)

// Ingester drives sentence/atom/link upserts against a Store.
type Ingester struct {
	store store.Store
	log   *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingester{store: st, log: log}
}

// normalize folds half-width/full-width variants to their canonical
// form and applies NFC, so "ｶﾀｶﾅ" and "カタカナ" key the same atom.
func normalize(s string) string {
	return norm.NFC.String(width.Fold.String(s))
}

// Record is one already-analyzed sentence ready for ingestion.
type Record struct {
	Meta   store.SourceMeta
	Tokens []tokenizer.Token
}

// IngestSentence implements the per-record algorithm of spec 4.2: join
// surfaces into the sentence text, upsert the sentence, and (only if it
// is new) upsert every token's five atom kinds and link them.
func (in *Ingester) IngestSentence(ctx context.Context, rec Record) (store.SentenceID, bool, error) {
	surfaces := make([]string, len(rec.Tokens))
	readings := make([]string, len(rec.Tokens))
	for i, tok := range rec.Tokens {
		surfaces[i] = normalize(tok.Surface)
		readings[i] = normalize(tok.Pronunciation)
	}

	text := joinTokens(surfaces)
	fingerprint := blake2b.Sum256([]byte(text))
	in.log.Debug("ingesting sentence", zap.String("text", text), zap.Binary("fingerprint", fingerprint[:8]))

	sentence, created, err := in.store.UpsertSentence(ctx, text, surfaces, readings, rec.Meta)
	if err != nil {
		return 0, false, err
	}
	if !created {
		in.log.Debug("duplicate sentence text, skipping atom work", zap.String("text", text))
		return sentence.ID, false, nil
	}

	seen := map[store.Kind]map[store.AtomKey]bool{
		store.KindLemma:         {},
		store.KindGrammar:       {},
		store.KindPronunciation: {},
		store.KindGrapheme:      {},
		store.KindSound:         {},
	}

	for i, tok := range rec.Tokens {
		base := normalize(tok.Base)
		reading := readings[i]
		surface := surfaces[i]

		if err := in.linkAtomOnce(ctx, seen, sentence.ID, store.KindLemma, store.AtomKey{Text: base, Disambiguator: normalize(tok.Disambiguator)}); err != nil {
			return 0, false, err
		}
		if err := in.linkAtomOnce(ctx, seen, sentence.ID, store.KindGrammar, store.AtomKey{Text: normalize(tok.Grammar)}); err != nil {
			return 0, false, err
		}
		if err := in.linkAtomOnce(ctx, seen, sentence.ID, store.KindPronunciation, store.AtomKey{Text: surface, Secondary: reading}); err != nil {
			return 0, false, err
		}
		for _, ch := range surface {
			if err := in.linkAtomOnce(ctx, seen, sentence.ID, store.KindGrapheme, store.AtomKey{Text: string(ch)}); err != nil {
				return 0, false, err
			}
		}
		for _, ch := range reading {
			if err := in.linkAtomOnce(ctx, seen, sentence.ID, store.KindSound, store.AtomKey{Text: string(ch)}); err != nil {
				return 0, false, err
			}
		}
	}

	return sentence.ID, true, nil
}

// linkAtomOnce upserts and links the given atom key, but only increments
// the atom's frequency the first time (kind, key) is seen for this
// sentence. A token that repeats a grapheme, grammar tag, or pronunciation
// elsewhere in the same sentence must still link to the existing atom
// without inflating its per-sentence frequency.
func (in *Ingester) linkAtomOnce(ctx context.Context, seen map[store.Kind]map[store.AtomKey]bool, sentenceID store.SentenceID, kind store.Kind, key store.AtomKey) error {
	if seen[kind][key] {
		return nil
	}
	seen[kind][key] = true

	atomID, err := in.store.UpsertAtom(ctx, kind, key)
	if err != nil {
		return err
	}
	_, err = in.store.Link(ctx, sentenceID, atomID)
	return err
}

func joinTokens(surfaces []string) string {
	var out string
	for _, s := range surfaces {
		out += s
	}
	return out
}

// RecomputeAllTotals runs recompute_totals for every kind, per the last
// step of spec 4.2's algorithm ("after the stream closes").
func (in *Ingester) RecomputeAllTotals(ctx context.Context) error {
	for _, kind := range []store.Kind{store.KindLemma, store.KindGrammar, store.KindGrapheme, store.KindPronunciation, store.KindSound} {
		if _, err := in.store.RecomputeTotals(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// IngestStream ingests every record from records in order, then
// recomputes totals once at the end.
func (in *Ingester) IngestStream(ctx context.Context, records []Record) error {
	for _, rec := range records {
		if _, _, err := in.IngestSentence(ctx, rec); err != nil {
			return err
		}
	}
	return in.RecomputeAllTotals(ctx)
}
