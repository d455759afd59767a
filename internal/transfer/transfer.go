// Package transfer migrates learning progress across a rebuild of the
// decomposition, per spec section 4.6: aggregate the old store's
// per-atom timestamps up to its sentences, match sentences across the
// rebuild by text, and disaggregate back down into the new store's
// (possibly different) atoms. The timestamp-pair transfer is canonical;
// StrengthTransfer exists only for legacy stores that recorded a scalar
// memory_strength instead, per spec 9's open-questions note.
package transfer

import (
	"context"
	"math"
	"time"

	"github.com/dekarrin/yomimemo/internal/store"
)

const secondsPerDay = 86400

func daysSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / secondsPerDay
}

func daysToTime(days float64) time.Time {
	return time.Unix(int64(days*secondsPerDay), 0).UTC()
}

// sentenceAgg holds one old sentence's aggregated (last_refresh,
// next_refresh) pair for one review type, per spec 4.6's "stratified by
// review type" aggregation step.
type sentenceAgg struct {
	lastRefresh float64
	nextRefresh float64
}

// TimestampTransfer migrates last_refresh/last_relearn (via next_refresh)
// and last_seen from oldStore into newStore, matching sentences by text.
// newStore must already have its full (possibly different) decomposition
// ingested; TimestampTransfer only updates timestamps, never creates
// atoms, sentences, or links.
func TimestampTransfer(ctx context.Context, oldStore, newStore store.Store, logRetention, baselineStrength float64) error {
	oldSentences, err := oldStore.AllSentences(ctx)
	if err != nil {
		return err
	}

	unitSets := reviewTypeUnitSets()
	aggByText := map[store.ReviewType]map[string]sentenceAgg{
		store.WritingToPronunciation: {},
		store.PronunciationToWriting: {},
	}

	seenDaysByText := map[string]float64{}

	for _, sentence := range oldSentences {
		if sentence.LastSeen != nil {
			seenDaysByText[sentence.Text] = daysSinceEpoch(*sentence.LastSeen)
		}

		atoms, err := oldStore.AtomsForSentence(ctx, sentence.ID)
		if err != nil {
			return err
		}

		for rt, units := range unitSets {
			var best *sentenceAgg
			for _, atom := range atoms {
				for _, unit := range units {
					if unit.Kind != atom.Kind {
						continue
					}
					state := atom.MemoryState(unit.Direction)
					if state.LastRefresh == nil || state.LastRelearn == nil {
						continue
					}
					s := *state.LastRefresh - *state.LastRelearn
					nextRefresh := *state.LastRefresh - logRetention*(baselineStrength+s)

					if best == nil {
						best = &sentenceAgg{lastRefresh: *state.LastRefresh, nextRefresh: nextRefresh}
						continue
					}
					if *state.LastRefresh < best.lastRefresh {
						best.lastRefresh = *state.LastRefresh
					}
					if nextRefresh < best.nextRefresh {
						best.nextRefresh = nextRefresh
					}
				}
			}
			if best != nil {
				aggByText[rt][sentence.Text] = *best
			}
		}
	}

	newSentences, err := newStore.AllSentences(ctx)
	if err != nil {
		return err
	}

	for _, sentence := range newSentences {
		if sentence.LastSeen != nil {
			continue // already set; newer ingestion takes precedence
		}
		if seenDays, ok := seenDaysByText[sentence.Text]; ok {
			if err := newStore.RefreshSentenceSeen(ctx, sentence.ID, daysToTime(seenDays)); err != nil {
				return err
			}
		}
	}

	for rt, byText := range aggByText {
		units := unitSets[rt]
		for _, sentence := range newSentences {
			agg, ok := byText[sentence.Text]
			if !ok {
				continue
			}
			atoms, err := newStore.AtomsForSentence(ctx, sentence.ID)
			if err != nil {
				return err
			}
			for _, atom := range atoms {
				for _, unit := range units {
					if unit.Kind != atom.Kind {
						continue
					}
					state := atom.MemoryState(unit.Direction)
					if err := disaggregateOne(ctx, newStore, atom, unit, state, agg, logRetention, baselineStrength); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// disaggregateOne lands atom's (last_refresh, last_relearn) for unit's
// direction onto the values implied by agg, taking the max of the
// existing and migrated last_refresh per spec 4.6's
// "max with ifnull(.,0)" rule so a migration never regresses an atom
// that has already been reviewed in the new store.
func disaggregateOne(ctx context.Context, st store.Store, atom store.Atom, unit store.Unit, state store.MemoryState, agg sentenceAgg, logRetention, baselineStrength float64) error {
	existingRefresh := math.Inf(-1)
	if state.LastRefresh != nil {
		existingRefresh = *state.LastRefresh
	}
	if existingRefresh >= agg.lastRefresh {
		return nil
	}

	newRelearn := agg.lastRefresh - ((agg.lastRefresh-agg.nextRefresh)/logRetention - baselineStrength)

	if err := st.Touch(ctx, atom.ID, unit.Direction, newRelearn, store.Relearn); err != nil {
		return err
	}
	return st.Touch(ctx, atom.ID, unit.Direction, agg.lastRefresh, store.Refresh)
}

func reviewTypeUnitSets() map[store.ReviewType][]store.Unit {
	return map[store.ReviewType][]store.Unit{
		store.WritingToPronunciation: store.ReviewTypeUnits(store.WritingToPronunciation),
		store.PronunciationToWriting: store.ReviewTypeUnits(store.PronunciationToWriting),
	}
}

// CopyLogs appends every log entry from oldStore to newStore verbatim,
// per spec 4.6's "log preservation" step.
func CopyLogs(ctx context.Context, oldStore, newStore store.Store) error {
	logs, err := oldStore.AllLogs(ctx)
	if err != nil {
		return err
	}
	for _, entry := range logs {
		if err := newStore.AppendLog(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
