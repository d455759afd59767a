// Package scheduler implements the review-selection and new-sentence
// recommendation logic of spec section 4.4: a pull-based "next item"
// state machine over the memory model in internal/memory, plus the
// argmax grouping that picks which sentence to introduce next.
package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/dekarrin/yomimemo/internal/learning"
	"github.com/dekarrin/yomimemo/internal/memory"
	"github.com/dekarrin/yomimemo/internal/store"
)

// Item is one selected review: a specific memory unit of a specific
// atom, and the sentence chosen to exercise it in.
type Item struct {
	AtomID     store.AtomID
	Kind       store.Kind
	Direction  store.Direction
	SentenceID store.SentenceID
	ReviewType store.ReviewType
	Utility    float64
}

// Scheduler selects review items and sentence recommendations against a
// Store, using a seeded RNG for the novelty jitter term so runs are
// reproducible given the same EngineMeta.RNGSeed.
type Scheduler struct {
	store   store.Store
	params  memory.Params
	rng     *rand.Rand
	learner *learning.Engine
}

func New(st store.Store, params memory.Params, rngSeed int64) *Scheduler {
	return &Scheduler{
		store:   st,
		params:  params,
		rng:     rand.New(rand.NewSource(rngSeed)),
		learner: learning.New(st),
	}
}

// Selection names one atom/direction a learner accepted while
// committing a recommended sentence.
type Selection struct {
	AtomID    store.AtomID
	Direction store.Direction
}

// LearnCommit implements spec 4.4's "learn commit": REFRESH every
// selected atom (which, per the store's touch() coalesce rule, also
// correctly restores a previously-forgotten atom to now-now, the same
// outcome RELEARN would produce) and mark the sentence seen.
func (s *Scheduler) LearnCommit(ctx context.Context, sentenceID store.SentenceID, selections []Selection, now float64) error {
	for _, sel := range selections {
		if err := s.learner.Learn(ctx, sel.AtomID, sel.Direction, now); err != nil {
			return err
		}
	}
	return s.store.RefreshSentenceSeen(ctx, sentenceID, time.Unix(int64(now*86400), 0))
}

// Next produces the next review item as of now (days since epoch), or
// ok == false if no atom is currently eligible (spec 4.4's termination
// condition).
func (s *Scheduler) Next(ctx context.Context, now float64) (Item, bool, error) {
	totalSentences, err := s.store.TotalSentences(ctx)
	if err != nil {
		return Item{}, false, err
	}
	if totalSentences == 0 {
		return Item{}, false, nil
	}

	type candidate struct {
		atom    store.Atom
		unit    store.Unit
		utility float64
	}
	var best *candidate

	for _, unit := range store.AllUnits() {
		atoms, err := s.store.AtomsOfKind(ctx, unit.Kind)
		if err != nil {
			return Item{}, false, err
		}
		for _, atom := range atoms {
			state := atom.MemoryState(unit.Direction)
			if !state.Eligible(now, s.params.RelearnGraceDays) {
				continue
			}
			u := memory.Utility(atom.Frequency, *state.LastRefresh, *state.LastRelearn, now, float64(totalSentences), s.params)
			if best == nil || u > best.utility || (u == best.utility && store.PackID(atom.ID, atom.Kind) < store.PackID(best.atom.ID, best.atom.Kind)) {
				best = &candidate{atom: atom, unit: unit, utility: u}
			}
		}
	}
	if best == nil {
		return Item{}, false, nil
	}

	sentenceIDs, err := s.store.SentencesForAtom(ctx, best.atom.ID)
	if err != nil {
		return Item{}, false, err
	}

	applicable := store.ApplicableReviewTypes(best.unit)
	if len(applicable) == 0 {
		return Item{}, false, nil
	}

	var chosenSentence store.Sentence
	var chosenReviewType store.ReviewType
	haveChoice := false
	bestNovelty := 0.0

	for _, sid := range sentenceIDs {
		sentence, err := s.store.GetSentence(ctx, sid)
		if err != nil {
			return Item{}, false, err
		}
		if sentence.MinimumUnknownFrequency != nil {
			continue // not fully known yet; not eligible for review
		}
		n := novelty(sentence, now, s.rng)
		for _, rt := range applicable {
			if !haveChoice || n < bestNovelty {
				chosenSentence, chosenReviewType, bestNovelty, haveChoice = sentence, rt, n, true
			}
		}
	}
	if !haveChoice {
		return Item{}, false, nil
	}

	return Item{
		AtomID:     best.atom.ID,
		Kind:       best.unit.Kind,
		Direction:  best.unit.Direction,
		SentenceID: chosenSentence.ID,
		ReviewType: chosenReviewType,
		Utility:    best.utility,
	}, true, nil
}

// NextEligibleAt scans every known atom not currently eligible for
// review and returns the earliest day (days since epoch) at which one
// of them crosses its relearn-grace horizon. ok is false when no known
// atom is still inside its grace period: either none has been refreshed
// yet, or every refreshed one is already eligible as of now.
func (s *Scheduler) NextEligibleAt(ctx context.Context, now float64) (float64, bool, error) {
	var earliest float64
	found := false

	for _, unit := range store.AllUnits() {
		atoms, err := s.store.AtomsOfKind(ctx, unit.Kind)
		if err != nil {
			return 0, false, err
		}
		for _, atom := range atoms {
			state := atom.MemoryState(unit.Direction)
			if state.LastRefresh == nil || state.LastRelearn == nil {
				continue
			}
			horizon := *state.LastRefresh + s.params.RelearnGraceDays
			if horizon <= now {
				continue
			}
			if !found || horizon < earliest {
				earliest, found = horizon, true
			}
		}
	}

	return earliest, found, nil
}

// novelty implements the spec 4.4 scoring function biasing toward
// sentences not seen recently, with a small random jitter so ties don't
// always resolve the same way.
func novelty(sentence store.Sentence, now float64, rng *rand.Rand) float64 {
	var base float64
	if sentence.LastSeen == nil {
		base = 0
	} else {
		lastSeenDays := daysSinceEpoch(*sentence.LastSeen)
		base = 1 + 1/(now-lastSeenDays)
	}
	return base + rng.Float64()/7
}

func daysSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / 86400
}

// AtomBreakdown is one atom in a recommended sentence's decomposition,
// in positional order.
type AtomBreakdown struct {
	Atom     store.Atom
	Position int
}

// RecommendSentence implements spec 4.4's "recommend-sentence": group
// all sentences by IDForMinimumUnknownFrequency, pick the group
// maximizing f*count(group), and within that group prefer
// preferredSource. Returns the chosen sentence and its atoms in
// positional order.
func (s *Scheduler) RecommendSentence(ctx context.Context, preferredSource string) (store.Sentence, []AtomBreakdown, bool, error) {
	all, err := s.store.AllSentences(ctx)
	if err != nil {
		return store.Sentence{}, nil, false, err
	}

	groups := map[int64][]store.Sentence{}
	for _, sent := range all {
		if sent.IDForMinimumUnknownFrequency == nil || sent.MinimumUnknownFrequency == nil {
			continue
		}
		key := *sent.IDForMinimumUnknownFrequency
		groups[key] = append(groups[key], sent)
	}
	if len(groups) == 0 {
		return store.Sentence{}, nil, false, nil
	}

	var bestKey int64
	var bestPayoff float64
	first := true
	for key, members := range groups {
		f := *members[0].MinimumUnknownFrequency
		payoff := f * float64(len(members))
		if first || payoff > bestPayoff {
			bestKey, bestPayoff, first = key, payoff, false
		}
	}

	members := groups[bestKey]
	sort.Slice(members, func(i, j int) bool {
		iPreferred := members[i].Source.Database == preferredSource
		jPreferred := members[j].Source.Database == preferredSource
		if iPreferred != jPreferred {
			return iPreferred
		}
		return members[i].ID < members[j].ID
	})
	chosen := members[0]

	atoms, err := s.store.AtomsForSentence(ctx, chosen.ID)
	if err != nil {
		return store.Sentence{}, nil, false, err
	}
	breakdown := make([]AtomBreakdown, len(atoms))
	for i, atom := range atoms {
		breakdown[i] = AtomBreakdown{Atom: atom, Position: positionalIndex(chosen, atom)}
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Position < breakdown[j].Position })

	return chosen, breakdown, true, nil
}

// positionalIndex approximates an atom's first point of occurrence
// within its sentence, so RecommendSentence can report atoms "sorted by
// positional occurrence" per spec 4.4 without the store needing to
// retain a separate ordered token->atom mapping.
func positionalIndex(sentence store.Sentence, atom store.Atom) int {
	switch atom.Kind {
	case store.KindLemma, store.KindGrammar, store.KindPronunciation:
		for i, tok := range sentence.SegmentedText {
			if tok == atom.Key.Text {
				return i
			}
		}
	case store.KindGrapheme:
		for i, r := range []rune(sentence.Text) {
			if string(r) == atom.Key.Text {
				return i
			}
		}
	case store.KindSound:
		for i, tok := range sentence.Pronunciation {
			for _, r := range tok {
				if string(r) == atom.Key.Text {
					return i
				}
			}
		}
	}
	return len(sentence.SegmentedText) + len(sentence.Pronunciation)
}
