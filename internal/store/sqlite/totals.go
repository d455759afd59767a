package sqlite

import (
	"context"
	"fmt"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/yerr"
)

var kindColumn = map[store.Kind]string{
	store.KindLemma:         "lemma",
	store.KindGrammar:       "grammar",
	store.KindGrapheme:      "grapheme",
	store.KindPronunciation: "pronunciation",
	store.KindSound:         "sound",
}

// RecomputeTotals sums Frequency over every atom of kind and persists it
// into the totals singleton row.
func (s *Store) RecomputeTotals(ctx context.Context, kind store.Kind) (float64, error) {
	col, ok := kindColumn[kind]
	if !ok {
		return 0, yerr.New(fmt.Sprintf("unknown atom kind %d", kind))
	}

	var sum float64
	err := retryBusy(func() error {
		row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(frequency), 0) FROM atoms WHERE kind = ?`, int(kind))
		if err := row.Scan(&sum); err != nil {
			return wrapDBError(err)
		}
		_, err := s.db.ExecContext(ctx, `UPDATE totals SET `+col+` = ? WHERE id = 0`, sum)
		return wrapDBError(err)
	})
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func (s *Store) Totals(ctx context.Context) (map[store.Kind]float64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT lemma, grammar, grapheme, pronunciation, sound FROM totals WHERE id = 0`)
	var lemma, grammar, grapheme, pronunciation, sound float64
	if err := row.Scan(&lemma, &grammar, &grapheme, &pronunciation, &sound); err != nil {
		return nil, wrapDBError(err)
	}
	return map[store.Kind]float64{
		store.KindLemma:         lemma,
		store.KindGrammar:       grammar,
		store.KindGrapheme:      grapheme,
		store.KindPronunciation: pronunciation,
		store.KindSound:         sound,
	}, nil
}

func (s *Store) TotalSentences(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentences`)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, wrapDBError(err)
	}
	return n, nil
}

func (s *Store) ReviewQueue(ctx context.Context, rt store.ReviewType) ([]store.SentenceID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sentence_id FROM review_queue WHERE review_type = ?`, int(rt))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.SentenceID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBError(err)
		}
		all = append(all, store.SentenceID(id))
	}
	return all, wrapDBError(rows.Err())
}
