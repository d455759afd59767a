package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/dekarrin/yomimemo/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx; recompute helpers are
// written against it so they can run either standalone or inside the
// larger transaction Link/Touch/Forget open.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) Link(ctx context.Context, sentenceID store.SentenceID, atomID store.AtomID) (bool, error) {
	var created bool
	err := retryBusy(func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO links (sentence_id, atom_id) VALUES (?, ?)`,
				int64(sentenceID), int64(atomID))
			if err != nil {
				return wrapDBError(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return wrapDBError(err)
			}
			created = n > 0
			if !created {
				return nil
			}
			return recomputeSentence(ctx, tx, sentenceID)
		})
	})
	return created, err
}

// Touch applies REFRESH or RELEARN to one (atom, direction) unit and
// propagates invariants (4)/(5)/(6) to every sentence linked to the atom.
func (s *Store) Touch(ctx context.Context, atomID store.AtomID, dir store.Direction, now float64, mode store.TouchMode) error {
	return retryBusy(func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			refreshCol, relearnCol := memoryColumns(dir)

			row := tx.QueryRowContext(ctx, `SELECT `+refreshCol+`, `+relearnCol+`, frequency, kind FROM atoms WHERE id = ?`, int64(atomID))
			var oldRefresh, oldRelearn sql.NullFloat64
			var frequency float64
			var kindInt int
			if err := row.Scan(&oldRefresh, &oldRelearn, &frequency, &kindInt); err != nil {
				return wrapDBError(err)
			}

			wasKnown := oldRefresh.Valid && oldRelearn.Valid

			var newRefresh, newRelearn float64 = now, now
			switch mode {
			case store.Refresh:
				newRefresh = now
				if oldRelearn.Valid {
					newRelearn = oldRelearn.Float64
				} else {
					newRelearn = now
				}
			case store.Relearn:
				newRefresh, newRelearn = now, now
			}

			_, err := tx.ExecContext(ctx, `UPDATE atoms SET `+refreshCol+` = ?, `+relearnCol+` = ? WHERE id = ?`,
				newRefresh, newRelearn, int64(atomID))
			if err != nil {
				return wrapDBError(err)
			}

			if wasKnown {
				remembered := newRelearn == oldRelearn.Float64
				entry := store.LogEntry{
					Kind:                 store.Kind(kindInt),
					Direction:            dir,
					Frequency:            frequency,
					TimeSinceLastRefresh: now - oldRefresh.Float64,
					TimeSinceLastRelearn: now - oldRelearn.Float64,
					Remembered:           remembered,
					LoggedAt:             time.Now(),
				}
				if err := appendLogTx(ctx, tx, entry); err != nil {
					return err
				}
			}

			return propagateAtomChange(ctx, tx, atomID)
		})
	})
}

// Forget clears LastRelearn for the given unit (Known -> Forgotten) and
// propagates invariants (5)/(6).
func (s *Store) Forget(ctx context.Context, atomID store.AtomID, dir store.Direction) error {
	return retryBusy(func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			_, relearnCol := memoryColumns(dir)
			_, err := tx.ExecContext(ctx, `UPDATE atoms SET `+relearnCol+` = NULL WHERE id = ?`, int64(atomID))
			if err != nil {
				return wrapDBError(err)
			}
			return propagateAtomChange(ctx, tx, atomID)
		})
	})
}

func memoryColumns(dir store.Direction) (refreshCol, relearnCol string) {
	if dir == store.Backward {
		return "bwd_last_refresh", "bwd_last_relearn"
	}
	return "fwd_last_refresh", "fwd_last_relearn"
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapDBError(err)
	}
	return nil
}

// propagateAtomChange recomputes invariant (5)/(6) for every sentence
// linked to atomID, bounded to just those sentences per spec section 4.5.
func propagateAtomChange(ctx context.Context, q querier, atomID store.AtomID) error {
	rows, err := q.QueryContext(ctx, `SELECT sentence_id FROM links WHERE atom_id = ?`, int64(atomID))
	if err != nil {
		return wrapDBError(err)
	}
	var sentenceIDs []store.SentenceID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return wrapDBError(err)
		}
		sentenceIDs = append(sentenceIDs, store.SentenceID(id))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapDBError(err)
	}

	for _, sid := range sentenceIDs {
		if err := recomputeSentence(ctx, q, sid); err != nil {
			return err
		}
	}
	return nil
}

// float64wrap holds one candidate unknown unit during the argmin scan in
// recomputeSentence.
type float64wrap struct {
	frequency float64
	packedID  int64
	direction store.Direction
}

// recomputeSentence implements invariant (5): minimum_unknown_frequency
// is the minimum Frequency across all (kind, direction) units linked to
// the sentence whose LastRelearn is NULL (the union of all review types,
// i.e. over all of store.AllUnits), tie-broken by the lowest packed
// (atom_id, kind) id and then by direction. It then implements invariant
// (6): inserting/removing review_queue rows when that value transitions
// NULL <-> non-NULL.
func recomputeSentence(ctx context.Context, q querier, sentenceID store.SentenceID) error {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.kind, a.frequency, a.fwd_last_refresh, a.fwd_last_relearn,
			a.bwd_last_refresh, a.bwd_last_relearn
		FROM atoms a
		JOIN links l ON l.atom_id = a.id
		WHERE l.sentence_id = ?`, int64(sentenceID))
	if err != nil {
		return wrapDBError(err)
	}

	var candidates []float64wrap
	for rows.Next() {
		var id int64
		var kindInt int
		var frequency float64
		var fwdRefresh, fwdRelearn, bwdRefresh, bwdRelearn sql.NullFloat64
		if err := rows.Scan(&id, &kindInt, &frequency, &fwdRefresh, &fwdRelearn, &bwdRefresh, &bwdRelearn); err != nil {
			rows.Close()
			return wrapDBError(err)
		}
		kind := store.Kind(kindInt)
		packed := store.PackID(store.AtomID(id), kind)

		if !fwdRelearn.Valid {
			candidates = append(candidates, float64wrap{frequency, packed, store.Forward})
		}
		if kind.HasDirections() && !bwdRelearn.Valid {
			candidates = append(candidates, float64wrap{frequency, packed, store.Backward})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapDBError(err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.frequency != b.frequency {
			return a.frequency < b.frequency
		}
		if a.packedID != b.packedID {
			return a.packedID < b.packedID
		}
		return a.direction < b.direction
	})

	row := q.QueryRowContext(ctx, `SELECT min_unknown_frequency FROM sentences WHERE id = ?`, int64(sentenceID))
	var oldMin sql.NullFloat64
	if err := row.Scan(&oldMin); err != nil {
		return wrapDBError(err)
	}
	wasNull := !oldMin.Valid

	var newFreq sql.NullFloat64
	var newPacked sql.NullInt64
	var isNull bool
	if len(candidates) == 0 {
		isNull = true
	} else {
		best := candidates[0]
		newFreq = sql.NullFloat64{Float64: best.frequency, Valid: true}
		newPacked = sql.NullInt64{Int64: best.packedID, Valid: true}
	}

	_, err = q.ExecContext(ctx, `UPDATE sentences SET min_unknown_frequency = ?, min_unknown_packed_id = ? WHERE id = ?`,
		newFreq, newPacked, int64(sentenceID))
	if err != nil {
		return wrapDBError(err)
	}

	if !wasNull && isNull {
		// became fully known: join the review queue under both review types
		for _, rt := range []store.ReviewType{store.WritingToPronunciation, store.PronunciationToWriting} {
			_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO review_queue (sentence_id, review_type) VALUES (?, ?)`,
				int64(sentenceID), int(rt))
			if err != nil {
				return wrapDBError(err)
			}
		}
	} else if wasNull && !isNull {
		// gained an unknown atom: leave the queue
		if _, err := q.ExecContext(ctx, `DELETE FROM review_queue WHERE sentence_id = ?`, int64(sentenceID)); err != nil {
			return wrapDBError(err)
		}
	}

	return nil
}
