package sqlite

import (
	"context"
	"database/sql"

	"github.com/dekarrin/yomimemo/internal/store"
)

// UpsertAtom records one occurrence of the given atom: insert-or-ignore
// the row, then unconditionally bump Frequency by 1. This two-step shape
// (rather than a single upsert) is carried over from
// original_source/japanese_data.py's count_or_create, which needs the
// frequency bump to apply whether or not the row already existed.
func (s *Store) UpsertAtom(ctx context.Context, kind store.Kind, key store.AtomKey) (store.AtomID, error) {
	var id store.AtomID
	err := retryBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO atoms (kind, key_text, key_disambiguator, key_secondary)
			VALUES (?, ?, ?, ?)`,
			int(kind), key.Text, key.Disambiguator, key.Secondary,
		)
		if err != nil {
			return wrapDBError(err)
		}
		_, err = s.db.ExecContext(ctx, `
			UPDATE atoms SET frequency = frequency + 1
			WHERE kind = ? AND key_text = ? AND key_disambiguator = ? AND key_secondary = ?`,
			int(kind), key.Text, key.Disambiguator, key.Secondary,
		)
		if err != nil {
			return wrapDBError(err)
		}
		row := s.db.QueryRowContext(ctx, `
			SELECT id FROM atoms
			WHERE kind = ? AND key_text = ? AND key_disambiguator = ? AND key_secondary = ?`,
			int(kind), key.Text, key.Disambiguator, key.Secondary,
		)
		var rawID int64
		if err := row.Scan(&rawID); err != nil {
			return wrapDBError(err)
		}
		id = store.AtomID(rawID)
		return nil
	})
	return id, err
}

func (s *Store) GetAtom(ctx context.Context, id store.AtomID) (store.Atom, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, key_text, key_disambiguator, key_secondary, frequency,
			fwd_last_refresh, fwd_last_relearn, bwd_last_refresh, bwd_last_relearn
		FROM atoms WHERE id = ?`, int64(id))
	atom, err := scanAtom(row)
	if err != nil {
		return store.Atom{}, wrapDBError(err)
	}
	return atom, nil
}

func (s *Store) AtomsOfKind(ctx context.Context, kind store.Kind) ([]store.Atom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, key_text, key_disambiguator, key_secondary, frequency,
			fwd_last_refresh, fwd_last_relearn, bwd_last_refresh, bwd_last_relearn
		FROM atoms WHERE kind = ?`, int(kind))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.Atom
	for rows.Next() {
		atom, err := scanAtom(rows)
		if err != nil {
			return nil, wrapDBError(err)
		}
		all = append(all, atom)
	}
	return all, wrapDBError(rows.Err())
}

func (s *Store) AtomsForSentence(ctx context.Context, sentenceID store.SentenceID) ([]store.Atom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.kind, a.key_text, a.key_disambiguator, a.key_secondary, a.frequency,
			a.fwd_last_refresh, a.fwd_last_relearn, a.bwd_last_refresh, a.bwd_last_relearn
		FROM atoms a
		JOIN links l ON l.atom_id = a.id
		WHERE l.sentence_id = ?`, int64(sentenceID))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.Atom
	for rows.Next() {
		atom, err := scanAtom(rows)
		if err != nil {
			return nil, wrapDBError(err)
		}
		all = append(all, atom)
	}
	return all, wrapDBError(rows.Err())
}

func (s *Store) SentencesForAtom(ctx context.Context, atomID store.AtomID) ([]store.SentenceID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sentence_id FROM links WHERE atom_id = ?`, int64(atomID))
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

func scanAtom(row scanner) (store.Atom, error) {
	var atom store.Atom
	var id int64
	var kind int
	var fwdRefresh, fwdRelearn, bwdRefresh, bwdRelearn sql.NullFloat64

	err := row.Scan(
		&id, &kind, &atom.Key.Text, &atom.Key.Disambiguator, &atom.Key.Secondary, &atom.Frequency,
		&fwdRefresh, &fwdRelearn, &bwdRefresh, &bwdRelearn,
	)
	if err != nil {
		return store.Atom{}, err
	}
	atom.ID = store.AtomID(id)
	atom.Kind = store.Kind(kind)
	atom.Forward = store.MemoryState{LastRefresh: floatPtr(fwdRefresh), LastRelearn: floatPtr(fwdRelearn)}
	atom.Backward = store.MemoryState{LastRefresh: floatPtr(bwdRefresh), LastRelearn: floatPtr(bwdRelearn)}
	return atom, nil
}
