package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dekarrin/yomimemo/internal/store"
)

func (s *Store) UpsertSentence(ctx context.Context, text string, segmented, pronunciation []string, meta store.SourceMeta) (store.Sentence, bool, error) {
	var created bool
	var sentence store.Sentence

	err := retryBusy(func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO sentences
				(text, segmented, pronunciation, source_database, source_url, source_id, source_license, source_creator)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			text, strings.Join(segmented, "\x1f"), strings.Join(pronunciation, "\x1f"),
			meta.Database, meta.URL, meta.ID, meta.License, meta.Creator,
		)
		if err != nil {
			return wrapDBError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError(err)
		}
		created = n > 0

		sentence, _, err = s.SentenceByText(ctx, text)
		return err
	})
	if err != nil {
		return store.Sentence{}, false, err
	}
	return sentence, created, nil
}

func (s *Store) SentenceByText(ctx context.Context, text string) (store.Sentence, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, segmented, pronunciation, source_database, source_url, source_id,
			source_license, source_creator, last_seen, min_unknown_frequency, min_unknown_packed_id
		FROM sentences WHERE text = ?`, text)
	sentence, err := scanSentence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Sentence{}, false, nil
	}
	if err != nil {
		return store.Sentence{}, false, wrapDBError(err)
	}
	return sentence, true, nil
}

func (s *Store) GetSentence(ctx context.Context, id store.SentenceID) (store.Sentence, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, segmented, pronunciation, source_database, source_url, source_id,
			source_license, source_creator, last_seen, min_unknown_frequency, min_unknown_packed_id
		FROM sentences WHERE id = ?`, int64(id))
	sentence, err := scanSentence(row)
	if err != nil {
		return store.Sentence{}, wrapDBError(err)
	}
	return sentence, nil
}

func (s *Store) AllSentences(ctx context.Context) ([]store.Sentence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, segmented, pronunciation, source_database, source_url, source_id,
			source_license, source_creator, last_seen, min_unknown_frequency, min_unknown_packed_id
		FROM sentences`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.Sentence
	for rows.Next() {
		sentence, err := scanSentence(rows)
		if err != nil {
			return nil, wrapDBError(err)
		}
		all = append(all, sentence)
	}
	return all, wrapDBError(rows.Err())
}

func (s *Store) RefreshSentenceSeen(ctx context.Context, id store.SentenceID, now time.Time) error {
	return retryBusy(func() error {
		_, err := s.db.ExecContext(ctx, `UPDATE sentences SET last_seen = ? WHERE id = ?`, now.Unix(), int64(id))
		return wrapDBError(err)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSentence(row scanner) (store.Sentence, error) {
	var sentence store.Sentence
	var id int64
	var segmented, pronunciation string
	var lastSeen sql.NullInt64
	var minFreq sql.NullFloat64
	var minPacked sql.NullInt64

	err := row.Scan(
		&id, &sentence.Text, &segmented, &pronunciation,
		&sentence.Source.Database, &sentence.Source.URL, &sentence.Source.ID,
		&sentence.Source.License, &sentence.Source.Creator,
		&lastSeen, &minFreq, &minPacked,
	)
	if err != nil {
		return store.Sentence{}, err
	}
	sentence.ID = store.SentenceID(id)
	if segmented != "" {
		sentence.SegmentedText = strings.Split(segmented, "\x1f")
	}
	if pronunciation != "" {
		sentence.Pronunciation = strings.Split(pronunciation, "\x1f")
	}
	sentence.LastSeen = timePtr(lastSeen)
	sentence.MinimumUnknownFrequency = floatPtr(minFreq)
	sentence.IDForMinimumUnknownFrequency = intPtr(minPacked)
	return sentence, nil
}
