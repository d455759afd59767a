// Package sqlite implements internal/store.Store on top of
// modernc.org/sqlite, the same pure-Go driver the teacher repo uses for
// its own DAO layer. Per design note 9 of the spec, invariant propagation
// for (5)/(6) is centralized in Go (Touch, Forget, Link) rather than left
// to SQL triggers, which the note calls out as the more testable of the
// two options.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/yerr"
)

// SQLite result codes relevant to wrapDBError, per
// https://www.sqlite.org/rescode.html (mirrors the literal codes the
// teacher's server/dao/sqlite/sqlite.go checks against).
const (
	sqliteErrConstraint = 19
	sqliteErrBusy       = 5
	sqliteErrLocked     = 6
)

const schemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sentences (
	id INTEGER PRIMARY KEY,
	text TEXT NOT NULL UNIQUE,
	segmented TEXT NOT NULL,
	pronunciation TEXT NOT NULL,
	source_database TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL DEFAULT '',
	source_license TEXT NOT NULL DEFAULT '',
	source_creator TEXT NOT NULL DEFAULT '',
	last_seen INTEGER,
	min_unknown_frequency REAL,
	min_unknown_packed_id INTEGER
);

CREATE TABLE IF NOT EXISTS atoms (
	id INTEGER PRIMARY KEY,
	kind INTEGER NOT NULL,
	key_text TEXT NOT NULL,
	key_disambiguator TEXT NOT NULL DEFAULT '',
	key_secondary TEXT NOT NULL DEFAULT '',
	frequency REAL NOT NULL DEFAULT 0,
	fwd_last_refresh REAL,
	fwd_last_relearn REAL,
	bwd_last_refresh REAL,
	bwd_last_relearn REAL,
	UNIQUE(kind, key_text, key_disambiguator, key_secondary)
);

CREATE TABLE IF NOT EXISTS links (
	sentence_id INTEGER NOT NULL,
	atom_id INTEGER NOT NULL,
	UNIQUE(sentence_id, atom_id)
);
CREATE INDEX IF NOT EXISTS idx_links_sentence ON links(sentence_id);
CREATE INDEX IF NOT EXISTS idx_links_atom ON links(atom_id);

CREATE TABLE IF NOT EXISTS totals (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	lemma REAL NOT NULL DEFAULT 0,
	grammar REAL NOT NULL DEFAULT 0,
	grapheme REAL NOT NULL DEFAULT 0,
	pronunciation REAL NOT NULL DEFAULT 0,
	sound REAL NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO totals (id) VALUES (0);

CREATE TABLE IF NOT EXISTS review_queue (
	sentence_id INTEGER NOT NULL,
	review_type INTEGER NOT NULL,
	UNIQUE(sentence_id, review_type)
);

CREATE TABLE IF NOT EXISTS log_entries (
	id TEXT PRIMARY KEY,
	kind INTEGER NOT NULL,
	direction INTEGER NOT NULL,
	frequency REAL NOT NULL,
	time_since_last_refresh REAL NOT NULL,
	time_since_last_relearn REAL NOT NULL,
	remembered INTEGER NOT NULL,
	logged_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS engine_meta (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	blob TEXT NOT NULL
);
`

// Store is the modernc.org/sqlite-backed implementation of store.Store.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the schema above exists. It then runs the feature probe spec
// section 6 requires ("UPDATE t SET (a, b) = (SELECT ...)"); if the
// engine lacks that capability Open returns yerr.ErrUnsupportedStore.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}
	db.SetMaxOpenConns(1) // single-writer, cooperative (spec section 5)

	st := &Store{db: db, log: log}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, wrapDBError(err)
	}
	if err := st.probeFeatures(); err != nil {
		db.Close()
		return nil, err
	}
	if err := st.ensureMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// probeFeatures checks that the underlying engine supports tuple-
// assignment UPDATE, per spec section 6's feature probe.
func (s *Store) probeFeatures() error {
	_, err := s.db.Exec(`
		CREATE TEMP TABLE IF NOT EXISTS _yomimemo_probe (a INTEGER, b INTEGER);
		INSERT OR IGNORE INTO _yomimemo_probe (a, b) VALUES (0, 0);
		UPDATE _yomimemo_probe SET (a, b) = (SELECT 1, 2) WHERE rowid = 1;
		DROP TABLE _yomimemo_probe;
	`)
	if err != nil {
		s.log.Error("relational engine failed tuple-assignment feature probe", zap.Error(err))
		return yerr.New("engine requires SQLite 3.15.0 or later (tuple-assignment UPDATE)", yerr.ErrUnsupportedStore)
	}
	return nil
}

func (s *Store) ensureMeta() error {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM engine_meta WHERE id = 0`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		seed := time.Now().UnixNano()
		return s.SetMeta(context.Background(), store.EngineMeta{
			SchemaVersion:  schemaVersion,
			SchemaVariant:  store.TimestampVariant,
			RNGSeed:        seed,
			FeatureProbeOK: true,
		})
	}
	return wrapDBError(err)
}

// retryBusy runs fn, retrying with bounded exponential backoff when the
// underlying engine reports SQLITE_BUSY, per spec section 7's
// StoreBusy policy.
func retryBusy(fn func() error) error {
	const maxAttempts = 5
	wait := 5 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, yerr.ErrStoreBusy) {
			return err
		}
		time.Sleep(wait)
		wait *= 2
	}
	return err
}

// wrapDBError translates modernc.org/sqlite and database/sql sentinel
// errors into yerr sentinels, mirroring the teacher's wrapDBError in
// server/dao/sqlite/sqlite.go.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code() & 0xff // primary result code
		switch code {
		case sqliteErrConstraint:
			return yerr.New("", yerr.ErrConstraintViolation)
		case sqliteErrBusy, sqliteErrLocked:
			return yerr.New("", yerr.ErrStoreBusy)
		}
		return fmt.Errorf("sqlite: %s", sqliteErr.Error())
	}
	if errors.Is(err, sql.ErrNoRows) {
		return yerr.New("", yerr.ErrNotFound)
	}
	return err
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}
