package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dekarrin/yomimemo/internal/store"
)

// AppendLog records one completed review outcome. Touch calls
// appendLogTx directly from within its own transaction; this method
// exists for callers (internal/transfer, log replay during migration)
// that need to append outside of a Touch call.
func (s *Store) AppendLog(ctx context.Context, entry store.LogEntry) error {
	return retryBusy(func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return appendLogTx(ctx, tx, entry)
		})
	})
}

func (s *Store) AllLogs(ctx context.Context) ([]store.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, direction, frequency, time_since_last_refresh, time_since_last_relearn, remembered, logged_at
		FROM log_entries ORDER BY logged_at ASC`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, wrapDBError(err)
		}
		all = append(all, entry)
	}
	return all, wrapDBError(rows.Err())
}

// appendLogTx inserts entry within an already-open transaction (or any
// querier), assigning a fresh ID if entry.ID is empty.
func appendLogTx(ctx context.Context, q querier, entry store.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO log_entries
			(id, kind, direction, frequency, time_since_last_refresh, time_since_last_relearn, remembered, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, int(entry.Kind), int(entry.Direction), entry.Frequency,
		entry.TimeSinceLastRefresh, entry.TimeSinceLastRelearn, entry.Remembered, entry.LoggedAt.Unix(),
	)
	return wrapDBError(err)
}

func scanLogEntry(row scanner) (store.LogEntry, error) {
	var entry store.LogEntry
	var kind, direction int
	var loggedAt int64
	err := row.Scan(&entry.ID, &kind, &direction, &entry.Frequency,
		&entry.TimeSinceLastRefresh, &entry.TimeSinceLastRelearn, &entry.Remembered, &loggedAt)
	if err != nil {
		return store.LogEntry{}, err
	}
	entry.Kind = store.Kind(kind)
	entry.Direction = store.Direction(direction)
	entry.LoggedAt = time.Unix(loggedAt, 0)
	return entry, nil
}
