package sqlite

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/yerr"
)

// Meta reads the engine_meta singleton row, REZI-decoding its base64 blob
// the same way the teacher's server/dao/sqlite decodes game.State.
func (s *Store) Meta(ctx context.Context) (store.EngineMeta, error) {
	row := s.db.QueryRowContext(ctx, `SELECT blob FROM engine_meta WHERE id = 0`)
	var encoded string
	if err := row.Scan(&encoded); err != nil {
		return store.EngineMeta{}, wrapDBError(err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return store.EngineMeta{}, yerr.New("decode stored engine_meta", err, yerr.ErrDecodingFailure)
	}

	var meta store.EngineMeta
	n, err := rezi.DecBinary(raw, &meta)
	if err != nil {
		return store.EngineMeta{}, yerr.New("REZI decode engine_meta", err, yerr.ErrDecodingFailure)
	}
	if n != len(raw) {
		return store.EngineMeta{}, yerr.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(raw)), yerr.ErrDecodingFailure)
	}
	return meta, nil
}

func (s *Store) SetMeta(ctx context.Context, meta store.EngineMeta) error {
	raw := rezi.EncBinary(meta)
	encoded := base64.StdEncoding.EncodeToString(raw)
	return retryBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO engine_meta (id, blob) VALUES (0, ?)
			ON CONFLICT(id) DO UPDATE SET blob = excluded.blob`, encoded)
		return wrapDBError(err)
	})
}
