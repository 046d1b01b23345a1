package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/draftdesk/docfill/internal/model"
)

// SQLiteStore implements ReferenceStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ ReferenceStore = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS refs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL DEFAULT '',
	aggregate  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ref_actions (
	id     TEXT PRIMARY KEY,
	ref_id INTEGER NOT NULL REFERENCES refs(id),
	at     DATETIME NOT NULL,
	entry  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ref_artifacts (
	id         TEXT PRIMARY KEY,
	ref_id     INTEGER NOT NULL REFERENCES refs(id),
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	written_at DATETIME NOT NULL,
	UNIQUE (ref_id, name)
);

CREATE INDEX IF NOT EXISTS idx_ref_actions_ref_id ON ref_actions(ref_id);
CREATE INDEX IF NOT EXISTS idx_ref_artifacts_ref_id ON ref_artifacts(ref_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, ref *model.Reference) error {
	// Insert a stub row first so AUTOINCREMENT assigns the id, then save the
	// aggregate with the id baked into its JSON.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO refs (title, aggregate, created_at, updated_at) VALUES (?, '{}', ?, ?)`,
		ref.Title, ref.CreatedAt.UTC(), ref.UpdatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert reference")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	ref.ID = id
	return s.Save(ctx, ref)
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Reference, error) {
	var aggregate string
	err := s.db.QueryRowContext(ctx, `SELECT aggregate FROM refs WHERE id = ?`, id).Scan(&aggregate)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: reference %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get reference %d", id)
	}
	var ref model.Reference
	if err := json.Unmarshal([]byte(aggregate), &ref); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal reference %d", id)
	}
	return &ref, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ref *model.Reference) error {
	aggregate, err := json.Marshal(ref)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reference")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE refs SET title = ?, aggregate = ?, updated_at = ? WHERE id = ?`,
		ref.Title, string(aggregate), time.Now().UTC(), ref.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save reference %d", ref.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "sqlite: reference %d", ref.ID)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT aggregate FROM refs ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list references")
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var aggregate string
		if err := rows.Scan(&aggregate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reference")
		}
		var ref model.Reference
		if err := json.Unmarshal([]byte(aggregate), &ref); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal reference")
		}
		refs = append(refs, ref)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: list references iterate")
}

func (s *SQLiteStore) AppendAction(ctx context.Context, refID int64, entry model.ActionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal action")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ref_actions (id, ref_id, at, entry) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), refID, entry.Timestamp.UTC(), string(payload),
	)
	return eris.Wrapf(err, "sqlite: append action for reference %d", refID)
}

func (s *SQLiteStore) ReadActions(ctx context.Context, refID int64, limit int) ([]model.ActionEntry, error) {
	query := `SELECT entry FROM ref_actions WHERE ref_id = ? ORDER BY rowid DESC`
	args := []any{refID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read actions for reference %d", refID)
	}
	defer rows.Close()

	var actions []model.ActionEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan action")
		}
		var e model.ActionEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal action")
		}
		actions = append(actions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: read actions iterate")
	}

	// The query returns newest-first; flip to chronological order.
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions, nil
}

func (s *SQLiteStore) WriteArtifact(ctx context.Context, refID int64, name string, data []byte) error {
	if !validArtifactName(name) {
		return eris.Wrapf(model.ErrInvalidRequest, "sqlite: artifact name %q", name)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ref_artifacts (id, ref_id, name, data, written_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (ref_id, name) DO UPDATE SET data = excluded.data, written_at = excluded.written_at`,
		uuid.New().String(), refID, name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: write artifact %s for reference %d", name, refID)
}

func (s *SQLiteStore) ReadArtifact(ctx context.Context, refID int64, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM ref_artifacts WHERE ref_id = ? AND name = ?`,
		refID, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: artifact %s for reference %d", name, refID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read artifact %s for reference %d", name, refID)
	}
	return data, nil
}
