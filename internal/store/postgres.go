package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/draftdesk/docfill/internal/db"
	"github.com/draftdesk/docfill/internal/model"
)

// PostgresStore implements ReferenceStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var _ ReferenceStore = (*PostgresStore)(nil)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS refs (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	aggregate  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ref_actions (
	id     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seq    BIGSERIAL,
	ref_id BIGINT NOT NULL REFERENCES refs(id),
	at     TIMESTAMPTZ NOT NULL,
	entry  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS ref_artifacts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ref_id     BIGINT NOT NULL REFERENCES refs(id),
	name       TEXT NOT NULL,
	data       BYTEA NOT NULL,
	written_at TIMESTAMPTZ NOT NULL,
	UNIQUE (ref_id, name)
);

CREATE INDEX IF NOT EXISTS idx_ref_actions_ref_seq ON ref_actions(ref_id, seq);
CREATE INDEX IF NOT EXISTS idx_ref_artifacts_ref_id ON ref_artifacts(ref_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, ref *model.Reference) error {
	// Insert a stub row first so BIGSERIAL assigns the id, then save the
	// aggregate with the id baked into its JSON.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO refs (title, aggregate, created_at, updated_at) VALUES ($1, '{}', $2, $3) RETURNING id`,
		ref.Title, ref.CreatedAt.UTC(), ref.UpdatedAt.UTC(),
	).Scan(&ref.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert reference")
	}
	return s.Save(ctx, ref)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*model.Reference, error) {
	var aggregate []byte
	err := s.pool.QueryRow(ctx, `SELECT aggregate FROM refs WHERE id = $1`, id).Scan(&aggregate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: reference %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get reference %d", id)
	}
	var ref model.Reference
	if err := json.Unmarshal(aggregate, &ref); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal reference %d", id)
	}
	return &ref, nil
}

func (s *PostgresStore) Save(ctx context.Context, ref *model.Reference) error {
	aggregate, err := json.Marshal(ref)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal reference")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE refs SET title = $1, aggregate = $2, updated_at = $3 WHERE id = $4`,
		ref.Title, aggregate, time.Now().UTC(), ref.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save reference %d", ref.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "postgres: reference %d", ref.ID)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx, `SELECT aggregate FROM refs ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list references")
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var aggregate []byte
		if err := rows.Scan(&aggregate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reference")
		}
		var ref model.Reference
		if err := json.Unmarshal(aggregate, &ref); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal reference")
		}
		refs = append(refs, ref)
	}
	return refs, eris.Wrap(rows.Err(), "postgres: list references iterate")
}

func (s *PostgresStore) AppendAction(ctx context.Context, refID int64, entry model.ActionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal action")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ref_actions (id, ref_id, at, entry) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), refID, entry.Timestamp.UTC(), payload,
	)
	return eris.Wrapf(err, "postgres: append action for reference %d", refID)
}

func (s *PostgresStore) ReadActions(ctx context.Context, refID int64, limit int) ([]model.ActionEntry, error) {
	query := `SELECT entry FROM ref_actions WHERE ref_id = $1 ORDER BY seq DESC`
	args := []any{refID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read actions for reference %d", refID)
	}
	defer rows.Close()

	var actions []model.ActionEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan action")
		}
		var e model.ActionEntry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal action")
		}
		actions = append(actions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: read actions iterate")
	}

	// The query returns newest-first; flip to chronological order.
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions, nil
}

func (s *PostgresStore) WriteArtifact(ctx context.Context, refID int64, name string, data []byte) error {
	if !validArtifactName(name) {
		return eris.Wrapf(model.ErrInvalidRequest, "postgres: artifact name %q", name)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ref_artifacts (id, ref_id, name, data, written_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (ref_id, name) DO UPDATE SET data = EXCLUDED.data, written_at = EXCLUDED.written_at`,
		uuid.New().String(), refID, name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: write artifact %s for reference %d", name, refID)
}

func (s *PostgresStore) ReadArtifact(ctx context.Context, refID int64, name string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM ref_artifacts WHERE ref_id = $1 AND name = $2`,
		refID, name,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: artifact %s for reference %d", name, refID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read artifact %s for reference %d", name, refID)
	}
	return data, nil
}
