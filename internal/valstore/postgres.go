package valstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/blegdams/journal-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store on a shared Postgres database, for
// labs where several reviewers validate against one central store.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a PostgresStore and runs its migration.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	reviewer   TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	closed_at  TIMESTAMPTZ,
	judgments  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS judgments (
	seq        BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	record_id  TEXT NOT NULL,
	field      TEXT NOT NULL,
	label      TEXT NOT NULL,
	corrected  TEXT,
	dataset    TEXT NOT NULL,
	reviewer   TEXT NOT NULL,
	decided_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_judgments_session ON judgments(session_id);
CREATE INDEX IF NOT EXISTS idx_judgments_field ON judgments(field);
`

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Begin(ctx context.Context, reviewer, dataset string) (*model.Session, error) {
	sess := model.Session{
		ID:        uuid.New().String(),
		Reviewer:  reviewer,
		Dataset:   dataset,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, reviewer, dataset, started_at) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.Reviewer, sess.Dataset, sess.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}
	return &sess, nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, j model.FieldJudgment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO judgments (session_id, record_id, field, label, corrected, dataset, reviewer, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sessionID, j.RecordID, j.Field, string(j.Label), j.CorrectedValue, j.DatasetFile, j.Reviewer, j.DecidedAt.UTC(),
	)
	if err != nil {
		return &WriteError{Target: "postgres:judgments", Err: err}
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE sessions SET judgments = judgments + 1 WHERE id = $1`, sessionID)
	return eris.Wrap(err, "postgres: bump judgment count")
}

func (s *PostgresStore) CloseSession(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET closed_at = $1 WHERE id = $2`, time.Now().UTC(), sessionID)
	if err != nil {
		return eris.Wrapf(err, "postgres: close session %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: session %s not found", sessionID)
	}
	return nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reviewer, dataset, started_at, closed_at, judgments
		 FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var closed *time.Time
		if err := rows.Scan(&sess.ID, &sess.Reviewer, &sess.Dataset, &sess.StartedAt, &closed, &sess.Judgments); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		if closed != nil {
			sess.ClosedAt = *closed
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: iterate sessions")
}

func (s *PostgresStore) ReadLog(ctx context.Context, sessionID string) ([]model.FieldJudgment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record_id, field, label, corrected, dataset, reviewer, decided_at
		 FROM judgments WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read log %s", sessionID)
	}
	defer rows.Close()

	var judgments []model.FieldJudgment
	for rows.Next() {
		var j model.FieldJudgment
		var label string
		var corrected *string
		if err := rows.Scan(&j.RecordID, &j.Field, &label, &corrected, &j.DatasetFile, &j.Reviewer, &j.DecidedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan judgment")
		}
		j.Label = model.Label(label)
		j.CorrectedValue = corrected
		judgments = append(judgments, j)
	}
	return judgments, eris.Wrap(rows.Err(), "postgres: iterate judgments")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
