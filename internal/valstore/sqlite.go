package valstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/blegdams/journal-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	reviewer   TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	closed_at  DATETIME,
	judgments  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS judgments (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	record_id  TEXT NOT NULL,
	field      TEXT NOT NULL,
	label      TEXT NOT NULL,
	corrected  TEXT,
	dataset    TEXT NOT NULL,
	reviewer   TEXT NOT NULL,
	decided_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_judgments_session ON judgments(session_id);
CREATE INDEX IF NOT EXISTS idx_judgments_field ON judgments(field);
CREATE INDEX IF NOT EXISTS idx_sessions_reviewer ON sessions(reviewer);
`

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Begin(ctx context.Context, reviewer, dataset string) (*model.Session, error) {
	sess := model.Session{
		ID:        uuid.New().String(),
		Reviewer:  reviewer,
		Dataset:   dataset,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, reviewer, dataset, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Reviewer, sess.Dataset, sess.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}
	return &sess, nil
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, j model.FieldJudgment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO judgments (session_id, record_id, field, label, corrected, dataset, reviewer, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, j.RecordID, j.Field, string(j.Label), j.CorrectedValue, j.DatasetFile, j.Reviewer, j.DecidedAt.UTC(),
	)
	if err != nil {
		return &WriteError{Target: "sqlite:judgments", Err: err}
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET judgments = judgments + 1 WHERE id = ?`, sessionID)
	return eris.Wrap(err, "sqlite: bump judgment count")
}

func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET closed_at = ? WHERE id = ?`, time.Now().UTC(), sessionID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: close session %s", sessionID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: session %s not found", sessionID)
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reviewer, dataset, started_at, closed_at, judgments
		 FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close() //nolint:errcheck

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var closed sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Reviewer, &sess.Dataset, &sess.StartedAt, &closed, &sess.Judgments); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		if closed.Valid {
			sess.ClosedAt = closed.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: iterate sessions")
}

func (s *SQLiteStore) ReadLog(ctx context.Context, sessionID string) ([]model.FieldJudgment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, field, label, corrected, dataset, reviewer, decided_at
		 FROM judgments WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read log %s", sessionID)
	}
	defer rows.Close() //nolint:errcheck

	var judgments []model.FieldJudgment
	for rows.Next() {
		var j model.FieldJudgment
		var label string
		var corrected sql.NullString
		if err := rows.Scan(&j.RecordID, &j.Field, &label, &corrected, &j.DatasetFile, &j.Reviewer, &j.DecidedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan judgment")
		}
		j.Label = model.Label(label)
		if corrected.Valid {
			j.CorrectedValue = &corrected.String
		}
		judgments = append(judgments, j)
	}
	return judgments, eris.Wrap(rows.Err(), "sqlite: iterate judgments")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
