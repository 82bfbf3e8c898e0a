package valstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blegdams/journal-cli/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresBegin(t *testing.T) {
	t.Parallel()
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(pgxmock.AnyArg(), "maarten", "transcriptions.jsonl", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sess, err := st.Begin(context.Background(), "maarten", "transcriptions.jsonl")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "maarten", sess.Reviewer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppend(t *testing.T) {
	t.Parallel()

	t.Run("success bumps the session count", func(t *testing.T) {
		t.Parallel()
		st, mock := newMockPostgres(t)

		mock.ExpectExec(`INSERT INTO judgments`).
			WithArgs("sess-1", "p1.png", "patient.name", "accept",
				pgxmock.AnyArg(), "d.jsonl", "maarten", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`UPDATE sessions SET judgments`).
			WithArgs("sess-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := st.Append(context.Background(), "sess-1", judgment("p1.png", "patient.name", model.LabelAccept))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure is a WriteError", func(t *testing.T) {
		t.Parallel()
		st, mock := newMockPostgres(t)

		mock.ExpectExec(`INSERT INTO judgments`).
			WillReturnError(errors.New("disk full"))

		err := st.Append(context.Background(), "sess-1", judgment("p1.png", "is_dead", model.LabelReject))
		var werr *WriteError
		require.ErrorAs(t, err, &werr)
		assert.Equal(t, "postgres:judgments", werr.Target)
	})
}

func TestPostgresCloseSession(t *testing.T) {
	t.Parallel()

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		st, mock := newMockPostgres(t)

		mock.ExpectExec(`UPDATE sessions SET closed_at`).
			WithArgs(pgxmock.AnyArg(), "nope").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.Error(t, st.CloseSession(context.Background(), "nope"))
	})
}

func TestPostgresReadLog(t *testing.T) {
	t.Parallel()
	st, mock := newMockPostgres(t)

	decided := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	corrected := "Jens Hansen"
	rows := pgxmock.NewRows([]string{"record_id", "field", "label", "corrected", "dataset", "reviewer", "decided_at"}).
		AddRow("p1.png", "patient.name", "corrected", &corrected, "d.jsonl", "maarten", decided).
		AddRow("p1.png", "is_dead", "accept", (*string)(nil), "d.jsonl", "maarten", decided)

	mock.ExpectQuery(`SELECT record_id, field, label`).
		WithArgs("sess-1").
		WillReturnRows(rows)

	judgments, err := st.ReadLog(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, judgments, 2)
	assert.Equal(t, model.LabelCorrected, judgments[0].Label)
	require.NotNil(t, judgments[0].CorrectedValue)
	assert.Equal(t, "Jens Hansen", *judgments[0].CorrectedValue)
	assert.Nil(t, judgments[1].CorrectedValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSessions(t *testing.T) {
	t.Parallel()
	st, mock := newMockPostgres(t)

	started := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	closed := started.Add(time.Hour)
	rows := pgxmock.NewRows([]string{"id", "reviewer", "dataset", "started_at", "closed_at", "judgments"}).
		AddRow("sess-1", "maarten", "d.jsonl", started, &closed, 12).
		AddRow("sess-2", "signe", "d.jsonl", started.Add(2*time.Hour), (*time.Time)(nil), 0)

	mock.ExpectQuery(`SELECT id, reviewer, dataset`).
		WillReturnRows(rows)

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 12, sessions[0].Judgments)
	assert.False(t, sessions[0].ClosedAt.IsZero())
	assert.True(t, sessions[1].ClosedAt.IsZero(), "open session has no closed_at")
}
