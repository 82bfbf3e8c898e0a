package valstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blegdams/journal-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestSQLite(t)

	sess, err := st.Begin(ctx, "maarten", "transcriptions.jsonl")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	corrected := "Jens Hansen"
	judgments := []model.FieldJudgment{
		judgment("p1.png", "patient.name", model.LabelCorrected),
		judgment("p1.png", "is_dead", model.LabelAccept),
		judgment("p2.png", "patient.name", model.LabelReject),
	}
	judgments[0].CorrectedValue = &corrected
	for _, j := range judgments {
		require.NoError(t, st.Append(ctx, sess.ID, j))
	}
	require.NoError(t, st.CloseSession(ctx, sess.ID))

	got, err := st.ReadLog(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "p1.png", got[0].RecordID, "insertion order preserved")
	require.NotNil(t, got[0].CorrectedValue)
	assert.Equal(t, "Jens Hansen", *got[0].CorrectedValue)
	assert.Nil(t, got[1].CorrectedValue)

	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 3, sessions[0].Judgments)
	assert.False(t, sessions[0].ClosedAt.IsZero())
}

func TestSQLiteCloseUnknownSession(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)

	err := st.CloseSession(context.Background(), "not-a-session")
	assert.Error(t, err)
}

func TestSQLiteEmptyLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestSQLite(t)

	sess, err := st.Begin(ctx, "signe", "d.jsonl")
	require.NoError(t, err)

	got, err := st.ReadLog(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
