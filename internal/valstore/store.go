// Package valstore persists validation sessions and their field
// judgments. The primary backend is an append-only JSONL log per
// session; SQLite and Postgres backends mirror the same contract for
// shared deployments.
package valstore

import (
	"context"
	"fmt"

	"github.com/blegdams/journal-cli/internal/model"
)

// Store is the persistence contract for validation sessions. Append is
// strictly append-only and never rejects duplicates; duplicate
// suppression is the session's responsibility. Readers receive
// judgments in exact append order.
type Store interface {
	Begin(ctx context.Context, reviewer, dataset string) (*model.Session, error)
	Append(ctx context.Context, sessionID string, j model.FieldJudgment) error
	CloseSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]model.Session, error)
	ReadLog(ctx context.Context, sessionID string) ([]model.FieldJudgment, error)
	Close() error
}

// WriteError marks a failed append to the validation log. It is fatal
// for the session: without durable persistence no further judgments can
// be safely collected. Already-written judgments remain intact.
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("valstore: write to %s failed: %v", e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
