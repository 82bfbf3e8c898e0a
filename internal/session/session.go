// Package session drives the interactive validation of a transcription
// dataset against its source images. The walkthrough is an explicit
// state machine driven through a Prompter, so the same loop serves a
// terminal reviewer and a scripted test harness.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/dataset"
	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/internal/valstore"
)

// State is the session's position in its walkthrough.
type State int

const (
	StateNotStarted State = iota
	StatePresentingRecord
	StateAwaitingVerdict
	StateAwaitingCorrection
	StateClosed
)

// Config holds per-session settings. Passing these explicitly (rather
// than through process globals) keeps concurrent sessions and tests
// from contaminating each other.
type Config struct {
	Reviewer    string
	DatasetFile string
	Corrections bool
	Shuffle     bool
	// Seed drives the shuffle order; 0 picks a random seed. The seed
	// in effect is logged for provenance either way.
	Seed uint64
}

// Prompt is what the reviewer sees for one field.
type Prompt struct {
	RecordID    string
	Field       string
	Value       string
	ImagePath   string
	RecordIndex int
	RecordTotal int
}

// Verdict is the reviewer's response to a prompt.
type Verdict struct {
	Label model.Label
	// Quit closes the session; nothing further is appended.
	Quit bool
}

// Prompter supplies reviewer input. Correction is only called when the
// session runs with corrections enabled and the reviewer chose the
// corrected label.
type Prompter interface {
	Verdict(p Prompt) (Verdict, error)
	Correction(p Prompt) (string, error)
}

// runLogger is implemented by stores that keep a per-session text log.
type runLogger interface {
	Log(sessionID, message string)
}

// Summary reports what a finished session covered.
type Summary struct {
	SessionID      string
	Judgments      int
	RecordsSeen    int
	RecordsSkipped int
	EndedEarly     bool
}

// Session walks records in dataset order (or shuffled), collecting one
// judgment per reviewable field.
type Session struct {
	cfg      Config
	store    valstore.Store
	schema   *model.Schema
	images   *dataset.ImageIndex
	prompter Prompter

	state State
	seen  map[pairKey]bool
}

type pairKey struct {
	record string
	field  string
}

// New assembles a session from its collaborators.
func New(cfg Config, store valstore.Store, schema *model.Schema, images *dataset.ImageIndex, prompter Prompter) *Session {
	return &Session{
		cfg:      cfg,
		store:    store,
		schema:   schema,
		images:   images,
		prompter: prompter,
		state:    StateNotStarted,
		seen:     make(map[pairKey]bool),
	}
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Run validates every record and closes the session. A closed session
// cannot be re-entered; a resumed review is a new session with a new
// log. Per-record failures (unresolvable image, malformed record) are
// skipped with a warning; a store write failure aborts immediately,
// keeping everything already appended.
func (s *Session) Run(ctx context.Context, records []model.TranscriptionRecord) (*Summary, error) {
	if s.state != StateNotStarted {
		return nil, eris.New("session: already started")
	}

	sess, err := s.store.Begin(ctx, s.cfg.Reviewer, s.cfg.DatasetFile)
	if err != nil {
		return nil, eris.Wrap(err, "session: begin")
	}
	summary := &Summary{SessionID: sess.ID}

	records = s.order(records, sess.ID)

	defer func() {
		s.state = StateClosed
		if closeErr := s.store.CloseSession(ctx, sess.ID); closeErr != nil {
			zap.L().Error("session: close", zap.Error(closeErr))
		}
	}()

	for i, rec := range records {
		s.state = StatePresentingRecord

		imagePath, err := s.resolve(rec)
		if err != nil {
			summary.RecordsSkipped++
			s.log(sess.ID, "skipped record "+rec.FileName+": "+err.Error())
			zap.L().Warn("skipping record",
				zap.String("record", rec.FileName),
				zap.Error(err),
			)
			continue
		}

		fields := dataset.Flatten(rec)
		if len(fields) == 0 {
			summary.RecordsSkipped++
			s.log(sess.ID, "skipped record "+rec.FileName+": no reviewable fields")
			zap.L().Warn("skipping record with no reviewable fields",
				zap.String("record", rec.FileName))
			continue
		}

		summary.RecordsSeen++
		done, err := s.reviewRecord(ctx, sess.ID, rec, imagePath, fields, i, len(records), summary)
		if err != nil {
			return summary, err
		}
		if done {
			summary.EndedEarly = true
			s.log(sess.ID, "reviewer ended session early")
			return summary, nil
		}
	}

	s.log(sess.ID, "all records reviewed")
	return summary, nil
}

// reviewRecord collects judgments for each field of one record. The
// returned bool reports whether the reviewer quit.
func (s *Session) reviewRecord(ctx context.Context, sessionID string, rec model.TranscriptionRecord, imagePath string, fields []dataset.FlatField, idx, total int, summary *Summary) (bool, error) {
	for _, f := range fields {
		key := pairKey{record: rec.FileName, field: f.Path}
		if s.seen[key] {
			continue
		}

		prompt := Prompt{
			RecordID:    rec.FileName,
			Field:       f.Path,
			Value:       dataset.FormatValue(f.Value),
			ImagePath:   imagePath,
			RecordIndex: idx + 1,
			RecordTotal: total,
		}

		s.state = StateAwaitingVerdict
		verdict, err := s.prompter.Verdict(prompt)
		if err != nil {
			return false, eris.Wrap(err, "session: read verdict")
		}
		if verdict.Quit {
			return true, nil
		}
		if !verdict.Label.Valid() {
			return false, eris.Errorf("session: invalid label %q", verdict.Label)
		}

		judgment := model.FieldJudgment{
			RecordID:    rec.FileName,
			Field:       f.Path,
			Label:       verdict.Label,
			DatasetFile: s.cfg.DatasetFile,
			Reviewer:    s.cfg.Reviewer,
			DecidedAt:   time.Now(),
		}

		if verdict.Label == model.LabelCorrected {
			if !s.cfg.Corrections {
				return false, eris.New("session: corrections are disabled")
			}
			corrected, err := s.readCorrection(prompt)
			if err != nil {
				return false, err
			}
			judgment.CorrectedValue = &corrected
		}

		// The judgment is atomic: verdict and correction are captured
		// together before anything is appended.
		if err := s.store.Append(ctx, sessionID, judgment); err != nil {
			var werr *valstore.WriteError
			if errors.As(err, &werr) {
				return false, eris.Wrap(err, "session: aborting, validation log is not writable")
			}
			return false, eris.Wrap(err, "session: append judgment")
		}

		s.seen[key] = true
		summary.Judgments++
		s.log(sessionID, "marked "+rec.FileName+" "+f.Path+" label="+string(verdict.Label))
	}
	return false, nil
}

// readCorrection prompts until the entered value satisfies the schema
// type for the field.
func (s *Session) readCorrection(prompt Prompt) (string, error) {
	for {
		s.state = StateAwaitingCorrection
		text, err := s.prompter.Correction(prompt)
		if err != nil {
			return "", eris.Wrap(err, "session: read correction")
		}
		if _, err := s.schema.ParseValue(prompt.Field, text); err != nil {
			zap.L().Warn("invalid correction", zap.String("field", prompt.Field), zap.Error(err))
			continue
		}
		return text, nil
	}
}

// resolve locates the record's source image, folding malformed records
// and unresolvable references into skippable errors.
func (s *Session) resolve(rec model.TranscriptionRecord) (string, error) {
	path, err := s.images.Resolve(rec)
	if err != nil {
		var resErr *dataset.ResolutionError
		var malErr *dataset.MalformedRecordError
		if errors.As(err, &resErr) || errors.As(err, &malErr) {
			return "", err
		}
		return "", eris.Wrap(err, "session: resolve image")
	}
	return path, nil
}

// order applies the configured record order. Shuffling logs its seed,
// as re-running with the same seed reproduces the walkthrough.
func (s *Session) order(records []model.TranscriptionRecord, sessionID string) []model.TranscriptionRecord {
	if !s.cfg.Shuffle {
		return records
	}
	seed := s.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	shuffled := make([]model.TranscriptionRecord, len(records))
	copy(shuffled, records)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	s.log(sessionID, "shuffled record order")
	zap.L().Info("shuffled record order", zap.Uint64("seed", seed))
	return shuffled
}

func (s *Session) log(sessionID, message string) {
	if rl, ok := s.store.(runLogger); ok {
		rl.Log(sessionID, message)
	}
}
