package valstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/blegdams/journal-cli/internal/model"
)

const (
	logFileName  = "validations.jsonl"
	metaFileName = "session.json"
	runLogName   = "session.log"
)

// JSONLStore keeps one directory per session under a root directory,
// named <reviewer>_<yyyymmdd_hhmmss>. Judgments are appended to
// validations.jsonl, one JSON object per line, synced after every
// append. A plain-text session.log records session events.
type JSONLStore struct {
	root string

	mu   sync.Mutex
	open map[string]*sessionFiles
}

type sessionFiles struct {
	meta model.Session
	log  *os.File
	run  *os.File
}

// NewJSONL creates a JSONL store rooted at dir, creating it if needed.
func NewJSONL(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "valstore: create root %s", dir)
	}
	return &JSONLStore{root: dir, open: make(map[string]*sessionFiles)}, nil
}

// Root returns the store's root directory.
func (s *JSONLStore) Root() string { return s.root }

func (s *JSONLStore) Begin(_ context.Context, reviewer, dataset string) (*model.Session, error) {
	now := time.Now()
	id := fmt.Sprintf("%s_%s", reviewer, now.Format("20060102_150405"))
	dir := filepath.Join(s.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "valstore: create session dir %s", dir)
	}

	logFile, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "valstore: open judgment log")
	}
	runFile, err := os.OpenFile(filepath.Join(dir, runLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logFile.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "valstore: open session log")
	}

	sess := model.Session{
		ID:        id,
		Reviewer:  reviewer,
		Dataset:   dataset,
		StartedAt: now,
		LogPath:   filepath.Join(dir, logFileName),
	}

	s.mu.Lock()
	s.open[id] = &sessionFiles{meta: sess, log: logFile, run: runFile}
	s.mu.Unlock()

	if err := s.writeMeta(dir, sess); err != nil {
		return nil, err
	}
	s.Log(id, "session started")
	return &sess, nil
}

func (s *JSONLStore) Append(_ context.Context, sessionID string, j model.FieldJudgment) error {
	s.mu.Lock()
	sf, ok := s.open[sessionID]
	s.mu.Unlock()
	if !ok {
		return eris.Errorf("valstore: unknown or closed session %s", sessionID)
	}

	line, err := json.Marshal(j)
	if err != nil {
		return eris.Wrap(err, "valstore: marshal judgment")
	}
	if _, err := sf.log.Write(append(line, '\n')); err != nil {
		return &WriteError{Target: sf.log.Name(), Err: err}
	}
	if err := sf.log.Sync(); err != nil {
		return &WriteError{Target: sf.log.Name(), Err: err}
	}

	s.mu.Lock()
	sf.meta.Judgments++
	s.mu.Unlock()
	return nil
}

func (s *JSONLStore) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	sf, ok := s.open[sessionID]
	delete(s.open, sessionID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	sf.meta.ClosedAt = time.Now()
	fmt.Fprintf(sf.run, "[%s] session closed with %d judgments\n",
		sf.meta.ClosedAt.Format(time.RFC3339), sf.meta.Judgments)
	sf.run.Close() //nolint:errcheck
	if err := sf.log.Close(); err != nil {
		return &WriteError{Target: sf.log.Name(), Err: err}
	}
	return s.writeMeta(filepath.Join(s.root, sessionID), sf.meta)
}

// Log appends a timestamped line to the session's plain-text log.
// Logging failures are swallowed: the run log is an aid, not a record.
func (s *JSONLStore) Log(sessionID, message string) {
	s.mu.Lock()
	sf, ok := s.open[sessionID]
	s.mu.Unlock()
	if !ok {
		return
	}
	fmt.Fprintf(sf.run, "[%s] %s\n", time.Now().Format(time.RFC3339), message)
}

func (s *JSONLStore) ListSessions(_ context.Context) ([]model.Session, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, eris.Wrapf(err, "valstore: read root %s", s.root)
	}
	var sessions []model.Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, e.Name(), metaFileName))
		if err != nil {
			continue // not a session dir
		}
		var sess model.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions, nil
}

func (s *JSONLStore) ReadLog(_ context.Context, sessionID string) ([]model.FieldJudgment, error) {
	return ReadLogFile(filepath.Join(s.root, sessionID, logFileName))
}

func (s *JSONLStore) Close() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		if err := s.CloseSession(context.Background(), id); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONLStore) writeMeta(dir string, sess model.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return eris.Wrap(err, "valstore: marshal session meta")
	}
	if err := os.WriteFile(filepath.Join(dir, metaFileName), data, 0o644); err != nil {
		return &WriteError{Target: filepath.Join(dir, metaFileName), Err: err}
	}
	return nil
}

// ReadLogFile reads one JSONL validation log, preserving append order.
func ReadLogFile(path string) ([]model.FieldJudgment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "valstore: open log %s", path)
	}
	defer f.Close() //nolint:errcheck

	var judgments []model.FieldJudgment
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var j model.FieldJudgment
		if err := json.Unmarshal([]byte(text), &j); err != nil {
			return nil, eris.Wrapf(err, "valstore: decode %s line %d", path, line)
		}
		judgments = append(judgments, j)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "valstore: scan %s", path)
	}
	return judgments, nil
}

// CollectLogs finds every validation log under path. A file path is
// treated as a single log; a directory is searched recursively for
// .jsonl files. Logs come back as one ordered judgment slice per log,
// sorted by path so repeat runs see identical input order.
func CollectLogs(path string) ([][]model.FieldJudgment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "valstore: stat %s", path)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".jsonl") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "valstore: walk %s", path)
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	var logs [][]model.FieldJudgment
	for _, f := range files {
		judgments, err := ReadLogFile(f)
		if err != nil {
			return nil, err
		}
		logs = append(logs, judgments)
	}
	return logs, nil
}
