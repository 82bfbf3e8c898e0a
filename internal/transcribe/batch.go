package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/pkg/anthropic"
)

// BatchMetadata is persisted in the run directory so a batch can be
// retrieved later, possibly from another machine.
type BatchMetadata struct {
	BatchID     string    `json:"batch_id"`
	Model       string    `json:"model"`
	SubmittedAt time.Time `json:"submitted_at"`
	FileCount   int       `json:"file_count"`
}

const metadataFile = "batch_metadata.json"

// Submit preprocesses the given pages concurrently, creates a Message
// Batch, and records its metadata in a fresh run directory under
// runRoot. Returns the run directory path.
func (t *Transcriber) Submit(ctx context.Context, pages []string, runRoot string) (string, error) {
	if len(pages) == 0 {
		return "", eris.New("transcribe: no pages to submit")
	}

	items := make([]anthropic.BatchRequestItem, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.UploadLimit)
	for i, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			req, err := t.pageRequest(page)
			if err != nil {
				return err
			}
			items[i] = anthropic.BatchRequestItem{
				CustomID: filepath.Base(page),
				Params:   req,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", eris.Wrap(err, "transcribe: prepare batch")
	}

	batch, err := t.client.CreateBatch(ctx, anthropic.BatchRequest{Requests: items})
	if err != nil {
		return "", err
	}
	zap.L().Info("batch submitted",
		zap.String("batch_id", batch.ID),
		zap.String("status", batch.ProcessingStatus),
		zap.Int("pages", len(items)),
	)

	runDir := filepath.Join(runRoot, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", eris.Wrap(err, "transcribe: create run dir")
	}
	meta := BatchMetadata{
		BatchID:     batch.ID,
		Model:       t.opts.Model,
		SubmittedAt: time.Now().UTC(),
		FileCount:   len(items),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "transcribe: marshal batch metadata")
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0o644); err != nil {
		return "", eris.Wrap(err, "transcribe: write batch metadata")
	}
	return runDir, nil
}

// RetrieveResult reports the outcome of a retrieval attempt.
type RetrieveResult struct {
	Status  string
	Records int
	Errored int
	Output  string
}

// Retrieve checks the batch recorded in runDir and, when it has ended,
// writes the transcription dataset next to the metadata. When the batch
// is still processing the result carries the current status and no
// records.
func (t *Transcriber) Retrieve(ctx context.Context, runDir string) (*RetrieveResult, error) {
	meta, err := ReadMetadata(runDir)
	if err != nil {
		return nil, err
	}

	batch, err := t.client.GetBatch(ctx, meta.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.ProcessingStatus != "ended" {
		zap.L().Info("batch still processing",
			zap.String("batch_id", meta.BatchID),
			zap.String("status", batch.ProcessingStatus),
			zap.Int64("processing", batch.RequestCounts.Processing),
			zap.Int64("succeeded", batch.RequestCounts.Succeeded),
		)
		return &RetrieveResult{Status: batch.ProcessingStatus}, nil
	}

	it, err := t.client.GetBatchResults(ctx, meta.BatchID)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	res := &RetrieveResult{Status: batch.ProcessingStatus}
	var recs []batchRecord
	for it.Next() {
		item := it.Item()
		if item.Type != "succeeded" {
			zap.L().Warn("batch item failed",
				zap.String("page", item.CustomID),
				zap.String("type", item.Type),
			)
			res.Errored++
			continue
		}
		rec, err := ParseRecord(item.Message.Text, item.CustomID)
		if err != nil {
			zap.L().Warn("unparseable batch result",
				zap.String("page", item.CustomID),
				zap.Error(err),
			)
			res.Errored++
			continue
		}
		item.Message.Usage.LogCost(meta.Model, item.CustomID)
		recs = append(recs, batchRecord{id: item.CustomID, rec: rec})
	}
	if err := it.Err(); err != nil {
		return nil, eris.Wrap(err, "transcribe: stream batch results")
	}

	// result order is not guaranteed, sort by page name
	sort.Slice(recs, func(i, j int) bool { return recs[i].id < recs[j].id })

	out := filepath.Join(runDir, "transcriptions.jsonl")
	flat := make([]model.TranscriptionRecord, 0, len(recs))
	for _, r := range recs {
		flat = append(flat, r.rec)
	}
	if err := WriteJSONL(out, flat); err != nil {
		return nil, err
	}
	res.Records = len(flat)
	res.Output = out
	return res, nil
}

type batchRecord struct {
	id  string
	rec model.TranscriptionRecord
}

// ReadMetadata loads the batch metadata from a run directory.
func ReadMetadata(runDir string) (*BatchMetadata, error) {
	data, err := os.ReadFile(filepath.Join(runDir, metadataFile))
	if err != nil {
		return nil, eris.Wrap(err, "transcribe: read batch metadata")
	}
	var meta BatchMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, eris.Wrap(err, "transcribe: parse batch metadata")
	}
	return &meta, nil
}

// LatestRunDir returns the most recent run directory under root that
// holds batch metadata.
func LatestRunDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", eris.Wrap(err, "transcribe: read runs dir")
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, metadataFile)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return "", eris.New("transcribe: no batch runs found")
	}
	sort.Strings(dirs)
	return dirs[len(dirs)-1], nil
}
