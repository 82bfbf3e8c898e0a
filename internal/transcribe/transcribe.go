// Package transcribe turns scanned journal pages into transcription
// records by sending each page image to Claude with a schema-derived
// extraction prompt.
package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/internal/preprocess"
	"github.com/blegdams/journal-cli/pkg/anthropic"
)

// Options configures a Transcriber.
type Options struct {
	Model       string
	MaxTokens   int64
	Preprocess  preprocess.Options
	UploadLimit int // concurrent page preparations for batch submit
}

// Transcriber extracts structured records from journal page scans.
type Transcriber struct {
	client anthropic.Client
	schema *model.Schema
	opts   Options
}

// New creates a Transcriber over the given client and field schema.
func New(client anthropic.Client, schema *model.Schema, opts Options) *Transcriber {
	if opts.UploadLimit < 1 {
		opts.UploadLimit = 1
	}
	return &Transcriber{client: client, schema: schema, opts: opts}
}

// Page transcribes a single scanned page and returns the parsed record.
func (t *Transcriber) Page(ctx context.Context, path string) (model.TranscriptionRecord, error) {
	req, err := t.pageRequest(path)
	if err != nil {
		return model.TranscriptionRecord{}, err
	}

	start := time.Now()
	resp, err := t.client.CreateMessage(ctx, req)
	if err != nil {
		return model.TranscriptionRecord{}, eris.Wrap(err, "transcribe: create message")
	}
	resp.Usage.LogCost(t.opts.Model, filepath.Base(path))

	rec, err := ParseRecord(resp.Text, filepath.Base(path))
	if err != nil {
		return model.TranscriptionRecord{}, err
	}
	rec.Fields["generation_seconds"] = time.Since(start).Seconds()
	return rec, nil
}

// pageRequest preprocesses a page image and builds its vision request.
func (t *Transcriber) pageRequest(path string) (anthropic.MessageRequest, error) {
	data, mime, err := preprocess.Process(path, t.opts.Preprocess)
	if err != nil {
		return anthropic.MessageRequest{}, eris.Wrap(err, "transcribe: preprocess page")
	}

	return anthropic.MessageRequest{
		Model:     t.opts.Model,
		MaxTokens: t.opts.MaxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{{
			Role: "user",
			Text: extractionPrompt(t.schema),
			Image: &anthropic.ImageBlock{
				MediaType: mime,
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		}},
	}, nil
}

// ParseRecord parses a model response into a transcription record. The
// response may wrap the JSON object in markdown fences; dotted keys are
// expanded into nested objects so records match the dataset shape.
func ParseRecord(text, fileName string) (model.TranscriptionRecord, error) {
	raw := stripFences(text)

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.TranscriptionRecord{}, eris.Wrap(err, "transcribe: parse response")
	}

	fields = expandDotted(fields)
	fields["file_name"] = fileName
	return model.TranscriptionRecord{FileName: fileName, Fields: fields}, nil
}

// stripFences removes a surrounding markdown code fence, if present,
// and trims to the outermost JSON object.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndex(s, "}"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return s
}

// expandDotted converts keys like "patient.age.num" into nested maps.
// Already-nested values are kept as they are.
func expandDotted(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, val := range fields {
		parts := strings.Split(key, ".")
		node := out
		for i, part := range parts {
			if i == len(parts)-1 {
				node[part] = val
				break
			}
			child, ok := node[part].(map[string]any)
			if !ok {
				if _, exists := node[part]; exists {
					// scalar already at this path, keep the dotted key as-is
					zap.L().Debug("conflicting dotted key", zap.String("key", key))
					out[key] = val
					break
				}
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
	}
	return out
}
