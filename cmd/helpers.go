package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/blegdams/journal-cli/internal/model"
	"github.com/blegdams/journal-cli/internal/preprocess"
	"github.com/blegdams/journal-cli/internal/transcribe"
	"github.com/blegdams/journal-cli/internal/valstore"
	"github.com/blegdams/journal-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (valstore.Store, error) {
	switch cfg.Store.Driver {
	case "jsonl":
		return valstore.NewJSONL(cfg.Store.Dir)
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "journal.db"
		}
		return valstore.NewSQLite(dsn)
	case "postgres":
		return valstore.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func loadSchema() (*model.Schema, error) {
	if cfg.Schema.Path == "" {
		return model.DefaultSchema(), nil
	}
	data, err := os.ReadFile(cfg.Schema.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "read schema %s", cfg.Schema.Path)
	}
	return model.LoadSchemaFile(data)
}

func initTranscriber() (*transcribe.Transcriber, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (JOURNAL_ANTHROPIC_KEY)")
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)
	return transcribe.New(client, schema, transcribe.Options{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		UploadLimit: cfg.Anthropic.UploadLimit,
		Preprocess: preprocess.Options{
			MaxDim:         cfg.Images.MaxDim,
			ContrastFactor: cfg.Images.ContrastFactor,
			Format:         cfg.Images.OutputFormat,
		},
	}), nil
}
