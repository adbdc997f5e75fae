// Command ingest loads extracted text files from a directory into the
// vector store. Each .txt file becomes one document; the filename (without
// extension) is the document ID.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/DocuQuery/docuquery-mvp/engine/embed"
	"github.com/DocuQuery/docuquery-mvp/engine/ingest"
	"github.com/DocuQuery/docuquery-mvp/engine/semantic"
	"github.com/DocuQuery/docuquery-mvp/pkg/config"
	"github.com/DocuQuery/docuquery-mvp/pkg/metrics"
	"github.com/DocuQuery/docuquery-mvp/pkg/ollama"
	"github.com/DocuQuery/docuquery-mvp/pkg/progress"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		configPath = flag.String("config", "docuquery.yml", "path to YAML config")
		dir        = flag.String("dir", ".", "directory of .txt files to ingest")
		replace    = flag.Bool("replace", false, "delete existing chunks per document before ingesting")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	vectorStore, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		logger.Error("qdrant connect failed", "err", err)
		os.Exit(1)
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureCollection(ctx, cfg.Ollama.Dimensions); err != nil {
		logger.Error("ensure collection failed", "err", err)
		os.Exit(1)
	}

	embedClient := ollama.NewEmbedClient(ollama.ClientOpts{
		BaseURL:           cfg.Ollama.BaseURL,
		Model:             cfg.Ollama.Model,
		Timeout:           cfg.Ollama.Timeout,
		RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
	})

	reg := metrics.New()
	stats := metrics.NewSet(reg)
	embedSvc := embed.New(embedClient, embed.Options{Dimensions: cfg.Ollama.Dimensions}, stats, logger)

	ingOpts := ingest.DefaultOptions()
	ingOpts.Chunking.MaxLen = cfg.Chunking.MaxLen
	ingOpts.Chunking.Overlap = cfg.Chunking.Overlap
	ingOpts.FileTimeout = cfg.FileTimeout
	pipeline := ingest.New(embedSvc, vectorStore, progress.NewLogNotifier(logger), stats, ingOpts, logger)

	paths, err := filepath.Glob(filepath.Join(*dir, "*.txt"))
	if err != nil {
		logger.Error("glob failed", "dir", *dir, "err", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Info("no .txt files found", "dir", *dir)
		return
	}

	var failed int
	for _, path := range paths {
		if ctx.Err() != nil {
			logger.Info("interrupted", "remaining", len(paths))
			break
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "path", path, "err", err)
			failed++
			continue
		}

		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc := ingest.Document{
			DocID:   docID,
			Source:  filepath.Base(path),
			Replace: *replace,
			Pages:   []ingest.Page{{Text: string(data)}},
		}

		res, err := pipeline.IngestDocument(ctx, doc)
		if err != nil {
			logger.Error("ingest failed", "doc_id", docID, "err", err)
			failed++
			continue
		}
		logger.Info("ingested", "doc_id", docID, "chunks", res.Count)
	}

	logger.Info("done", "files", len(paths), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
