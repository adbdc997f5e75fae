// Command worker consumes extraction jobs from NATS and runs them through
// the ingestion pipeline. Failed jobs are retried and finally parked on the
// dead letter queue.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

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
		configPath  = flag.String("config", "docuquery.yml", "path to YAML config")
		metricsAddr = flag.String("metrics", ":9091", "metrics listen address")
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
	if cfg.NATS.URL == "" {
		logger.Error("nats.url is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("docuquery-worker"))
	if err != nil {
		logger.Error("nats connect failed", "err", err)
		os.Exit(1)
	}
	defer nc.Close()

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

	notifier := progress.Multi(
		progress.NewLogNotifier(logger),
		progress.NewNATSNotifier(nc, progress.DefaultSubject, logger),
	)

	ingOpts := ingest.DefaultOptions()
	ingOpts.Chunking.MaxLen = cfg.Chunking.MaxLen
	ingOpts.Chunking.Overlap = cfg.Chunking.Overlap
	ingOpts.FileTimeout = cfg.FileTimeout
	pipeline := ingest.New(embedSvc, vectorStore, notifier, stats, ingOpts, logger)

	sub, err := ingest.StartConsumer(nc, pipeline, logger)
	if err != nil {
		logger.Error("subscribe failed", "err", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", reg.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	logger.Info("worker running", "subject", ingest.IngestSubject)
	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := sub.Drain(); err != nil {
		logger.Warn("drain failed", "err", err)
	}
}
