// Command api serves the document question-answering HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
	"github.com/DocuQuery/docuquery-mvp/engine/embed"
	"github.com/DocuQuery/docuquery-mvp/engine/ingest"
	"github.com/DocuQuery/docuquery-mvp/engine/query"
	"github.com/DocuQuery/docuquery-mvp/engine/retrieval"
	"github.com/DocuQuery/docuquery-mvp/engine/semantic"
	"github.com/DocuQuery/docuquery-mvp/pkg/config"
	"github.com/DocuQuery/docuquery-mvp/pkg/metrics"
	"github.com/DocuQuery/docuquery-mvp/pkg/mid"
	"github.com/DocuQuery/docuquery-mvp/pkg/ollama"
	"github.com/DocuQuery/docuquery-mvp/pkg/progress"
	"github.com/DocuQuery/docuquery-mvp/pkg/resilience"
)

const maxIngestBody = 32 << 20 // 32 MiB

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	configPath := flag.String("config", "docuquery.yml", "path to YAML config")
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

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	stats := metrics.NewSet(reg)

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureCollection(ctx, cfg.Ollama.Dimensions); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	// --- Embedding over Ollama ---
	embedClient := ollama.NewEmbedClient(ollama.ClientOpts{
		BaseURL:           cfg.Ollama.BaseURL,
		Model:             cfg.Ollama.Model,
		Timeout:           cfg.Ollama.Timeout,
		RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
	})
	embedSvc := embed.New(embedClient, embed.Options{Dimensions: cfg.Ollama.Dimensions}, stats, logger)

	// --- Retrieval with a circuit breaker around the store ---
	retrOpts := retrieval.DefaultOptions()
	retrOpts.TopK = cfg.Retrieval.TopK
	retrOpts.MinScore = float32(cfg.Retrieval.MinScore)
	breaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)
	retriever := retrieval.New(vectorStore, breaker, retrOpts, logger)

	// --- Optional NATS progress bus ---
	notifier := progress.Notifier(progress.NewLogNotifier(logger))
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("docuquery-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		notifier = progress.Multi(notifier, progress.NewNATSNotifier(nc, progress.DefaultSubject, logger))
	}

	// --- Pipelines ---
	ingOpts := ingest.DefaultOptions()
	ingOpts.Chunking.MaxLen = cfg.Chunking.MaxLen
	ingOpts.Chunking.Overlap = cfg.Chunking.Overlap
	ingOpts.FileTimeout = cfg.FileTimeout
	pipeline := ingest.New(embedSvc, vectorStore, notifier, stats, ingOpts, logger)

	querySvc := query.New(embedSvc, retriever,
		query.WithLogger(logger),
		query.WithNotifier(notifier),
		query.WithMetrics(stats),
	)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/query", handleQuery(querySvc, logger))
	mux.HandleFunc("POST /api/ingest", handleIngest(pipeline, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.OTel("docuquery-api"),
		mid.Logger(logger),
		mid.CORS("*"),
		mid.BodyLimit(maxIngestBody),
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleQuery(svc *query.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req query.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := svc.Answer(r.Context(), req)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeJSONError(w, http.StatusBadRequest, verr.Error())
				return
			}
			logger.Error("query failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleIngest(p *ingest.Pipeline, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc ingest.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		res, err := p.IngestDocument(r.Context(), doc)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeJSONError(w, http.StatusBadRequest, verr.Error())
				return
			}
			logger.Error("ingest failed", "doc_id", doc.DocID, "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
