package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/DocuQuery/docuquery-mvp/pkg/natsutil"
)

const (
	// IngestSubject is the NATS subject for incoming extraction jobs.
	IngestSubject = "engine.ingest"
	// DLQSubject is the dead letter queue subject for failed jobs.
	DLQSubject = "engine.ingest.dlq"
	// MaxRetries before sending to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Job     Document `json:"job"`
	Error   string   `json:"error"`
	Retries int      `json:"retries"`
}

// StartConsumer subscribes the pipeline to extraction jobs on NATS. Each job
// gets its own timeout-bounded context so one stuck document cannot stall the
// consumer; chunks persisted by earlier jobs are unaffected by a failure.
func StartConsumer(nc *nats.Conn, p *Pipeline, logger *slog.Logger) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var job Document
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logger.Error("ingest: unmarshal job failed", "err", err)
			return
		}

		ctx := natsutil.ExtractContext(context.Background(), msg)
		cancel := context.CancelFunc(func() {})
		if p.opts.FileTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, p.opts.FileTimeout)
		}
		defer cancel()

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		res, err := p.IngestDocument(ctx, job)
		if err == nil {
			logger.Info("ingest: job done", "doc_id", job.DocID, "chunks", res.Count)
			if msg.Reply != "" {
				_ = msg.Ack()
			}
			return
		}

		retries++
		logger.Error("ingest: job failed", "doc_id", job.DocID, "retry", retries, "err", err)

		if retries >= MaxRetries {
			dlq := dlqMessage{Job: job, Error: err.Error(), Retries: retries}
			if pubErr := natsutil.Publish(ctx, nc, DLQSubject, dlq); pubErr != nil {
				logger.Error("ingest: DLQ publish failed", "doc_id", job.DocID, "err", pubErr)
			}
		} else {
			retry := nats.NewMsg(IngestSubject)
			retry.Data = msg.Data
			retry.Header = nats.Header{}
			retry.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if pubErr := nc.PublishMsg(retry); pubErr != nil {
				logger.Error("ingest: retry publish failed", "doc_id", job.DocID, "err", pubErr)
			}
		}

		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}
