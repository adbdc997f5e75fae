package progress

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/DocuQuery/docuquery-mvp/pkg/natsutil"
)

// DefaultSubject is the NATS subject progress events are published on.
const DefaultSubject = "engine.progress"

// NATSNotifier publishes events to a NATS subject for live consumers
// (dashboards, upload UIs). Publishing is fire-and-forget; failures are
// logged and dropped.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSNotifier creates a NATSNotifier. An empty subject uses DefaultSubject.
func NewNATSNotifier(nc *nats.Conn, subject string, logger *slog.Logger) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{nc: nc, subject: subject, logger: logger}
}

func (n *NATSNotifier) Notify(ctx context.Context, ev Event) {
	ev = stamp(ev)
	if err := natsutil.Publish(ctx, n.nc, n.subject, ev); err != nil {
		n.logger.Warn("progress: publish failed", "subject", n.subject, "err", err)
	}
}
