// Package progress defines the checkpoint events the pipelines emit and the
// notifiers that deliver them. Delivery is fire-and-forget: notifier failures
// are logged, never propagated as pipeline errors. The live-streaming
// transport is an adapter around Notifier, not part of the core contract.
package progress

import (
	"context"
	"log/slog"
	"time"
)

// Kind is the closed vocabulary of checkpoint events.
type Kind string

const (
	KindInfo       Kind = "info"
	KindProcessing Kind = "processing"
	KindSuccess    Kind = "success"
	KindError      Kind = "error"
	KindComplete   Kind = "complete"
)

// Event is one checkpoint. Current/Total carry per-item progress where it
// applies (e.g. embedding chunk i of n); zero values mean "not applicable".
type Event struct {
	Kind    Kind      `json:"kind"`
	Stage   string    `json:"stage"`
	Label   string    `json:"label"`
	Message string    `json:"message"`
	DocID   string    `json:"doc_id,omitempty"`
	Current int       `json:"current,omitempty"`
	Total   int       `json:"total,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives checkpoint events. Implementations must not block the
// pipeline and must swallow their own failures.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards all events.
var Nop Notifier = nopNotifier{}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier; a nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) {
	attrs := []any{
		"kind", string(ev.Kind),
		"stage", ev.Stage,
		"label", ev.Label,
	}
	if ev.DocID != "" {
		attrs = append(attrs, "doc_id", ev.DocID)
	}
	if ev.Total > 0 {
		attrs = append(attrs, "current", ev.Current, "total", ev.Total)
	}
	switch ev.Kind {
	case KindError:
		n.Logger.WarnContext(ctx, ev.Message, attrs...)
	default:
		n.Logger.InfoContext(ctx, ev.Message, attrs...)
	}
}

// Multi fans events out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

// stamp fills the timestamp if the caller left it zero.
func stamp(ev Event) Event {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev
}
