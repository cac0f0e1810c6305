package sink

import (
	"context"

	"sqs-log-shipper/pkg/event"
)

// MultiSink broadcasts events to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a new MultiSink.
func NewMultiSink(sinks []Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Start(ctx context.Context) {
	for _, sink := range s.sinks {
		sink.Start(ctx)
	}
}

func (s *MultiSink) Append(ev *event.Event) {
	for _, sink := range s.sinks {
		sink.Append(ev)
	}
}

// Stop stops the sinks in reverse order.
func (s *MultiSink) Stop() {
	for i := len(s.sinks) - 1; i >= 0; i-- {
		s.sinks[i].Stop()
	}
}
