package sink

import (
	"context"
	"io"
	"os"
	"sync"

	"sqs-log-shipper/pkg/encoder"
	"sqs-log-shipper/pkg/event"
	"sqs-log-shipper/pkg/status"
)

// ConsoleSink writes encoded events to stdout.
type ConsoleSink struct {
	*writerSink
}

// NewConsoleSink creates a new ConsoleSink.
func NewConsoleSink(enc encoder.Encoder, r status.Reporter) *ConsoleSink {
	return &ConsoleSink{newWriterSink("console", os.Stdout, enc, r)}
}

// writerSink encodes events onto a shared writer. Writes are serialized so
// records from concurrent appends do not interleave.
type writerSink struct {
	name     string
	enc      encoder.Encoder
	reporter status.Reporter

	mu sync.Mutex
	w  io.Writer
}

func newWriterSink(name string, w io.Writer, enc encoder.Encoder, r status.Reporter) *writerSink {
	return &writerSink{name: name, w: w, enc: enc, reporter: r}
}

func (s *writerSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return 0, os.ErrClosed
	}
	return s.w.Write(p)
}

func (s *writerSink) Start(context.Context) {
	if err := s.enc.Init(s); err != nil {
		s.reporter.Error(s.name, "initializing encoder", err)
	}
}

func (s *writerSink) Append(ev *event.Event) {
	if err := s.enc.Encode(ev); err != nil {
		s.reporter.Warn(s.name, "writing event", err)
	}
}

func (s *writerSink) Stop() {}
