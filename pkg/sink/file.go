package sink

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"sqs-log-shipper/pkg/encoder"
	"sqs-log-shipper/pkg/event"
	"sqs-log-shipper/pkg/status"
)

// FileSink appends encoded events to a file.
type FileSink struct {
	path string
	sink *writerSink
	file *os.File
}

// NewFileSink creates a new FileSink. The file is opened by Start.
func NewFileSink(path string, enc encoder.Encoder, r status.Reporter) *FileSink {
	return &FileSink{path: path, sink: newWriterSink("file:"+path, nil, enc, r)}
}

func (s *FileSink) Start(ctx context.Context) {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.sink.reporter.Error(s.sink.name, "opening file", errors.WithStack(err))
		return
	}
	s.sink.mu.Lock()
	s.file = f
	s.sink.w = f
	s.sink.mu.Unlock()
	s.sink.Start(ctx)
}

func (s *FileSink) Append(ev *event.Event) {
	s.sink.mu.Lock()
	open := s.file != nil
	s.sink.mu.Unlock()
	if open {
		s.sink.Append(ev)
	}
}

func (s *FileSink) Stop() {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		s.sink.reporter.Warn(s.sink.name, "closing file", err)
	}
	s.file = nil
	s.sink.w = nil
}
