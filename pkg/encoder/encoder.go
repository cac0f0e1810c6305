package encoder

import (
	"io"
	"sync/atomic"

	"github.com/pkg/errors"

	"sqs-log-shipper/pkg/event"
)

var (
	ErrNilWriter      = errors.New("encoder: nil writer")
	ErrNotInitialized = errors.New("encoder: not initialized")
	ErrUnknownType    = errors.New("encoder: unknown type")
)

// Encoder turns events into bytes written to the writer passed to Init.
// Every Encode call performs exactly one Write holding one complete record.
// Implementations must be safe for concurrent use.
type Encoder interface {
	Init(w io.Writer) error
	Encode(ev *event.Event) error
}

// New returns the encoder registered under name ("json" or "text").
func New(name string) (Encoder, error) {
	switch name {
	case "", "json":
		return &JSON{}, nil
	case "text":
		return &Text{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownType, "'%s'", name)
	}
}

// target holds the writer bound by Init. Encoders may be re-initialized
// while other goroutines encode, so the writer is swapped atomically.
type target struct {
	w atomic.Pointer[io.Writer]
}

func (t *target) init(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}
	t.w.Store(&w)
	return nil
}

func (t *target) write(p []byte) error {
	w := t.w.Load()
	if w == nil {
		return ErrNotInitialized
	}
	_, err := (*w).Write(p)
	return err
}
