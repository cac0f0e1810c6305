package source

import (
	"bufio"
	"io"
	"sync"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// MaxLineSize is the default bound on a single record read by Lines. It
// is larger than any queue message so that oversized records still reach
// the size check.
const MaxLineSize = 1024 * 1024

// Lines reads newline-delimited records from a reader. Records longer
// than the limit are truncated to it with a warning; the stream goes on.
type Lines struct {
	r     io.Reader
	limit int

	done      chan struct{}
	closeOnce sync.Once

	read  chan []byte
	errCh chan error
}

// NewLines starts reading r in the background with the default limit.
func NewLines(r io.Reader) *Lines {
	return NewLinesLimit(r, MaxLineSize)
}

// NewLinesLimit starts reading r in the background, keeping at most limit
// bytes of each record. A non-positive limit means MaxLineSize.
func NewLinesLimit(r io.Reader, limit int) *Lines {
	if limit <= 0 {
		limit = MaxLineSize
	}
	l := &Lines{
		r:     r,
		limit: limit,
		done:  make(chan struct{}),
		read:  make(chan []byte, 100),
		errCh: make(chan error, 1),
	}
	go l.run()
	return l
}

func (l *Lines) run() {
	defer close(l.read)

	br := bufio.NewReaderSize(l.r, 64*1024)
	var (
		buf       []byte
		truncated int
	)
	for {
		chunk, more, err := br.ReadLine()
		if err != nil {
			if err != io.EOF {
				// queued before read closes, so a consumer that sees the
				// close can still find it
				l.errCh <- errors.Wrap(err, "reading lines")
			}
			return
		}

		if room := l.limit - len(buf); len(chunk) > room {
			truncated += len(chunk) - room
			chunk = chunk[:room]
		}
		buf = append(buf, chunk...)
		if more {
			continue
		}

		if truncated > 0 {
			grip.Warning(message.Fields{
				"message":   "record truncated",
				"limit":     l.limit,
				"truncated": truncated,
			})
		}
		if len(buf) > 0 {
			msg := make([]byte, len(buf))
			copy(msg, buf)
			select {
			case l.read <- msg:
			case <-l.done:
				return
			}
		}
		buf = buf[:0]
		truncated = 0
	}
}

func (l *Lines) Messages() <-chan []byte { return l.read }

func (l *Lines) Errors() <-chan error { return l.errCh }

// Close stops delivery. A read already blocked on the underlying reader
// finishes on its own.
func (l *Lines) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}
