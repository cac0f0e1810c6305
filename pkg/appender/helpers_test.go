package appender

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"

	"sqs-log-shipper/pkg/credentials"
	"sqs-log-shipper/pkg/event"
	"sqs-log-shipper/pkg/transport"
)

type record struct {
	level  string
	source string
	msg    string
	cause  error
}

// recorder is a status.Reporter that keeps everything in memory.
type recorder struct {
	mu      sync.Mutex
	records []record
}

func (r *recorder) add(lvl, source, msg string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record{level: lvl, source: source, msg: msg, cause: cause})
}

func (r *recorder) Warn(source, msg string, cause error)  { r.add("warn", source, msg, cause) }
func (r *recorder) Error(source, msg string, cause error) { r.add("error", source, msg, cause) }

func (r *recorder) byLevel(lvl string) []record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []record
	for _, rec := range r.records {
		if rec.level == lvl {
			out = append(out, rec)
		}
	}
	return out
}

type sentMessage struct {
	queueURL string
	body     string
}

// fakeTransport completes every send synchronously with fail.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []sentMessage
	fail      error
	shutdowns int32
}

func (f *fakeTransport) SendAsync(queueURL, body string, done func(transport.Result)) {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{queueURL: queueURL, body: body})
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		done(transport.Result{Err: fail})
		return
	}
	done(transport.Result{MessageID: "id"})
}

func (f *fakeTransport) Drain(context.Context) error { return nil }

func (f *fakeTransport) Shutdown() { atomic.AddInt32(&f.shutdowns, 1) }

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTransport) shutdownCount() int32 { return atomic.LoadInt32(&f.shutdowns) }

// fakeDialer hands out fakeTransports and remembers how it was called.
type fakeDialer struct {
	mu      sync.Mutex
	opts    []transport.Options
	clients []*fakeTransport
	err     error
	fail    error
}

func (d *fakeDialer) dial(_ context.Context, opts transport.Options) (transport.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts = append(d.opts, opts)
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeTransport{fail: d.fail}
	d.clients = append(d.clients, c)
	return c, nil
}

func (d *fakeDialer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opts)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.clients) == 0 {
		return nil
	}
	return d.clients[len(d.clients)-1]
}

// rawEncoder writes the event message as-is, in a single Write.
type rawEncoder struct {
	mu        sync.Mutex
	w         io.Writer
	initErr   error
	encodeErr error
	panicMsg  string
	byteWise  bool
}

func (e *rawEncoder) Init(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initErr != nil {
		return e.initErr
	}
	e.w = w
	return nil
}

func (e *rawEncoder) Encode(ev *event.Event) error {
	e.mu.Lock()
	w, encodeErr, panicMsg, byteWise := e.w, e.encodeErr, e.panicMsg, e.byteWise
	e.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}
	if encodeErr != nil {
		return encodeErr
	}
	if byteWise {
		bw := w.(io.ByteWriter)
		for i := 0; i < len(ev.Message); i++ {
			if err := bw.WriteByte(ev.Message[i]); err != nil {
				return errors.Wrap(err, "writing byte")
			}
		}
		return nil
	}
	_, err := w.Write([]byte(ev.Message))
	return err
}

// gatedEncoder pauses every Encode until encodeGate is closed, and every
// Init after the first until initGate is closed. failOnce, when set, is
// returned by the next Encode.
type gatedEncoder struct {
	mu       sync.Mutex
	w        io.Writer
	inits    int
	failOnce error

	encoding   chan struct{}
	encodeGate chan struct{}
	initing    chan struct{}
	initGate   chan struct{}

	encodeOnce sync.Once
	initOnce   sync.Once
}

func newGatedEncoder() *gatedEncoder {
	return &gatedEncoder{
		encoding:   make(chan struct{}),
		encodeGate: make(chan struct{}),
		initing:    make(chan struct{}),
		initGate:   make(chan struct{}),
	}
}

func (e *gatedEncoder) Init(w io.Writer) error {
	e.mu.Lock()
	e.inits++
	later := e.inits > 1
	e.w = w
	e.mu.Unlock()

	if later {
		e.initOnce.Do(func() { close(e.initing) })
		<-e.initGate
	}
	return nil
}

func (e *gatedEncoder) Encode(ev *event.Event) error {
	e.encodeOnce.Do(func() { close(e.encoding) })
	<-e.encodeGate

	e.mu.Lock()
	w, fail := e.w, e.failOnce
	e.failOnce = nil
	e.mu.Unlock()

	if fail != nil {
		return fail
	}
	_, err := w.Write([]byte(ev.Message))
	return err
}

// blockingAPI answers SendMessage once release is closed.
type blockingAPI struct {
	release chan struct{}
	sent    int32
}

func (b *blockingAPI) SendMessage(ctx context.Context, _ *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	atomic.AddInt32(&b.sent, 1)
	return &sqs.SendMessageOutput{MessageId: aws.String("id")}, nil
}

func staticChain() credentials.Chain {
	return credentials.Chain{credentials.Static("AKIDTEST", "test-secret")}
}

func emptyChain() credentials.Chain {
	return credentials.Chain{{Name: "nothing", Lookup: func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, nil
	}}}
}
