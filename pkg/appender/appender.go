package appender

import (
	"context"
	"fmt"
	"sync"

	"github.com/mongodb/grip/recovery"
	"github.com/pkg/errors"

	"sqs-log-shipper/pkg/credentials"
	"sqs-log-shipper/pkg/encoder"
	"sqs-log-shipper/pkg/event"
	"sqs-log-shipper/pkg/status"
	"sqs-log-shipper/pkg/transport"
)

// Appender forwards encoded log events to an SQS queue without blocking
// the caller. Problems are reported to its status.Reporter and never
// returned to the code that logs.
type Appender struct {
	name string

	// mu serializes Start and Stop and guards cfg and enc.
	mu  sync.Mutex
	cfg Config
	enc encoder.Encoder

	// publish orders handle swaps with the state changes tied to them.
	// It is never held while calling out.
	publish sync.Mutex

	state  atomicState
	handle handle

	reporter status.Reporter
	dial     transport.Factory
	props    credentials.Properties
	chain    credentials.Chain
}

// Option customizes an Appender.
type Option func(*Appender)

// WithReporter sets where status records go. The default is the
// process-wide grip sender.
func WithReporter(r status.Reporter) Option {
	return func(a *Appender) { a.reporter = r }
}

// WithTransport replaces the SQS transport factory.
func WithTransport(f transport.Factory) Option {
	return func(a *Appender) { a.dial = f }
}

// WithProperties sets the property store consulted by the default
// credential chain.
func WithProperties(p credentials.Properties) Option {
	return func(a *Appender) { a.props = p }
}

// WithCredentialChain replaces the default credential chain.
func WithCredentialChain(c credentials.Chain) Option {
	return func(a *Appender) { a.chain = c }
}

// WithEncoder sets the encoder at construction time.
func WithEncoder(enc encoder.Encoder) Option {
	return func(a *Appender) { a.enc = enc }
}

// New returns an unstarted appender.
func New(name string, cfg Config, opts ...Option) *Appender {
	a := &Appender{
		name: name,
		cfg:  cfg,
		dial: transport.Dial,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.reporter == nil {
		a.reporter = status.Default()
	}
	return a
}

func (a *Appender) Name() string { return a.name }

func (a *Appender) State() State { return a.state.load() }

// Config returns a copy of the current settings.
func (a *Appender) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Configure replaces the settings. It fails while the appender is started.
func (a *Appender) Configure(cfg Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.load() == StateStarted {
		return ErrStarted
	}
	a.cfg = cfg
	return nil
}

// SetEncoder replaces the encoder. It fails while the appender is started.
func (a *Appender) SetEncoder(enc encoder.Encoder) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.load() == StateStarted {
		return ErrStarted
	}
	a.enc = enc
	return nil
}

// Start connects the appender. Starting a started appender reconnects it.
// Failures are reported, not returned: the appender simply stays unusable
// and Append is a no-op.
func (a *Appender) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enc == nil {
		a.reporter.Error(a.name, fmt.Sprintf("No encoder set for the appender named \"%s\".", a.name), ErrNoEncoder)
		return
	}

	a.state.store(StateStarting)
	a.closeLocked()

	s, err := a.openLocked(ctx)
	if err != nil {
		a.state.store(StateFailed)
		a.reporter.Error(a.name, fmt.Sprintf("Appender '%s' start failure", a.name), err)
		return
	}

	// the session becomes visible to writers only once it is ready
	a.publish.Lock()
	a.handle.set(s)
	a.state.store(StateStarted)
	a.publish.Unlock()
}

// openLocked builds a ready session without publishing it. On failure
// nothing is left running.
func (a *Appender) openLocked(ctx context.Context) (s *session, err error) {
	var client transport.Transport
	defer func() {
		err = recovery.HandlePanicWithError(recover(), err, "starting appender")
		if err != nil && client != nil {
			client.Shutdown()
		}
	}()

	cfg := a.cfg
	ep, err := transport.ParseEndpoint(cfg.QueueURL, cfg.Region)
	if err != nil {
		return nil, errors.Wrap(err, "parsing queue URL")
	}

	chain := a.chain
	if chain == nil {
		chain = credentials.DefaultChain(credentials.Settings{
			AccessKey:        cfg.AccessKey,
			SecretKey:        cfg.SecretKey,
			Profile:          cfg.Profile,
			CredentialsFiles: cfg.CredentialsFiles,
			ConfigFiles:      cfg.ConfigFiles,
			MetadataEndpoint: cfg.MetadataEndpoint,
		}, a.props)
	}
	creds, err := chain.Resolve(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving credentials")
	}

	client, err = a.dial(ctx, transport.Options{
		Endpoint:    ep,
		Credentials: chain.Pin(creds),
		Concurrency: cfg.ThreadPool,
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating SQS transport")
	}

	if err = a.enc.Init(&output{a: a}); err != nil {
		return nil, errors.Wrap(err, "initializing encoder")
	}

	return &session{
		client:   client,
		enc:      a.enc,
		queueURL: ep.QueueURL,
		maxBytes: cfg.MaxPayloadBytes(),
		limitKB:  cfg.maxMessageSizeInKB(),
	}, nil
}

// Stop shuts the transport down. It is safe to call at any time and more
// than once. In-flight sends may be abandoned.
func (a *Appender) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.load() == StateStarted {
		a.state.store(StateStopping)
	}
	a.closeLocked()
	a.state.store(StateStopped)
}

func (a *Appender) closeLocked() {
	a.publish.Lock()
	s := a.handle.set(nil)
	a.publish.Unlock()
	if s != nil {
		s.client.Shutdown()
	}
}

// Drain waits for the sends already handed to the transport, up to ctx.
// Stop does not wait; call Drain first when the tail matters.
func (a *Appender) Drain(ctx context.Context) error {
	s := a.handle.load()
	if s == nil {
		return nil
	}
	return s.client.Drain(ctx)
}

// Append encodes ev and hands it to the transport. It is a no-op unless
// the appender is started.
func (a *Appender) Append(ev *event.Event) {
	if ev == nil || a.state.load() != StateStarted {
		return
	}
	s := a.handle.load()
	if s == nil {
		return
	}
	if err := encode(s.enc, ev); err != nil {
		a.disable(s, err)
	}
}

func encode(enc encoder.Encoder, ev *event.Event) (err error) {
	defer func() {
		err = recovery.HandlePanicWithError(recover(), err, "encoding event")
	}()
	return enc.Encode(ev)
}

// disable takes a started appender out of service after an encoding
// failure on s. A failure on a session that has already been replaced
// leaves the current one alone. Only the first failure is reported.
func (a *Appender) disable(s *session, err error) {
	a.publish.Lock()
	if !a.handle.clearIfSame(s) {
		a.publish.Unlock()
		return
	}
	failed := a.state.swap(StateStarted, StateFailed)
	a.publish.Unlock()

	go s.client.Shutdown()
	if failed {
		a.reporter.Error(a.name, fmt.Sprintf("IO failure in appender '%s'", a.name), err)
	}
}
