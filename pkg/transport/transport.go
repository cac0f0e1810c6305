package transport

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/pkg/errors"
)

var (
	ErrShutdown          = errors.New("transport: shut down")
	ErrMalformedEndpoint = errors.New("transport: malformed queue URL")
)

// Result is the outcome of one asynchronous send. Err is nil on success.
type Result struct {
	MessageID string
	Err       error
}

// Transport sends queue messages in the background.
type Transport interface {
	// SendAsync submits body for delivery to queueURL and returns
	// immediately. done is called exactly once, from a worker goroutine.
	SendAsync(queueURL, body string, done func(Result))
	// Drain waits until every submitted send has completed, callback
	// included, or ctx is done. It does not stop the transport.
	Drain(ctx context.Context) error
	// Shutdown aborts in-flight sends and waits for the workers to exit.
	// Later sends fail with ErrShutdown.
	Shutdown()
}

// Options describes the transport a sink needs.
type Options struct {
	Endpoint    Endpoint
	Credentials aws.CredentialsProvider
	// Concurrency bounds the number of sends in flight. Zero means
	// unbounded.
	Concurrency int
	// MaxAttempts overrides the SDK retryer when positive.
	MaxAttempts int
}

// Factory builds a transport. The returned transport owns its workers.
type Factory func(ctx context.Context, opts Options) (Transport, error)
