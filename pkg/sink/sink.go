package sink

import (
	"context"

	"sqs-log-shipper/pkg/event"
)

// Sink defines the interface for event destinations. A host starts it
// once, appends from any goroutine and stops it when done. Append never
// returns an error: each sink reports its own problems.
type Sink interface {
	Start(ctx context.Context)
	Append(ev *event.Event)
	Stop()
}
