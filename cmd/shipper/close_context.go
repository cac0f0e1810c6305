package main

import (
	"context"
	"time"
)

// closeContext returns a context bounded by timeout. A non-positive
// timeout means no deadline.
func closeContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
