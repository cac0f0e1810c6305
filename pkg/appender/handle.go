package appender

import (
	"sync/atomic"

	"sqs-log-shipper/pkg/encoder"
	"sqs-log-shipper/pkg/transport"
)

// session is everything the append path needs from one Start call.
type session struct {
	client   transport.Transport
	enc      encoder.Encoder
	queueURL string
	maxBytes int
	limitKB  int
}

// handle publishes the live session. Writers hold the publish lock;
// the append path only loads.
type handle struct {
	p atomic.Pointer[session]
}

func (h *handle) load() *session {
	return h.p.Load()
}

func (h *handle) set(s *session) *session {
	return h.p.Swap(s)
}

// clearIfSame drops s only if it is still the published session.
func (h *handle) clearIfSame(s *session) bool {
	return h.p.CompareAndSwap(s, nil)
}
