// Package gripsender exposes an appender as a grip send.Sender, so that
// anything logging through grip can ship to SQS.
package gripsender

import (
	"context"

	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/send"

	"sqs-log-shipper/pkg/event"
)

// Target receives converted messages. *appender.Appender satisfies it.
type Target interface {
	Append(ev *event.Event)
	Stop()
}

// Sender converts grip messages to events and appends them to a Target.
type Sender struct {
	*send.Base
	target Target
}

// New returns a sender named name. The name becomes the logger of every
// event it produces.
func New(name string, target Target, l send.LevelInfo) (*Sender, error) {
	s := &Sender{
		Base:   send.NewBase(name),
		target: target,
	}
	if err := s.SetLevel(l); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sender) Send(m message.Composer) {
	if !s.Level().ShouldLog(m) {
		return
	}
	s.target.Append(event.FromComposer(s.Name(), m))
}

// Flush is a no-op: delivery is asynchronous and unconfirmed.
func (s *Sender) Flush(_ context.Context) error { return nil }

// Close stops the target.
func (s *Sender) Close() error {
	s.target.Stop()
	return nil
}
