package event

import (
	"time"

	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
)

// Event is a single log record handed to a sink.
type Event struct {
	Time    time.Time
	Level   level.Priority
	Logger  string
	Message string
	Fields  map[string]interface{}
}

// New returns an event stamped with the current UTC time.
func New(p level.Priority, logger, msg string) *Event {
	return &Event{
		Time:    time.Now().UTC(),
		Level:   p,
		Logger:  logger,
		Message: msg,
	}
}

// FromComposer converts a grip message into an event. Structured messages
// keep their fields (minus grip's collected metadata); everything else is
// carried as rendered text.
func FromComposer(logger string, m message.Composer) *Event {
	ev := New(m.Priority(), logger, m.String())
	if fields, ok := m.Raw().(message.Fields); ok {
		ev.Fields = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			if k == "metadata" {
				continue
			}
			ev.Fields[k] = v
		}
	}
	return ev
}
