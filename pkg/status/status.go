// Package status reports problems with the shipper's own operation. It is
// kept apart from the records being shipped: a status record never goes to
// the queue.
package status

import (
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/logging"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/send"
)

// Reporter accepts warning and error records. Source names the component
// the record is about and may be empty; cause may be nil.
type Reporter interface {
	Warn(source, msg string, cause error)
	Error(source, msg string, cause error)
}

type journal interface {
	Warning(interface{})
	Error(interface{})
}

// GripReporter renders status records as grip messages.
type GripReporter struct {
	j journal
}

// NewGripReporter returns a reporter writing to s.
func NewGripReporter(s send.Sender) *GripReporter {
	return &GripReporter{j: logging.MakeGrip(s)}
}

// Default returns a reporter bound to the process-wide grip sender.
func Default() *GripReporter {
	return NewGripReporter(grip.GetSender())
}

func (r *GripReporter) Warn(source, msg string, cause error) {
	r.j.Warning(compose(source, msg, cause))
}

func (r *GripReporter) Error(source, msg string, cause error) {
	r.j.Error(compose(source, msg, cause))
}

func compose(source, msg string, cause error) message.Composer {
	fields := message.Fields{"message": msg}
	if source != "" {
		fields["source"] = source
	}
	if cause != nil {
		return message.WrapError(cause, fields)
	}
	return message.MakeSimpleFields(fields)
}
