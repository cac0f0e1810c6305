package pipeline

import (
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"

	"sqs-log-shipper/pkg/event"
	"sqs-log-shipper/pkg/sink"
)

// Run reads records from msgCh and appends each one to the sink as an info
// event attributed to logger. It blocks until errCh receives an error,
// which is returned, or msgCh is closed. A source queues its final error
// before closing msgCh, so that error is returned too.
func Run(msgCh <-chan []byte, errCh <-chan error, s sink.Sink, logger string) error {
	var count int
	fail := func(err error) error {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "source failed",
			"records": count,
		}))
		return err
	}
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				select {
				case err := <-errCh:
					return fail(err)
				default:
				}
				grip.Debug(message.Fields{"message": "source exhausted", "records": count})
				return nil
			}
			text := strings.TrimRight(string(msg), "\r\n")
			if text == "" {
				continue
			}
			s.Append(event.New(level.Info, logger, text))
			count++
		case err := <-errCh:
			return fail(err)
		}
	}
}
