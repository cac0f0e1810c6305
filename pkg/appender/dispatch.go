package appender

import (
	"fmt"

	"sqs-log-shipper/pkg/transport"
)

// dispatch submits msg and returns at once. The outcome only ever reaches
// the reporter: failures are not retried and do not change the state.
func (a *Appender) dispatch(s *session, msg string) {
	s.client.SendAsync(s.queueURL, msg, func(res transport.Result) {
		if res.Err == nil {
			return
		}
		a.reporter.Warn(a.name, fmt.Sprintf("Appender '%s' failed to send logging event '%s' to SQS", a.name, msg), res.Err)
	})
}
