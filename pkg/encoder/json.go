package encoder

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"sqs-log-shipper/pkg/event"
)

// JSON writes each event as a single JSON object followed by a newline.
type JSON struct {
	target
}

type jsonRecord struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (e *JSON) Init(w io.Writer) error { return e.init(w) }

func (e *JSON) Encode(ev *event.Event) error {
	b, err := json.Marshal(jsonRecord{
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
		Level:     ev.Level.String(),
		Logger:    ev.Logger,
		Message:   ev.Message,
		Fields:    ev.Fields,
	})
	if err != nil {
		return errors.Wrap(err, "marshaling event")
	}
	return e.write(append(b, '\n'))
}
