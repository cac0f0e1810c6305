package encoder

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"sqs-log-shipper/pkg/event"
)

// Text writes events as a single line:
//
//	2024-01-02T15:04:05Z WARNING app - message key=value
type Text struct {
	target
}

func (e *Text) Init(w io.Writer) error { return e.init(w) }

func (e *Text) Encode(ev *event.Event) error {
	var b strings.Builder
	b.WriteString(ev.Time.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(ev.Level.String()))
	if ev.Logger != "" {
		b.WriteByte(' ')
		b.WriteString(ev.Logger)
	}
	b.WriteString(" - ")
	b.WriteString(ev.Message)

	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		if k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, ev.Fields[k])
	}
	b.WriteByte('\n')

	return e.write([]byte(b.String()))
}
