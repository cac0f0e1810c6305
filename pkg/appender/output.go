package appender

import "strings"

// output is the writer handed to the encoder. Every Write carries one
// complete record and becomes one message; nothing is buffered.
type output struct {
	a *Appender
}

func (o *output) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// dropped if the appender stopped or restarted during encoding
	if o.a.state.load() != StateStarted {
		return len(p), nil
	}
	s := o.a.handle.load()
	if s == nil {
		return len(p), nil
	}

	msg := strings.ToValidUTF8(string(p), "\uFFFD")
	if !o.a.admit(s, len(p), msg) {
		return len(p), nil
	}
	o.a.dispatch(s, msg)
	return len(p), nil
}

// WriteByte rejects byte-at-a-time output, which has no message boundary.
func (o *output) WriteByte(byte) error {
	return ErrSingleByteWrite
}
