package appender

import "fmt"

func fits(n, limit int) bool {
	return n <= limit
}

// admit drops payloads larger than the session limit with a warning.
func (a *Appender) admit(s *session, n int, msg string) bool {
	if fits(n, s.maxBytes) {
		return true
	}
	a.reporter.Warn(a.name, fmt.Sprintf("Logging event '%s' exceeds the maximum size of %dkB", msg, s.limitKB), nil)
	return false
}
