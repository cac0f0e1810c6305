package source

// Source produces raw log records. Messages is closed when the source is
// exhausted or closed; Errors reports conditions that end the stream.
type Source interface {
	Messages() <-chan []byte
	Errors() <-chan error
	Close() error
}
