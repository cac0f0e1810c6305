package appender

import "github.com/pkg/errors"

var (
	ErrNoEncoder       = errors.New("appender: no encoder set")
	ErrStarted         = errors.New("appender: cannot reconfigure while started")
	ErrSingleByteWrite = errors.New("appender: single-byte writes are not supported")
)
