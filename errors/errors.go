package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrHandlerPanic     = fmt.Errorf("handler panic")
	ErrNotConnected     = fmt.Errorf("not connected")
	ErrLoginFailed      = fmt.Errorf("login rejected by the auth endpoint")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrLookupMiss       = fmt.Errorf("no lookup entry")
	ErrInvalidToken     = fmt.Errorf("invalid admin token")
	ErrInvalidHash      = fmt.Errorf("malformed password hash")
	ErrConnectionClosed = fmt.Errorf("connection closed by the remote end")
)
