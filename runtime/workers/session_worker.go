package workers

import (
	"context"

	apperrors "showbot/errors"
	"showbot/runtime"
)

// SessionWorker keeps the chat session alive. The session core has no
// reconnect of its own: when the receive loop ends without a cancellation,
// the worker reports a crash and lets the supervisor's restart policy dial
// again.
type SessionWorker struct {
	session *runtime.Session
}

func NewSessionWorker(session *runtime.Session) *SessionWorker {
	return &SessionWorker{session: session}
}

func (w *SessionWorker) Name() string { return "session" }

func (w *SessionWorker) Run(ctx context.Context) error {
	if err := w.session.Open(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return apperrors.ErrConnectionClosed
}
