package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"showbot/domain"
	apperrors "showbot/errors"
	"showbot/protocol"
)

// Handler consumes one command line. Handlers registered under the same
// command all run, concurrently, with the same arguments.
type Handler func(ctx context.Context, s *Session, room *domain.Room, args []string) error

// Dispatcher is the static command table built during registration, before
// the session opens. Lookups at dispatch time take the read path only.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Register appends a handler to the ordered list for a command name.
func (d *Dispatcher) Register(command string, fn Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[command] = append(d.handlers[command], fn)
}

// Lookup returns the registered handlers for a command, empty if none.
func (d *Dispatcher) Lookup(command string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[command]
}

// dispatchLine fans out every handler of the line's command and joins before
// returning, so the caller's per-frame line order is preserved. A handler
// failure or panic is logged against the frame's correlation ID and never
// aborts its siblings.
func (d *Dispatcher) dispatchLine(ctx context.Context, s *Session, room *domain.Room, line protocol.Line, frameID string) {
	handlers := d.Lookup(line.Command)
	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i, fn := range handlers {
		wg.Add(1)
		go func(i int, fn Handler) {
			defer wg.Done()
			if err := runHandler(ctx, fn, s, room, line.Args); err != nil {
				d.log.Error("handler failed",
					"command", line.Command,
					"handler", i,
					"room", string(room.ID),
					"frame", frameID,
					"error", err,
				)
			}
		}(i, fn)
	}
	wg.Wait()
}

// runHandler isolates a single handler: a panic comes back as ErrHandlerPanic
// instead of taking down the frame's siblings or the receive loop.
func runHandler(ctx context.Context, fn Handler, s *Session, room *domain.Room, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", apperrors.ErrHandlerPanic, r)
		}
	}()
	return fn(ctx, s, room, args)
}
