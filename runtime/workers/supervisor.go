// Package workers supervises the process's long-running loops: the chat
// session and the admin surface. The supervisor restarts a crashed worker
// after a delay and stops everything when the parent context cancels.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "showbot/errors"
)

// Worker is one supervised loop. Run returning nil means the worker is done
// for good; any error (or panic) schedules a restart.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

type Supervisor struct {
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	log             *slog.Logger
	restartInterval time.Duration
	workers         []Worker
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(workers ...Worker) *Supervisor {
	s.workers = append(s.workers, workers...)
	return s
}

// Run starts every worker and blocks until all of them have stopped. The
// supervised context is a child of ctx: cancelling either side stops the
// workers, but Stop leaves the parent untouched.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	for _, worker := range s.workers {
		s.start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// start runs one worker in its own goroutine. A panic inside Run is recovered
// and treated as a crash: the worker restarts, the supervisor survives.
func (s *Supervisor) start(ctx context.Context, worker Worker) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info("stopping worker", "name", worker.Name())
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("worker panic", "name", worker.Name(), "panic", r)
						err = apperrors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info("worker finished", "name", worker.Name())
				return
			}
			if ctx.Err() != nil {
				s.log.Info("worker stopped, context cancelled", "name", worker.Name())
				return
			}

			s.log.Warn("worker crashed, restarting", "name", worker.Name(), "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels the supervised context. Run keeps blocking until every worker
// goroutine has returned.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
