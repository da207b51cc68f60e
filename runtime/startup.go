package runtime

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// startupTiers is the number of priority buckets the startup sequence runs.
const startupTiers = 5

// StartupTask is one initialization step, bucketed into a priority tier.
// Within a tier tasks run concurrently; a tier only starts once the previous
// one has fully completed, because later steps (authentication, room joins)
// rely on state populated by earlier ones.
type StartupTask struct {
	// Tier is the priority bucket, 1..5.
	Tier int
	Name string
	// SkipInTest omits the task entirely when the session runs under the
	// test harness, rather than running it against a live backend.
	SkipInTest bool
	Run        func(ctx context.Context, s *Session) error
}

// AddStartupTask registers an initialization step. Registration happens
// before Open; the session never mutates the list afterwards.
func (s *Session) AddStartupTask(task StartupTask) {
	s.startup = append(s.startup, task)
}

// runStartup executes the tiers strictly in order 1..5, joining each tier
// before the next begins. The first failing task aborts the sequence.
func (s *Session) runStartup(ctx context.Context) error {
	for tier := 1; tier <= startupTiers; tier++ {
		g, gctx := errgroup.WithContext(ctx)
		for _, task := range s.startup {
			if task.Tier != tier {
				continue
			}
			if s.testing && task.SkipInTest {
				continue
			}
			g.Go(func() error {
				s.log.Debug("running startup task", "tier", task.Tier, "task", task.Name)
				if err := task.Run(gctx, s); err != nil {
					return fmt.Errorf("startup task %s: %w", task.Name, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
