package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartup_TiersRunStrictlyInOrder(t *testing.T) {
	req := require.New(t)
	s := NewSession(Options{}, slog.Default())

	var mu sync.Mutex
	completed := map[int]int{}
	var violations []string

	tiers := []int{1, 1, 2, 3, 3, 3, 4, 5}
	perTier := map[int]int{}
	for _, tier := range tiers {
		perTier[tier]++
	}

	for i, tier := range tiers {
		s.AddStartupTask(StartupTask{
			Tier: tier,
			Name: fmt.Sprintf("task-%d", i),
			Run: func(ctx context.Context, _ *Session) error {
				mu.Lock()
				for lower := 1; lower < tier; lower++ {
					if completed[lower] != perTier[lower] {
						violations = append(violations,
							fmt.Sprintf("tier %d started before tier %d completed", tier, lower))
					}
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				completed[tier]++
				mu.Unlock()
				return nil
			},
		})
	}

	req.NoError(s.runStartup(context.Background()))
	req.Empty(violations)
	for tier, want := range perTier {
		req.Equal(want, completed[tier], "tier %d", tier)
	}
}

func TestStartup_SkipInTestIsOmitted(t *testing.T) {
	req := require.New(t)
	s := NewSession(Options{UnitTesting: true}, slog.Default())

	ran := make(map[string]bool)
	var mu sync.Mutex
	add := func(name string, skip bool) {
		s.AddStartupTask(StartupTask{
			Tier:       1,
			Name:       name,
			SkipInTest: skip,
			Run: func(context.Context, *Session) error {
				mu.Lock()
				defer mu.Unlock()
				ran[name] = true
				return nil
			},
		})
	}
	add("live-only", true)
	add("always", false)

	req.NoError(s.runStartup(context.Background()))
	req.False(ran["live-only"])
	req.True(ran["always"])
}

func TestStartup_FailingTaskAbortsSequence(t *testing.T) {
	req := require.New(t)
	s := NewSession(Options{}, slog.Default())

	var laterRan bool
	s.AddStartupTask(StartupTask{
		Tier: 2,
		Name: "broken",
		Run: func(context.Context, *Session) error {
			return fmt.Errorf("no dataset")
		},
	})
	s.AddStartupTask(StartupTask{
		Tier: 3,
		Name: "later",
		Run: func(context.Context, *Session) error {
			laterRan = true
			return nil
		},
	})

	err := s.runStartup(context.Background())
	req.ErrorContains(err, "broken")
	req.False(laterRan)
}
