package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"showbot/protocol"
)

func TestUserTable_AcquireSharesInstance(t *testing.T) {
	req := require.New(t)
	table := NewUserTable()

	a := table.Acquire("+Alice")
	b := table.Acquire("Alice")

	req.Same(a, b)
	req.Equal(protocol.UserID("alice"), a.ID)
	req.Equal(1, table.Len())
}

func TestUserTable_EvictsAtZeroOwners(t *testing.T) {
	req := require.New(t)
	table := NewUserTable()

	table.Acquire("Alice")
	table.Acquire("Alice")
	req.Equal(1, table.Len())

	table.Release("alice")
	_, ok := table.Get("alice")
	req.True(ok, "still owned by one room")

	table.Release("alice")
	_, ok = table.Get("alice")
	req.False(ok, "last room dropped the user")
	req.Equal(0, table.Len())
}

func TestUserTable_ReleaseUnknownIsNoOp(t *testing.T) {
	table := NewUserTable()
	table.Release("ghost")
	require.Equal(t, 0, table.Len())
}

// Frames are handled concurrently, so the same user may be upserted from two
// rooms at once. Run with -race: name and idle updates on the shared instance
// must be synchronized.
func TestUserTable_ConcurrentUpdatesAcrossRooms(t *testing.T) {
	req := require.New(t)
	reg, _ := newTestRegistry()
	lobby := reg.Room("lobby")
	other := reg.Room("techcode")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lobby.AddUser("Alice", "+").SetIdle(true)
		}()
		go func() {
			defer wg.Done()
			other.AddUser("ALICE", "").SetIdle(false)
		}()
	}
	wg.Wait()

	user, ok := reg.Users().Get("alice")
	req.True(ok)
	req.Contains([]string{"Alice", "ALICE"}, user.Name())
	req.Equal(1, reg.Users().Len())
}

func TestUserTable_EvictionThroughRooms(t *testing.T) {
	req := require.New(t)
	reg, _ := newTestRegistry()
	lobby := reg.Room("lobby")
	other := reg.Room("techcode")

	lobby.AddUser("Alice", RankVoice)
	other.AddUser("Alice", "")
	req.Equal(1, reg.Users().Len())

	lobby.RemoveUser("alice")
	_, ok := reg.Users().Get("alice")
	req.True(ok)

	other.RemoveUser("alice")
	_, ok = reg.Users().Get("alice")
	req.False(ok)
}
