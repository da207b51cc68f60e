package domain

import (
	"sync"

	"showbot/protocol"
)

// User is the session-wide view of a chat user. Rooms hold the same *User, so
// a rename or idle flip observed anywhere is visible everywhere. Frames are
// handled concurrently, so the mutable fields sit behind the user's own lock;
// the ID never changes after creation.
type User struct {
	ID protocol.UserID

	mu   sync.Mutex
	name string
	// idle is true while the user advertises an away status ("@!" prefix on
	// the wire).
	idle bool
}

// NewUser builds an unregistered user value, for senders outside any tracked
// room.
func NewUser(id protocol.UserID, name string) *User {
	return &User{ID: id, name: name}
}

// Name returns the current display name.
func (u *User) Name() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.name
}

// SetName updates the display name.
func (u *User) SetName(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.name = name
}

// Idle reports whether the user advertises an away status.
func (u *User) Idle() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.idle
}

// SetIdle updates the idle flag and reports whether it changed, so callers
// know when to recompute derived room state.
func (u *User) SetIdle(idle bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	changed := u.idle != idle
	u.idle = idle
	return changed
}

// UserTable is the global user registry. Entries are reference counted by the
// rooms that hold the user: Acquire bumps the count, Release drops it, and an
// entry whose count reaches zero is evicted. This replaces the usual
// rely-on-the-GC weak map with bookkeeping we can assert on in tests.
type UserTable struct {
	mu      sync.RWMutex
	entries map[protocol.UserID]*userEntry
}

type userEntry struct {
	user   *User
	owners int
}

func NewUserTable() *UserTable {
	return &UserTable{entries: make(map[protocol.UserID]*userEntry)}
}

// Acquire returns the registered user for name, creating it on first
// reference, and records one more owning room.
func (t *UserTable) Acquire(name string) *User {
	id := protocol.ToUserID(name)

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		entry = &userEntry{user: NewUser(id, name)}
		t.entries[id] = entry
	}
	entry.owners++
	return entry.user
}

// Release drops one owning room. The entry is evicted once no room owns it.
func (t *UserTable) Release(id protocol.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return
	}
	entry.owners--
	if entry.owners <= 0 {
		delete(t.entries, id)
	}
}

// Get looks up a user without touching its owner count.
func (t *UserTable) Get(id protocol.UserID) (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return entry.user, true
}

// Len returns the number of live entries.
func (t *UserTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
