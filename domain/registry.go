package domain

import (
	"log/slog"
	"sync"

	"showbot/protocol"
)

// Registry owns every Room of a session plus the shared user table and the
// server's public-room listing. Rooms are created on first reference and live
// until the server deinitializes them, at which point Remove evicts the room
// and releases its members.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[protocol.RoomID]*Room
	public  map[protocol.RoomID]struct{}
	langID  LanguageResolver
	users   *UserTable
	out     Outbound
	log     *slog.Logger
}

func NewRegistry(out Outbound, log *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[protocol.RoomID]*Room),
		public: make(map[protocol.RoomID]struct{}),
		users:  NewUserTable(),
		out:    out,
		log:    log,
	}
}

// Room is the canonical accessor: it returns the existing instance for the
// normalized name or creates-and-registers a new one atomically.
func (g *Registry) Room(name string) *Room {
	id := protocol.ToRoomID(name)

	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[id]; ok {
		return room
	}
	room := newRoom(g, id, false)
	g.rooms[id] = room
	return room
}

// Register installs a pre-built room, typically configured startup membership.
// Re-registering an existing ID is a logic error: the call warns and keeps the
// previous instance.
func (g *Registry) Register(room *Room) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.rooms[room.ID]; ok {
		g.log.Warn("room already registered, keeping previous instance; use Registry.Room instead",
			"room", string(room.ID))
		return prev
	}
	g.rooms[room.ID] = room
	return room
}

// NewRoom builds an unregistered room bound to this registry.
func (g *Registry) NewRoom(name string, autojoin bool) *Room {
	return newRoom(g, protocol.ToRoomID(name), autojoin)
}

// Lookup finds a room without creating it.
func (g *Registry) Lookup(id protocol.RoomID) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	return room, ok
}

// Remove evicts a room and releases every member's table reference. Removing
// an unknown room is a no-op.
func (g *Registry) Remove(id protocol.RoomID) {
	g.mu.Lock()
	room, ok := g.rooms[id]
	if ok {
		delete(g.rooms, id)
	}
	g.mu.Unlock()

	if ok {
		room.evictAll()
	}
}

// Rooms returns a snapshot of all registered rooms.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room)
	}
	return out
}

// Users exposes the session-wide user table.
func (g *Registry) Users() *UserTable {
	return g.users
}

// SetPublicRooms replaces the known public-room listing.
func (g *Registry) SetPublicRooms(ids []protocol.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.public = make(map[protocol.RoomID]struct{}, len(ids))
	for _, id := range ids {
		g.public[id] = struct{}{}
	}
}

// IsPublic reports whether the room appears in the server's public listing.
func (g *Registry) IsPublic(id protocol.RoomID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.public[id]
	return ok
}

// SetLanguageResolver wires the lookup dataset's language table.
func (g *Registry) SetLanguageResolver(resolve LanguageResolver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.langID = resolve
}

func (g *Registry) languageResolver() LanguageResolver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.langID
}
