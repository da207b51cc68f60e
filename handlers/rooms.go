package handlers

import (
	"context"
	"strings"

	"showbot/domain"
	"showbot/protocol"
	"showbot/runtime"
)

func initHandler(_ context.Context, s *runtime.Session, room *domain.Room, args []string) error {
	s.Logger().Info("joined room", "room", string(room.ID))
	return nil
}

func titleHandler(_ context.Context, _ *runtime.Session, room *domain.Room, args []string) error {
	if len(args) > 0 {
		room.SetTitle(args[0])
	}
	return nil
}

// usersHandler seeds the membership from the initial userlist. The single
// argument is "<count>,<token>,<token>,..."; the count is ignored in favor of
// what is actually there.
func usersHandler(_ context.Context, s *runtime.Session, room *domain.Room, args []string) error {
	if len(args) == 0 {
		return nil
	}
	tokens := strings.Split(args[0], ",")
	if len(tokens) < 2 {
		return nil
	}
	for _, token := range tokens[1:] {
		trackUser(s, room, token)
	}
	return nil
}

func joinHandler(_ context.Context, s *runtime.Session, room *domain.Room, args []string) error {
	if len(args) == 0 {
		return nil
	}
	trackUser(s, room, args[0])
	return nil
}

func leaveHandler(_ context.Context, _ *runtime.Session, room *domain.Room, args []string) error {
	if len(args) == 0 {
		return nil
	}
	_, name, _ := parseUserToken(args[0])
	room.RemoveUser(protocol.ToUserID(name))
	return nil
}

// renameHandler moves a member from its old ID to the new token. A pure rank
// or status change arrives as a rename onto the same ID.
func renameHandler(_ context.Context, s *runtime.Session, room *domain.Room, args []string) error {
	if len(args) < 2 {
		return nil
	}
	oldID := protocol.ToUserID(args[1])
	_, name, _ := parseUserToken(args[0])
	if protocol.ToUserID(name) != oldID {
		room.RemoveUser(oldID)
	}
	trackUser(s, room, args[0])
	return nil
}

func deinitHandler(_ context.Context, s *runtime.Session, room *domain.Room, _ []string) error {
	s.Logger().Info("left room", "room", string(room.ID))
	s.Registry().Remove(room.ID)
	return nil
}

// trackUser upserts one member from its wire token and keeps the moderator
// gap and roombot flags in sync.
func trackUser(s *runtime.Session, room *domain.Room, token string) {
	rank, name, idle := parseUserToken(token)
	if name == "" {
		return
	}
	user := room.AddUser(name, rank)
	if user.SetIdle(idle) {
		room.RefreshModGap()
	}
	if user.ID == protocol.ToUserID(s.Username) {
		room.SetRoombot(rank == domain.RankBot)
	}
}
