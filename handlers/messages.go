package handlers

import (
	"context"
	"fmt"
	"strings"

	"showbot/domain"
	"showbot/protocol"
	"showbot/runtime"
)

// chatHandler consumes timestamped room chat ("c:" lines): args are the unix
// timestamp, the author token, then the message, which may itself contain
// separators.
func chatHandler(deps Deps) runtime.Handler {
	return func(ctx context.Context, s *runtime.Session, room *domain.Room, args []string) error {
		if len(args) < 3 {
			return nil
		}
		return handleChat(ctx, deps, s, room, args[1], strings.Join(args[2:], "|"))
	}
}

// legacyChatHandler consumes the older "c" lines without a timestamp.
func legacyChatHandler(deps Deps) runtime.Handler {
	return func(ctx context.Context, s *runtime.Session, room *domain.Room, args []string) error {
		if len(args) < 2 {
			return nil
		}
		return handleChat(ctx, deps, s, room, args[0], strings.Join(args[1:], "|"))
	}
}

func handleChat(ctx context.Context, deps Deps, s *runtime.Session, room *domain.Room, token, text string) error {
	rank, name, _ := parseUserToken(token)
	room.Remember(fmt.Sprintf("%s: %s", name, text))

	if protocol.ToUserID(name) == protocol.ToUserID(s.Username) {
		return nil
	}
	user := room.AddUser(name, rank)

	if deps.Moderator != nil {
		if found := deps.Moderator.Detect(text); len(found) > 0 {
			if err := room.SendModnote(ctx, "possible spam", user.ID, strings.Join(found, ", ")); err != nil {
				return err
			}
		}
	}

	if deps.Commands != nil {
		_, err := deps.Commands.Handle(ctx, s, room, user, rank, text)
		return err
	}
	return nil
}

// pmHandler routes private messages into the command surface with a nil room.
func pmHandler(deps Deps) runtime.Handler {
	return func(ctx context.Context, s *runtime.Session, _ *domain.Room, args []string) error {
		if len(args) < 3 || deps.Commands == nil {
			return nil
		}
		rank, name, _ := parseUserToken(args[0])
		if protocol.ToUserID(name) == protocol.ToUserID(s.Username) {
			return nil
		}
		text := strings.Join(args[2:], "|")

		// A PM sender is not necessarily in any shared room, so fall back to
		// an unregistered user value.
		user, ok := s.Registry().Users().Get(protocol.ToUserID(name))
		if !ok {
			user = domain.NewUser(protocol.ToUserID(name), name)
		}
		_, err := deps.Commands.Handle(ctx, s, nil, user, rank, text)
		return err
	}
}
