// Package handlers registers the protocol-level handlers: room membership
// bookkeeping, identity negotiation and chat message routing. Handlers do the
// parsing; every domain decision lives in domain or plugins.
package handlers

import (
	"strings"

	"showbot/auth"
	"showbot/moderation"
	"showbot/plugins"
	"showbot/runtime"
)

// Deps carries the collaborators the handlers route into.
type Deps struct {
	Commands *plugins.Registry
	Login    auth.LoginClient
	// Moderator is optional; nil disables chat scanning.
	Moderator *moderation.Moderator
}

// RegisterAll installs every handler on the session's dispatch table.
func RegisterAll(s *runtime.Session, deps Deps) {
	d := s.Dispatcher()

	d.Register("init", initHandler)
	d.Register("title", titleHandler)
	d.Register("users", usersHandler)
	for _, cmd := range []string{"join", "j", "J"} {
		d.Register(cmd, joinHandler)
	}
	for _, cmd := range []string{"leave", "l", "L"} {
		d.Register(cmd, leaveHandler)
	}
	for _, cmd := range []string{"name", "n", "N"} {
		d.Register(cmd, renameHandler)
	}
	d.Register("deinit", deinitHandler)

	d.Register("challstr", challstrHandler(deps.Login))
	d.Register("updateuser", updateuserHandler)
	d.Register("formats", formatsHandler)
	d.Register("queryresponse", queryresponseHandler)

	chat := chatHandler(deps)
	d.Register("c:", chat)
	d.Register("c", legacyChatHandler(deps))
	d.Register("pm", pmHandler(deps))
}

// parseUserToken splits a wire user token ("+Alice@!afk") into rank, display
// name and idle flag. The idle flag rides on a "!" prefix of the away status.
func parseUserToken(token string) (rank, name string, idle bool) {
	if token == "" {
		return " ", "", false
	}
	rank, name = token[:1], token[1:]
	if at := strings.Index(name, "@"); at >= 0 {
		status := name[at+1:]
		name = name[:at]
		idle = strings.HasPrefix(status, "!")
	}
	return rank, name, idle
}
