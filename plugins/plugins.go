// Package plugins implements the chat command surface: messages that start
// with the configured command prefix are parsed into a Message and routed to
// the matching Command.
package plugins

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"showbot/domain"
	"showbot/protocol"
	"showbot/repositories"
	"showbot/runtime"
)

// Message is one parsed chat command invocation. Room is nil when the
// command arrived over a private message.
type Message struct {
	Session *runtime.Session
	Room    *domain.Room
	User    *domain.User
	Rank    string
	// Arg is everything after the command name, Args its comma-split form.
	Arg  string
	Args []string
}

// LanguageID returns the dataset language of the conversation: the room's
// language, or English for private messages.
func (m *Message) LanguageID() int {
	if m.Room == nil {
		return domain.EnglishLanguageID
	}
	return m.Room.LanguageID()
}

// Reply answers in the same scope the command arrived from.
func (m *Message) Reply(ctx context.Context, text string) error {
	if m.Room == nil {
		return m.Session.SendPM(ctx, m.User.ID, text)
	}
	return m.Room.Send(ctx, text)
}

// ReplyHTMLBox answers with an HTML box, falling back to a plain PM notice
// for private conversations where boxes cannot be rendered.
func (m *Message) ReplyHTMLBox(ctx context.Context, html string) error {
	if m.Room == nil {
		return m.Session.SendPM(ctx, m.User.ID, html)
	}
	return m.Room.SendHTMLBox(ctx, html)
}

// Command is one registered chat command.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	// AdminOnly restricts the command to the configured administrator list.
	AdminOnly bool
	// PMOnly restricts the command to private messages.
	PMOnly bool
	Fn     func(ctx context.Context, msg *Message) error
}

// Deps carries what the built-in commands need beyond the session itself.
type Deps struct {
	Lookup repositories.Lookup
	// Shutdown requests process termination; wired to the root context.
	Shutdown context.CancelFunc
}

// Registry maps command names and aliases to commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	names    []string
	log      *slog.Logger
	deps     Deps
}

func NewRegistry(deps Deps, log *slog.Logger) *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		log:      log,
		deps:     deps,
	}
}

// Register adds a command under its name and each alias. A clashing name
// keeps the earlier command and logs the conflict.
func (r *Registry) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
		key := string(protocol.ToUserID(name))
		if _, exists := r.commands[key]; exists {
			r.log.Warn("duplicate command registration ignored", "command", key)
			continue
		}
		r.commands[key] = cmd
	}
	r.names = append(r.names, cmd.Name)
	sort.Strings(r.names)
}

// Lookup resolves a name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[string(protocol.ToUserID(name))]
	return cmd, ok
}

// Names returns the primary command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Handle parses text as a command invocation and runs it. It reports whether
// the text was addressed to the command surface at all; non-command chatter
// returns false with no error.
func (r *Registry) Handle(ctx context.Context, s *runtime.Session, room *domain.Room, user *domain.User, rank, text string) (bool, error) {
	prefix := s.CommandPrefix
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return false, nil
	}
	body := strings.TrimPrefix(text, prefix)
	name, arg, _ := strings.Cut(body, " ")
	if name == "" {
		return false, nil
	}

	cmd, ok := r.Lookup(name)
	if !ok {
		return false, nil
	}
	if cmd.AdminOnly && !s.IsAdministrator(user.ID) {
		return true, nil
	}
	if cmd.PMOnly && room != nil {
		return true, nil
	}

	msg := &Message{
		Session: s,
		Room:    room,
		User:    user,
		Rank:    rank,
		Arg:     strings.TrimSpace(arg),
	}
	for _, part := range strings.Split(msg.Arg, ",") {
		if part = strings.TrimSpace(part); part != "" {
			msg.Args = append(msg.Args, part)
		}
	}

	r.log.Info("command", "name", cmd.Name, "user", string(user.ID), "room", roomLabel(room))
	return true, cmd.Fn(ctx, msg)
}

func roomLabel(room *domain.Room) string {
	if room == nil {
		return "pm"
	}
	return string(room.ID)
}

// RegisterBuiltins installs the stock command set.
func (r *Registry) RegisterBuiltins() {
	r.Register(translateCommand(r.deps.Lookup))
	r.Register(uptimeCommand())
	r.Register(sayCommand())
	r.Register(shutdownCommand(r.deps.Shutdown))
	r.Register(helpCommand(r))
}
