package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func uptimeCommand() *Command {
	return &Command{
		Name: "uptime",
		Help: "Shows how long the current connection has been up.",
		Fn: func(ctx context.Context, msg *Message) error {
			start, ok := msg.Session.ConnectionStart()
			if !ok {
				return msg.Reply(ctx, "Not connected")
			}
			up := time.Since(start).Round(time.Second)
			return msg.Reply(ctx, fmt.Sprintf("Uptime: %s", up))
		},
	}
}

// sayCommand relays arbitrary text, which makes it an administrators-only
// megaphone.
func sayCommand() *Command {
	return &Command{
		Name:      "say",
		AdminOnly: true,
		Help:      "Repeats the given text in the current room.",
		Fn: func(ctx context.Context, msg *Message) error {
			if msg.Arg == "" {
				return nil
			}
			return msg.Reply(ctx, msg.Arg)
		},
	}
}

func shutdownCommand(shutdown context.CancelFunc) *Command {
	return &Command{
		Name:      "shutdown",
		Aliases:   []string{"kill"},
		AdminOnly: true,
		PMOnly:    true,
		Help:      "Terminates the process.",
		Fn: func(ctx context.Context, msg *Message) error {
			if shutdown == nil {
				return nil
			}
			msg.Session.Logger().Warn("shutdown requested", "user", string(msg.User.ID))
			shutdown()
			return nil
		},
	}
}

func helpCommand(r *Registry) *Command {
	return &Command{
		Name:    "help",
		Aliases: []string{"commands"},
		Help:    "Lists the available commands.",
		Fn: func(ctx context.Context, msg *Message) error {
			if msg.Arg != "" {
				cmd, ok := r.Lookup(msg.Arg)
				if !ok || cmd.Help == "" {
					return msg.Reply(ctx, "Unknown command")
				}
				return msg.Reply(ctx, fmt.Sprintf("%s%s: %s", msg.Session.CommandPrefix, cmd.Name, cmd.Help))
			}
			return msg.Reply(ctx, "Commands: "+strings.Join(r.Names(), ", "))
		},
	}
}
