package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"showbot/auth"
	"showbot/domain"
	"showbot/protocol"
	"showbot/runtime"
)

// challstrHandler runs the identity handshake: the server's challenge is
// traded for an assertion at the login endpoint, then presented back on the
// socket.
func challstrHandler(login auth.LoginClient) runtime.Handler {
	return func(ctx context.Context, s *runtime.Session, _ *domain.Room, args []string) error {
		if len(args) == 0 {
			return nil
		}
		challstr := strings.Join(args, "|")

		assertion, err := login.Assertion(ctx, s.Username, s.Password, challstr)
		if err != nil {
			return fmt.Errorf("resolving login challenge: %w", err)
		}
		return s.SendGlobal(ctx, fmt.Sprintf("/trn %s,0,%s", s.Username, assertion))
	}
}

// updateuserHandler reacts to the server confirming our own identity: set the
// avatar and status, ask for the public room listing and join the configured
// rooms.
func updateuserHandler(ctx context.Context, s *runtime.Session, _ *domain.Room, args []string) error {
	if len(args) < 2 {
		return nil
	}
	_, name, _ := parseUserToken(args[0])
	if protocol.ToUserID(name) != protocol.ToUserID(s.Username) {
		return nil
	}
	// Guests get an updateuser too; wait for the named one.
	if args[1] == "0" {
		return nil
	}

	if s.Avatar != "" && (len(args) < 3 || args[2] != s.Avatar) {
		if err := s.SendGlobal(ctx, "/avatar "+s.Avatar); err != nil {
			return err
		}
	}
	if s.StatusText != "" {
		if err := s.SendGlobal(ctx, "/status "+s.StatusText); err != nil {
			return err
		}
	}
	if err := s.SendGlobal(ctx, "/cmd rooms"); err != nil {
		return err
	}

	for _, room := range s.Registry().Rooms() {
		if !room.Autojoin {
			continue
		}
		if err := s.SendGlobal(ctx, "/join "+string(room.ID)); err != nil {
			return err
		}
	}
	return nil
}

// formatsHandler parses the server's battle format listing. Sections are
// announced as a ",<flag>" marker followed by the section name; every other
// field is "<name>,<code>".
func formatsHandler(_ context.Context, s *runtime.Session, _ *domain.Room, args []string) error {
	var tiers []runtime.Tier
	var section string
	sectionNext := false

	for _, field := range args {
		if field == "" {
			continue
		}
		if field[0] == ',' {
			sectionNext = true
			continue
		}
		if sectionNext {
			section = field
			sectionNext = false
			continue
		}
		name, _, _ := strings.Cut(field, ",")
		id := string(protocol.ToUserID(name))
		tiers = append(tiers, runtime.Tier{
			ID:      id,
			Name:    name,
			Section: section,
			Random:  strings.Contains(id, "random"),
		})
	}

	s.SetTiers(tiers)
	s.Logger().Info("formats loaded", "tiers", len(tiers))
	return nil
}

// roomsListing mirrors the JSON payload of the "rooms" query response.
type roomsListing struct {
	Official []roomListingEntry `json:"official"`
	Chat     []roomListingEntry `json:"chat"`
	Pspl     []roomListingEntry `json:"pspl"`
}

type roomListingEntry struct {
	Title string `json:"title"`
}

// queryresponseHandler currently consumes only the "rooms" query, feeding the
// public room listing that drives Room.IsPrivate.
func queryresponseHandler(_ context.Context, s *runtime.Session, _ *domain.Room, args []string) error {
	if len(args) < 2 || args[0] != "rooms" {
		return nil
	}

	var listing roomsListing
	if err := json.Unmarshal([]byte(strings.Join(args[1:], "|")), &listing); err != nil {
		return fmt.Errorf("decoding rooms listing: %w", err)
	}

	var ids []protocol.RoomID
	for _, group := range [][]roomListingEntry{listing.Official, listing.Chat, listing.Pspl} {
		for _, entry := range group {
			ids = append(ids, protocol.ToRoomID(entry.Title))
		}
	}
	s.Registry().SetPublicRooms(ids)
	return nil
}
