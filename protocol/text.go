package protocol

import (
	"strings"
	"unicode"
)

// RoomID uniquely identifies a room, see ToRoomID.
type RoomID string

// UserID uniquely identifies a user, see ToUserID.
type UserID string

// ToRoomID projects a room display name onto its identifier: lowercase,
// alphanumeric runes only. The projection is idempotent, so feeding an
// identifier back in is harmless.
func ToRoomID(name string) RoomID {
	return RoomID(stripIdentifier(name))
}

// ToUserID projects a username onto its identifier. Rank prefixes ("+", "@",
// "#", ...) are stripped along with every other non-alphanumeric rune.
// Known quirk inherited from the upstream protocol: names containing special
// glyphs do not match their ASCII spellings ("Nidoran♀" != "nidoranf").
func ToUserID(name string) UserID {
	return UserID(stripIdentifier(name))
}

func stripIdentifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r > unicode.MaxASCII {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeCommand neutralizes a leading slash or bang so the server treats the
// text as plain chat. Callers that want to issue real commands go through the
// unescaped send helpers instead.
func EscapeCommand(text string) string {
	switch {
	case strings.HasPrefix(text, "/"):
		return "/" + text
	case strings.HasPrefix(text, "!"):
		return " " + text
	default:
		return text
	}
}

// FormatRoomMessage builds the outbound form of a room-scoped command.
// An empty room ID addresses the global room (lobby-less PM context).
func FormatRoomMessage(roomID RoomID, text string) string {
	return string(roomID) + "|" + text
}
