// Package protocol implements the line-oriented, pipe-delimited grammar spoken
// by the chat server. A transport frame optionally starts with a ">roomid"
// header line; every other line is either free text or a structured record of
// the form "|command|arg|arg...".
package protocol

import (
	"regexp"
	"strings"
)

// initDenyList holds commands that must not be replayed when they arrive as
// part of a room's init backlog. A join dumps the full tournament state into
// the init frame; replaying it through handlers would re-announce stale
// brackets, so decoding stops at the first such line.
var initDenyList = map[string]struct{}{
	"tournament": {},
}

var languageAnnouncement = regexp.MustCompile(`^This room's primary language is (.*)$`)

// Line is one physical line within a frame.
type Line struct {
	// Command is empty for informational (non-pipe) lines.
	Command string
	// Args holds the positional fields after the command, kept as raw strings.
	Args []string
	// Raw is the unmodified line, used for room buffers and side channels.
	Raw string
}

// Informational reports whether the line carries no structured record.
func (l Line) Informational() bool {
	return l.Command == "" && !strings.HasPrefix(l.Raw, "|")
}

// Frame is one decoded transport message.
type Frame struct {
	RoomID RoomID
	Lines  []Line
	// Truncated is set when an init-context deny-listed command cut the
	// frame short.
	Truncated bool
}

// DecodeFrame splits a raw transport message into its room identifier and
// per-line records. An empty message yields a frame with no lines. Malformed
// lines never fail the decode; they come back as informational lines and are
// skipped at dispatch time.
func DecodeFrame(raw string) Frame {
	var frame Frame
	if raw == "" {
		return frame
	}

	lines := strings.Split(raw, "\n")
	if strings.HasPrefix(lines[0], ">") {
		frame.RoomID = ToRoomID(lines[0])
	}

	init := false
	for _, text := range lines {
		line := Line{Raw: text}
		if strings.HasPrefix(text, "|") {
			parts := strings.Split(text, "|")
			// parts[0] is the empty field before the leading separator.
			line.Command = parts[1]
			line.Args = parts[2:]
		}

		if line.Command == "init" {
			init = true
		}
		if init {
			if _, denied := initDenyList[line.Command]; denied {
				frame.Truncated = true
				return frame
			}
		}

		frame.Lines = append(frame.Lines, line)
	}
	return frame
}

// LanguageAnnouncement matches the free-text side channel that announces a
// room's primary language. It returns the announced language name when the
// line is such an announcement.
func LanguageAnnouncement(line Line) (string, bool) {
	if !line.Informational() {
		return "", false
	}
	m := languageAnnouncement.FindStringSubmatch(line.Raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}
