package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToRoomID(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		in   string
		want RoomID
	}{
		{"Lobby", "lobby"},
		{">lobby", "lobby"},
		{"Italiano Old Gens", "italianooldgens"},
		{"lobby", "lobby"},
		{"", ""},
	}
	for _, tt := range tests {
		req.Equal(tt.want, ToRoomID(tt.in), "input %q", tt.in)
	}
}

func TestToUserID_StripsRankAndPunctuation(t *testing.T) {
	req := require.New(t)

	req.Equal(UserID("alice"), ToUserID("+Alice"))
	req.Equal(UserID("alice"), ToUserID("@alice"))
	req.Equal(UserID("mrsandman"), ToUserID("Mr. Sand-Man"))
}

func TestToUserID_Idempotent(t *testing.T) {
	req := require.New(t)

	for _, s := range []string{"#Room Owner", "weird⭐name", "UPPER lower 123"} {
		once := ToUserID(s)
		req.Equal(once, ToUserID(string(once)))
	}
}

func TestToUserID_KnownUnicodeMismatch(t *testing.T) {
	// Upstream quirk: special glyphs are dropped, not transliterated.
	require.NotEqual(t, ToUserID("Nidoran♀"), ToUserID("nidoranf"))
	require.Equal(t, UserID("nidoran"), ToUserID("Nidoran♀"))
}

func TestEscapeCommand(t *testing.T) {
	req := require.New(t)

	req.Equal("//me waves", EscapeCommand("/me waves"))
	req.Equal(" !dt pikachu", EscapeCommand("!dt pikachu"))
	req.Equal("hello", EscapeCommand("hello"))
}

func TestFormatRoomMessage(t *testing.T) {
	req := require.New(t)

	req.Equal("lobby|hi", FormatRoomMessage("lobby", "hi"))
	req.Equal("|/pm alice, hi", FormatRoomMessage("", "/pm alice, hi"))
}
