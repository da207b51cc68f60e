package domain

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"showbot/protocol"
)

type sendRecorder struct {
	mu   sync.Mutex
	sent []string
}

func (s *sendRecorder) Send(_ context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, raw)
	return nil
}

func (s *sendRecorder) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func newTestRegistry() (*Registry, *sendRecorder) {
	out := &sendRecorder{}
	return NewRegistry(out, slog.Default()), out
}

func TestRoom_BufferEvictsOldest(t *testing.T) {
	req := require.New(t)
	reg, _ := newTestRegistry()
	room := reg.Room("lobby")

	for i := 0; i < BufferSize+5; i++ {
		room.Remember(string(rune('a' + i%26)))
	}

	buf := room.Buffer()
	req.Len(buf, BufferSize)
	// Oldest five lines are gone.
	req.Equal(string(rune('a'+5)), buf[0])
}

func TestRoom_AddUserPreservesRank(t *testing.T) {
	req := require.New(t)
	reg, _ := newTestRegistry()
	room := reg.Room("lobby")

	room.AddUser("+Alice", RankVoice)
	req.Equal(RankVoice, room.Rank(protocol.ToUserID("Alice")))

	// Re-adding without a rank keeps voice.
	room.AddUser("Alice", "")
	req.Equal(RankVoice, room.Rank(protocol.ToUserID("Alice")))

	// A new user without a rank is regular.
	room.AddUser("Bob", "")
	req.Equal(RankRegular, room.Rank(protocol.ToUserID("Bob")))
}

func TestRoom_ModGapTracksDrivers(t *testing.T) {
	req := require.New(t)
	reg, _ := newTestRegistry()
	room := reg.Room("lobby")

	_, gap := room.ModGapSince()
	req.False(gap, "empty room recomputes only on membership changes")

	room.AddUser("Alice", RankVoice)
	_, gap = room.ModGapSince()
	req.True(gap, "a voiced user is not a moderator")

	room.AddUser("Mod", RankDriver)
	_, gap = room.ModGapSince()
	req.False(gap)

	mod := room.AddUser("Mod", "")
	mod.SetIdle(true)
	room.RefreshModGap()
	_, gap = room.ModGapSince()
	req.True(gap, "an idle driver does not count")

	mod.SetIdle(false)
	room.RefreshModGap()
	_, gap = room.ModGapSince()
	req.False(gap)

	room.RemoveUser(protocol.ToUserID("Mod"))
	_, gap = room.ModGapSince()
	req.True(gap)
}

func TestRoom_TryModchatFiresInsideWindow(t *testing.T) {
	req := require.New(t)
	reg, out := newTestRegistry()
	room := reg.Room("lobby")
	room.AddUser("Alice", RankVoice)

	_, gap := room.ModGapSince()
	req.True(gap)

	// 03:00 in the reference zone, gap older than the threshold.
	now := time.Date(2024, 2, 10, 3, 0, 0, 0, modchatZone)
	past := now.Add(-8 * time.Hour)
	room.mu.Lock()
	room.noModsSince = &past
	room.mu.Unlock()

	req.NoError(room.TryModchat(context.Background(), now))
	req.Equal([]string{"lobby|/modchat +"}, out.all())

	// Debounced: an immediate second attempt is a no-op.
	req.NoError(room.TryModchat(context.Background(), now.Add(5*time.Second)))
	req.Len(out.all(), 1)
}

func TestRoom_TryModchatNoOpsOutsideWindow(t *testing.T) {
	req := require.New(t)
	reg, out := newTestRegistry()
	room := reg.Room("lobby")
	room.AddUser("Alice", RankVoice)

	past := time.Date(2024, 2, 9, 12, 0, 0, 0, modchatZone)
	room.mu.Lock()
	room.noModsSince = &past
	room.mu.Unlock()

	// 12:00 is outside [00:30, 08:00).
	noon := time.Date(2024, 2, 10, 12, 0, 0, 0, modchatZone)
	req.NoError(room.TryModchat(context.Background(), noon))

	// 00:10 is before the window opens.
	early := time.Date(2024, 2, 10, 0, 10, 0, 0, modchatZone)
	req.NoError(room.TryModchat(context.Background(), early))

	// Gap too recent inside the window.
	recent := time.Date(2024, 2, 10, 1, 0, 0, 0, modchatZone)
	room.mu.Lock()
	justNow := recent.Add(-time.Hour)
	room.noModsSince = &justNow
	room.mu.Unlock()
	req.NoError(room.TryModchat(context.Background(), recent))

	req.Empty(out.all())
}

func TestRoom_TryModchatSkipsWhenAlreadyElevated(t *testing.T) {
	reg, out := newTestRegistry()
	room := reg.Room("lobby")
	room.AddUser("Alice", RankVoice)
	room.SetModchat(true)

	now := time.Date(2024, 2, 10, 3, 0, 0, 0, modchatZone)
	past := now.Add(-8 * time.Hour)
	room.mu.Lock()
	room.noModsSince = &past
	room.mu.Unlock()

	require.NoError(t, room.TryModchat(context.Background(), now))
	require.Empty(t, out.all())
}

func TestRoom_SendEscapesCommands(t *testing.T) {
	req := require.New(t)
	reg, out := newTestRegistry()
	room := reg.Room("lobby")

	req.NoError(room.Send(context.Background(), "/me waves"))
	req.NoError(room.SendCommand(context.Background(), "/modchat +"))
	req.Equal([]string{"lobby|//me waves", "lobby|/modchat +"}, out.all())
}

func TestRoom_SendModnoteRequiresRoombot(t *testing.T) {
	req := require.New(t)
	reg, out := newTestRegistry()
	room := reg.Room("lobby")

	req.NoError(room.SendModnote(context.Background(), "banned phrase", "alice", "said a bad thing"))
	req.Empty(out.all())

	room.SetRoombot(true)
	req.NoError(room.SendModnote(context.Background(), "banned phrase", "alice", "said a bad thing"))
	req.Equal([]string{"lobby|/modnote [banned phrase] alice: said a bad thing"}, out.all())
}

func TestRoom_SendModnoteShortensOnRunes(t *testing.T) {
	req := require.New(t)
	reg, out := newTestRegistry()
	room := reg.Room("lobby")
	room.SetRoombot(true)

	note := strings.Repeat("è", 2*modnoteMaxLen)
	req.NoError(room.SendModnote(context.Background(), "possible spam", "alice", note))

	sent := out.all()
	req.Len(sent, 1)
	arg := strings.TrimPrefix(sent[0], "lobby|/modnote ")
	req.True(utf8.ValidString(arg))
	req.Len([]rune(arg), modnoteMaxLen)
	req.True(strings.HasSuffix(arg, "…"))
}
