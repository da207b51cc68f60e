package plugins

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"showbot/repositories"
	"showbot/runtime"
)

// captureTransport records everything the session writes.
type captureTransport struct{ out []string }

func (t *captureTransport) ReadFrame() (string, error)  { select {} }
func (t *captureTransport) WriteFrame(raw string) error { t.out = append(t.out, raw); return nil }
func (t *captureTransport) Close() error                { return nil }

func newTestHarness(t *testing.T, deps Deps) (*runtime.Session, *Registry, *captureTransport) {
	t.Helper()
	tr := &captureTransport{}
	s := runtime.NewSession(runtime.Options{
		Username:       "showbot",
		MainRoom:       "lobby",
		CommandPrefix:  ".",
		Administrators: []string{"Boss"},
		UnitTesting:    true,
	}, slog.Default())
	s.AttachTransport(tr)

	r := NewRegistry(deps, slog.Default())
	r.RegisterBuiltins()
	return s, r, tr
}

func testLookup(t *testing.T) repositories.Lookup {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	lookup := repositories.NewLookup(db, slog.Default())
	require.NoError(t, lookup.SeedDefaults())
	return lookup
}

func TestHandle_IgnoresPlainChatter(t *testing.T) {
	req := require.New(t)
	s, r, tr := newTestHarness(t, Deps{})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	handled, err := r.Handle(context.Background(), s, room, user, "+", "hello there")
	req.NoError(err)
	req.False(handled)
	req.Empty(tr.out)
}

func TestHandle_HelpListsCommands(t *testing.T) {
	req := require.New(t)
	s, r, tr := newTestHarness(t, Deps{})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	handled, err := r.Handle(context.Background(), s, room, user, "+", ".help")
	req.NoError(err)
	req.True(handled)
	req.Len(tr.out, 1)
	req.Contains(tr.out[0], "translate")
	req.Contains(tr.out[0], "uptime")
}

func TestHandle_AdminOnlyDeniedSilently(t *testing.T) {
	req := require.New(t)
	s, r, tr := newTestHarness(t, Deps{})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	handled, err := r.Handle(context.Background(), s, room, user, "+", ".say pwned")
	req.NoError(err)
	req.True(handled)
	req.Empty(tr.out)
}

func TestHandle_SayForAdministrator(t *testing.T) {
	req := require.New(t)
	s, r, tr := newTestHarness(t, Deps{})
	room := s.Registry().Room("lobby")
	boss := room.AddUser("Boss", "#")

	handled, err := r.Handle(context.Background(), s, room, boss, "#", ".say good morning")
	req.NoError(err)
	req.True(handled)
	req.Equal([]string{"lobby|good morning"}, tr.out)
}

func TestHandle_ShutdownOnlyOverPM(t *testing.T) {
	req := require.New(t)
	var cancelled bool
	s, r, _ := newTestHarness(t, Deps{Shutdown: func() { cancelled = true }})
	room := s.Registry().Room("lobby")
	boss := room.AddUser("Boss", "#")

	// In a room the command is refused.
	handled, err := r.Handle(context.Background(), s, room, boss, "#", ".shutdown")
	req.NoError(err)
	req.True(handled)
	req.False(cancelled)

	// Over PM (nil room) it goes through.
	handled, err = r.Handle(context.Background(), s, nil, boss, "#", ".shutdown")
	req.NoError(err)
	req.True(handled)
	req.True(cancelled)
}

func TestTranslate_SingleResult(t *testing.T) {
	req := require.New(t)
	lookup := testLookup(t)
	req.NoError(lookup.PutName(repositories.Name{Category: "move", LanguageID: 9, EntityID: 33, Text: "Tackle"}))
	req.NoError(lookup.PutName(repositories.Name{Category: "move", LanguageID: 8, EntityID: 33, Text: "Azione"}))

	s, r, tr := newTestHarness(t, Deps{Lookup: lookup})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	handled, err := r.Handle(context.Background(), s, room, user, "+", ".translate tackle")
	req.NoError(err)
	req.True(handled)
	req.Equal([]string{"lobby|Azione"}, tr.out)
}

func TestTranslate_MultipleResultsCarryCategories(t *testing.T) {
	req := require.New(t)
	lookup := testLookup(t)
	names := []repositories.Name{
		{Category: "move", LanguageID: 9, EntityID: 33, Text: "Tackle"},
		{Category: "move", LanguageID: 8, EntityID: 33, Text: "Azione"},
		{Category: "ability", LanguageID: 9, EntityID: 7, Text: "Tackle"},
		{Category: "ability", LanguageID: 8, EntityID: 7, Text: "Carica"},
	}
	for _, n := range names {
		req.NoError(lookup.PutName(n))
	}

	s, r, tr := newTestHarness(t, Deps{Lookup: lookup})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	_, err := r.Handle(context.Background(), s, room, user, "+", ".translate tackle")
	req.NoError(err)
	req.Len(tr.out, 1)
	req.Contains(tr.out[0], "(move)")
	req.Contains(tr.out[0], "(ability)")
}

func TestTranslate_EmptyArgumentAsksBack(t *testing.T) {
	req := require.New(t)
	s, r, tr := newTestHarness(t, Deps{Lookup: testLookup(t)})
	room := s.Registry().Room("lobby")
	user := room.AddUser("Alice", "+")

	_, err := r.Handle(context.Background(), s, room, user, "+", ".translate")
	req.NoError(err)
	req.Equal([]string{"lobby|What should I translate?"}, tr.out)
}
