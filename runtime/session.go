// Package runtime owns the connection session: the socket, the startup task
// sequence, the receive loop, per-frame dispatch and the rate-limited send
// path. It decodes the wire protocol into structured events and leaves every
// domain decision to the registered handlers.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"showbot/domain"
	apperrors "showbot/errors"
	"showbot/protocol"
)

// sendInterval is the minimum spacing between two outbound frames,
// protecting the remote server from flooding.
const sendInterval = 100 * time.Millisecond

// Options carries the configuration read once at session construction.
type Options struct {
	URL            string
	Username       string
	Password       string
	Avatar         string
	StatusText     string
	Rooms          []string
	MainRoom       string
	CommandPrefix  string
	Administrators []string
	Domain         string
	// UnitTesting omits startup tasks flagged SkipInTest.
	UnitTesting bool
}

// Tier describes one entry of the server's format list.
type Tier struct {
	ID      string
	Name    string
	Section string
	Random  bool
}

// Session drives exactly one connection. It is created once at process start
// and lives for the process lifetime; the transport handle comes and goes
// with the connection. There is no automatic reconnect in here: once the
// receive loop exits, the session is done and the caller decides what's next.
type Session struct {
	URL           string
	Username      string
	Password      string
	Avatar        string
	StatusText    string
	CommandPrefix string
	Domain        string

	log        *slog.Logger
	registry   *domain.Registry
	dispatcher *Dispatcher
	startup    []StartupTask
	admins     map[protocol.UserID]struct{}
	mainRoom   protocol.RoomID
	testing    bool

	// dial is swapped for a fake transport in tests.
	dial func(ctx context.Context, url string) (Transport, error)

	sendMu   sync.Mutex
	lastSend time.Time

	mu              sync.Mutex
	transport       Transport
	connectionStart time.Time
	tiers           []Tier

	frames sync.WaitGroup
}

// NewSession builds the session and its room/user registry from configuration.
func NewSession(opts Options, log *slog.Logger) *Session {
	s := &Session{
		URL:           opts.URL,
		Username:      opts.Username,
		Password:      opts.Password,
		Avatar:        opts.Avatar,
		StatusText:    opts.StatusText,
		CommandPrefix: opts.CommandPrefix,
		Domain:        opts.Domain,
		log:           log,
		admins:        make(map[protocol.UserID]struct{}, len(opts.Administrators)),
		mainRoom:      protocol.ToRoomID(opts.MainRoom),
		testing:       opts.UnitTesting,
		dial:          DialTransport,
	}
	s.dispatcher = NewDispatcher(log)
	s.registry = domain.NewRegistry(s, log)
	for _, name := range opts.Rooms {
		s.registry.Register(s.registry.NewRoom(name, true))
	}
	if opts.MainRoom != "" {
		s.registry.Room(opts.MainRoom)
	}
	for _, admin := range opts.Administrators {
		s.admins[protocol.ToUserID(admin)] = struct{}{}
	}
	return s
}

// Registry exposes the room/user registry.
func (s *Session) Registry() *domain.Registry { return s.registry }

// Logger exposes the session logger for collaborators without their own.
func (s *Session) Logger() *slog.Logger { return s.log }

// Dispatcher exposes the command table for handler registration.
func (s *Session) Dispatcher() *Dispatcher { return s.dispatcher }

// MainRoom returns the room used for operational reporting.
func (s *Session) MainRoom() *domain.Room {
	return s.registry.Room(string(s.mainRoom))
}

// IsAdministrator reports whether the user is on the configured admin list.
func (s *Session) IsAdministrator(id protocol.UserID) bool {
	_, ok := s.admins[id]
	return ok
}

// UnderTest reports whether the session runs in the test harness.
func (s *Session) UnderTest() bool { return s.testing }

// ConnectionStart returns the time the transport opened, or false while
// disconnected.
func (s *Session) ConnectionStart() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectionStart.IsZero() {
		return time.Time{}, false
	}
	return s.connectionStart, true
}

// SetTiers replaces the loaded format descriptor list.
func (s *Session) SetTiers(tiers []Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers = tiers
}

// Tiers returns the loaded format descriptor list.
func (s *Session) Tiers() []Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tier(nil), s.tiers...)
}

// AttachTransport installs an already-open transport, for harnesses that do
// not drive the full Open loop.
func (s *Session) AttachTransport(tr Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = tr
	s.connectionStart = time.Now()
}

// Open runs the startup tiers, connects the transport and enters the receive
// loop. It returns when the transport dies (nil: a clean, expected end) or
// the context is cancelled. Transport-level and protocol-level errors are
// treated identically; whether to reconnect is the caller's call.
func (s *Session) Open(ctx context.Context) error {
	if err := s.runStartup(ctx); err != nil {
		return fmt.Errorf("startup sequence: %w", err)
	}

	tr, err := s.dial(ctx, s.URL)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.URL, err)
	}

	s.mu.Lock()
	s.transport = tr
	s.connectionStart = time.Now()
	s.mu.Unlock()
	s.log.Info("connected", "url", s.URL)

	// A cancelled context closes the transport, which unblocks ReadFrame.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = tr.Close()
		case <-done:
		}
	}()

	for {
		raw, err := tr.ReadFrame()
		if err != nil {
			s.log.Info("connection closed", "error", err)
			break
		}
		frameID := uuid.NewString()
		s.log.Debug("<< frame", "frame", frameID, "raw", raw)

		// Frames are independent units of work: the loop keeps reading
		// while earlier frames are still being handled.
		s.frames.Add(1)
		go s.handleFrame(ctx, frameID, raw)
	}

	s.frames.Wait()
	s.mu.Lock()
	s.transport = nil
	s.connectionStart = time.Time{}
	s.mu.Unlock()

	return ctx.Err()
}

// handleFrame decodes one frame and walks its lines in order, joining all
// handlers of a line before moving to the next.
func (s *Session) handleFrame(ctx context.Context, frameID, raw string) {
	defer s.frames.Done()

	frame := protocol.DecodeFrame(raw)
	if len(frame.Lines) == 0 {
		return
	}
	room := s.registry.Room(string(frame.RoomID))

	if room.Roombot() && !room.IsPrivate() {
		if err := room.TryModchat(ctx, time.Now()); err != nil {
			s.log.Error("modchat policy send failed", "room", string(room.ID), "error", err)
		}
	}

	for _, line := range frame.Lines {
		if lang, ok := protocol.LanguageAnnouncement(line); ok {
			room.SetLanguage(lang)
			continue
		}
		if line.Command == "" {
			continue
		}
		s.dispatcher.dispatchLine(ctx, s, room, line, frameID)
	}
}

// Send writes one raw frame to the transport. It is the sole outbound funnel
// and enforces the minimum inter-send spacing process-wide: a call arriving
// too early suspends until the interval is satisfied.
func (s *Session) Send(ctx context.Context, raw string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if wait := sendInterval - time.Since(s.lastSend); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	tr := s.transport
	s.mu.Unlock()
	if tr == nil {
		return apperrors.ErrNotConnected
	}

	s.log.Debug(">> frame", "raw", raw)
	s.lastSend = time.Now()
	return tr.WriteFrame(raw)
}

// SendGlobal sends a command outside any room scope.
func (s *Session) SendGlobal(ctx context.Context, text string) error {
	return s.Send(ctx, protocol.FormatRoomMessage("", text))
}

// SendPM whispers to a user through the global send path.
func (s *Session) SendPM(ctx context.Context, user protocol.UserID, text string) error {
	return s.SendGlobal(ctx, fmt.Sprintf("/w %s, %s", user, protocol.EscapeCommand(text)))
}
