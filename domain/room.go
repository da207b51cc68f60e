package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"showbot/protocol"
)

// Outbound is the single funnel every room reply goes through. The session
// implements it with the rate-limited send path.
type Outbound interface {
	Send(ctx context.Context, raw string) error
}

// LanguageResolver maps a language display name onto its dataset ID.
type LanguageResolver func(name string) (int, bool)

const (
	// BufferSize bounds the per-room ring of recent raw lines.
	BufferSize = 20

	// EnglishLanguageID is the dataset ID used when no resolver is wired or
	// the room language is unknown.
	EnglishLanguageID = 9

	// Automatic modchat policy: only between 00:30 and 08:00 local reference
	// time, only after the room has been without moderators for a while, and
	// never more often than the debounce interval.
	modchatWindowStart = 30
	modchatWindowEnd   = 8 * 60
	modchatAfterGap    = 7 * time.Hour
	modchatDebounce    = 15 * time.Second

	modnoteMaxLen = 300
)

// modchatZone is the reference timezone for the night window.
var modchatZone = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		return time.UTC
	}
	return loc
}()

type member struct {
	user *User
	rank string
}

// Room is a named channel scoping membership, moderation state and a short
// history of raw lines. Instances are registered in a Registry; use
// Registry.Room instead of NewRoom unless you are wiring startup membership.
type Room struct {
	ID protocol.RoomID
	// Autojoin marks rooms the bot joins on startup.
	Autojoin bool

	reg *Registry
	out Outbound
	log *slog.Logger

	mu          sync.Mutex
	title       string
	language    string
	buffer      []string
	modchat     bool
	roombot     bool
	members     map[protocol.UserID]member
	noModsSince *time.Time
	lastModchat time.Time
}

func newRoom(reg *Registry, id protocol.RoomID, autojoin bool) *Room {
	return &Room{
		ID:       id,
		Autojoin: autojoin,
		reg:      reg,
		out:      reg.out,
		log:      reg.log.With("room", string(id)),
		language: "English",
		members:  make(map[protocol.UserID]member),
	}
}

func (r *Room) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

func (r *Room) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

func (r *Room) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language
}

func (r *Room) SetLanguage(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = language
}

// LanguageID resolves the room language through the registry's resolver,
// falling back to English when the language is unknown.
func (r *Room) LanguageID() int {
	resolve := r.reg.languageResolver()
	if resolve == nil {
		return EnglishLanguageID
	}
	if id, ok := resolve(r.Language()); ok {
		return id
	}
	return EnglishLanguageID
}

func (r *Room) Modchat() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modchat
}

func (r *Room) SetModchat(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modchat = on
}

// Roombot reports whether the connection's identity holds bot rank here.
func (r *Room) Roombot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roombot
}

func (r *Room) SetRoombot(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roombot = on
}

// IsPrivate reports whether the room is absent from the server's public room
// listing.
func (r *Room) IsPrivate() bool {
	return !r.reg.IsPublic(r.ID)
}

// Remember appends a raw line to the room buffer, evicting the oldest line
// once BufferSize is reached.
func (r *Room) Remember(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(r.buffer, line)
	if len(r.buffer) > BufferSize {
		r.buffer = r.buffer[1:]
	}
}

// Buffer returns a copy of the recent raw lines, oldest first.
func (r *Room) Buffer() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.buffer))
	copy(out, r.buffer)
	return out
}

// AddUser upserts a member. An empty rank preserves the stored one, or
// defaults to regular for a new member. First membership anywhere registers
// the user in the session-wide table.
func (r *Room) AddUser(name, rank string) *User {
	id := protocol.ToUserID(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	m, known := r.members[id]
	if !known {
		m = member{user: r.reg.users.Acquire(name), rank: RankRegular}
	}
	if rank != "" {
		m.rank = rank
	}
	m.user.SetName(name)
	r.members[id] = m

	r.recomputeModGapLocked(time.Now())
	return m.user
}

// RemoveUser drops a member and releases its global reference.
func (r *Room) RemoveUser(id protocol.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.reg.users.Release(id)
	r.recomputeModGapLocked(time.Now())
}

// evictAll drops every member, releasing their table references.
func (r *Room) evictAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.members {
		delete(r.members, id)
		r.reg.users.Release(id)
	}
}

// RefreshModGap recomputes the moderator-gap state, to be called after a
// member's idle flag changed outside AddUser/RemoveUser.
func (r *Room) RefreshModGap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputeModGapLocked(time.Now())
}

// recomputeModGapLocked keeps the invariant: noModsSince is set iff no
// present, non-idle member holds at least driver rank.
func (r *Room) recomputeModGapLocked(now time.Time) {
	for _, m := range r.members {
		if m.user.Idle() {
			continue
		}
		if RankAtLeast(m.rank, RankDriver) {
			r.noModsSince = nil
			return
		}
	}
	if r.noModsSince == nil {
		r.noModsSince = &now
	}
}

// Has reports room membership.
func (r *Room) Has(id protocol.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[id]
	return ok
}

// Rank returns the member's rank string, or regular for non-members.
func (r *Room) Rank(id protocol.UserID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		return m.rank
	}
	return RankRegular
}

// Users returns a snapshot of the membership.
func (r *Room) Users() map[*User]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[*User]string, len(r.members))
	for _, m := range r.members {
		out[m.user] = m.rank
	}
	return out
}

// ModGapSince returns the time the room lost its last active moderator, or
// false when a moderator is present.
func (r *Room) ModGapSince() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.noModsSince == nil {
		return time.Time{}, false
	}
	return *r.noModsSince, true
}

// TryModchat applies the automatic night-moderation policy. Outside its
// conditions it is a silent no-op, not an error.
func (r *Room) TryModchat(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	if r.modchat || r.noModsSince == nil {
		r.mu.Unlock()
		return nil
	}
	local := now.In(modchatZone)
	minutes := local.Hour()*60 + local.Minute()
	if minutes < modchatWindowStart || minutes >= modchatWindowEnd {
		r.mu.Unlock()
		return nil
	}
	if now.Sub(*r.noModsSince) < modchatAfterGap {
		r.mu.Unlock()
		return nil
	}
	if now.Sub(r.lastModchat) < modchatDebounce {
		r.mu.Unlock()
		return nil
	}
	r.lastModchat = now
	r.mu.Unlock()

	r.log.Info("raising modchat, no moderators online")
	return r.SendCommand(ctx, "/modchat "+RankVoice)
}

// Send delivers chat text to the room, neutralizing leading command sigils.
func (r *Room) Send(ctx context.Context, text string) error {
	return r.out.Send(ctx, protocol.FormatRoomMessage(r.ID, protocol.EscapeCommand(text)))
}

// SendCommand delivers a raw server command to the room, unescaped.
func (r *Room) SendCommand(ctx context.Context, command string) error {
	return r.out.Send(ctx, protocol.FormatRoomMessage(r.ID, command))
}

// SendHTMLBox shows an HTML box to everybody in the room.
func (r *Room) SendHTMLBox(ctx context.Context, html string) error {
	return r.SendCommand(ctx, "/addhtmlbox "+html)
}

// SendRankHTMLBox shows an HTML box only to users holding at least rank.
func (r *Room) SendRankHTMLBox(ctx context.Context, rank, html string) error {
	return r.SendCommand(ctx, fmt.Sprintf("/addrankhtmlbox %s, %s", rank, html))
}

// SendModnote records a moderation note, provided the bot has roombot rank.
func (r *Room) SendModnote(ctx context.Context, action string, user protocol.UserID, note string) error {
	if !r.Roombot() {
		return nil
	}
	arg := fmt.Sprintf("[%s] %s", action, user)
	if note != "" {
		arg += ": " + note
	}
	// Shorten on runes, not bytes, so multi-byte text is never split.
	if runes := []rune(arg); len(runes) > modnoteMaxLen {
		arg = string(runes[:modnoteMaxLen-1]) + "…"
	}
	return r.SendCommand(ctx, "/modnote "+arg)
}
