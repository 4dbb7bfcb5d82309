/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file defines the Room struct: a named member set plus a bounded history buffer. A Room never
performs socket I/O; it hands rendered lines to each Member's non-blocking Deliver.
*/
package chat

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

const (
	// HistoryCapacity is the number of messages a room retains; the oldest is evicted first.
	HistoryCapacity = 100

	// MaxRoomNameLength is the maximum room name length in characters.
	MaxRoomNameLength = configs.MaxRoomNameLength
)

// joinedBanner introduces the backlog replayed to a joining member.
const joinedBanner = "=== Joined room: %s ==="

// Member is the room's view of a session: a name and a non-blocking line sink.
type Member interface {
	Name() string
	Deliver(line string)
}

// Room is a single named broadcast domain.
type Room struct {
	// Name is the unique key of the room in the Manager directory.
	Name string

	// members are back-references only; the Room does not own session lifetime.
	members map[string]Member

	// history is a ring of at most HistoryCapacity messages starting at head.
	history []Message
	head    int

	// mu serializes every membership change and broadcast, giving the room a total order.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewRoom creates an empty room.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[string]Member),
		history: make([]Message, 0, HistoryCapacity),
		logger:  logx.Logger().With().Str("room", name).Logger(),
	}
}

// ValidateRoomName checks a room name taken from a /join argument.
func ValidateRoomName(name string) *errs.CustomError {
	if name == "" ||
		strings.IndexFunc(name, unicode.IsSpace) >= 0 ||
		utf8.RuneCountInString(name) > MaxRoomNameLength ||
		!utf8.ValidString(name) {
		return errs.NewError(errs.ErrRoomNameInvalid, MaxRoomNameLength)
	}
	return nil
}

// admit adds m, records and broadcasts joinMsg to every member including m,
// then sends m the room banner and the Chat backlog that preceded the join.
func (r *Room) admit(m Member, joinMsg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	backlog := r.chatHistoryLocked()

	r.members[m.Name()] = m
	r.appendLocked(joinMsg)
	r.deliverLocked(joinMsg.Render())

	m.Deliver(fmt.Sprintf(joinedBanner, r.Name))
	for _, msg := range backlog {
		m.Deliver(msg.Render())
	}

	r.logger.Debug().
		Str("member", m.Name()).
		Int("members", len(r.members)).
		Int("replayed", len(backlog)).
		Msg("Member joined room.")
}

// release removes name, records and broadcasts leaveMsg to the remaining members.
// It reports whether the room is now empty. Releasing a non-member is a no-op.
func (r *Room) release(name string, leaveMsg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[name]; !ok {
		return len(r.members) == 0
	}

	delete(r.members, name)
	r.appendLocked(leaveMsg)
	r.deliverLocked(leaveMsg.Render())

	r.logger.Debug().Str("member", name).Int("members", len(r.members)).Msg("Member left room.")

	return len(r.members) == 0
}

// publish records msg and delivers it to the members present at call time.
func (r *Room) publish(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appendLocked(msg)
	r.deliverLocked(msg.Render())
}

// History returns a copy of the retained messages, oldest first.
func (r *Room) History() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.historyLocked()
}

// Members returns the sorted display names of current members.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of current members.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

func (r *Room) appendLocked(msg Message) {
	if len(r.history) < HistoryCapacity {
		r.history = append(r.history, msg)
		return
	}
	r.history[r.head] = msg
	r.head = (r.head + 1) % HistoryCapacity
}

func (r *Room) historyLocked() []Message {
	out := make([]Message, 0, len(r.history))
	out = append(out, r.history[r.head:]...)
	out = append(out, r.history[:r.head]...)
	return out
}

func (r *Room) chatHistoryLocked() []Message {
	all := r.historyLocked()
	out := all[:0]
	for _, msg := range all {
		if msg.Kind == KindChat {
			out = append(out, msg)
		}
	}
	return out
}

// deliverLocked hands line to every member. Deliver never blocks, so one slow
// member cannot stall the room.
func (r *Room) deliverLocked(line string) {
	for _, m := range r.members {
		m.Deliver(line)
	}
}
