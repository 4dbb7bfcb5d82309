/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file defines the Manager struct, which serves as the central registry for the entire chat system.
It owns the room directory and the session directory, and is the single authority for which room a
display name is currently in.
*/
package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"roomchat/internal/app/user"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// RoomInfo is a snapshot of one room for /rooms and the ops API.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// registration is the directory entry of one registered display name.
type registration struct {
	member      Member
	room        string
	connectedAt time.Time
}

// Manager struct is responsible for coordinating all rooms and registered sessions.
type Manager struct {
	// rooms stores every Room instance, keyed by name.
	rooms map[string]*Room

	// sessions stores every registered display name.
	sessions map[string]*registration

	// mu protects rooms, sessions and each registration's room. Always taken before a Room lock.
	mu sync.RWMutex

	// defaultRoom is created at start and never removed.
	defaultRoom string

	// config holds the application's read-only configuration settings.
	config *configs.AppConfig

	// pool bounds concurrent sessions; nil when MaxConnections is 0.
	pool *semaphore.Weighted

	// live tracks running sessions, authenticated or not, for shutdown.
	liveMu  sync.Mutex
	live    map[*Session]struct{}
	closing bool
	wg      sync.WaitGroup

	// now is the clock used to stamp messages.
	now func() time.Time

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs a Manager and creates the default room.
func NewManager(cfg *configs.AppConfig) *Manager {
	m := &Manager{
		rooms:       make(map[string]*Room),
		sessions:    make(map[string]*registration),
		defaultRoom: cfg.DefaultRoom,
		config:      cfg,
		live:        make(map[*Session]struct{}),
		now:         time.Now,
		logger:      logx.Component("Manager"),
	}

	if cfg.MaxConnections > 0 {
		m.pool = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}

	m.rooms[m.defaultRoom] = NewRoom(m.defaultRoom)

	m.logger.Info().
		Str("default_room", m.defaultRoom).
		Int("max_connections", cfg.MaxConnections).
		Msg("Manager created.")

	return m
}

// DefaultRoom returns the name of the room every session starts in.
func (m *Manager) DefaultRoom() string {
	return m.defaultRoom
}

// Register claims name for member and places it in the default room.
// The uniqueness check and the insert are one atomic step.
func (m *Manager) Register(name string, member Member) *errs.CustomError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; ok {
		m.logger.Debug().Str("name", name).Msg("Registration rejected, name taken.")
		return errs.NewError(errs.ErrNameTaken, name)
	}

	reg := &registration{member: member, connectedAt: m.now()}
	m.sessions[name] = reg

	m.joinLocked(name, reg, m.defaultRoom)
	m.systemLocked(m.defaultRoom, name+" connected to the server")

	m.logger.Info().Str("name", name).Int("total_users", len(m.sessions)).Msg("User registered.")
	return nil
}

// Deregister removes name from the directory and from its room, announcing the disconnect.
// Calling it for a name that is not registered is a no-op.
func (m *Manager) Deregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.sessions[name]
	if !ok {
		return
	}
	delete(m.sessions, name)

	target := m.defaultRoom
	if reg.room != "" {
		target = reg.room
		m.leaveLocked(name, reg)
	}
	m.systemLocked(target, name+" disconnected from the server")

	m.logger.Info().Str("name", name).Int("total_users", len(m.sessions)).Msg("User deregistered.")
}

// Join moves name into roomName, creating the room on first reference and leaving
// the previous room first.
func (m *Manager) Join(name, roomName string) *errs.CustomError {
	if err := ValidateRoomName(roomName); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.sessions[name]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound, name)
	}

	if reg.room == roomName {
		return errs.NewError(errs.ErrAlreadyInRoom, roomName)
	}

	m.joinLocked(name, reg, roomName)
	return nil
}

// Leave removes name from its current room. Empty rooms other than the default room are removed.
func (m *Manager) Leave(name string) *errs.CustomError {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.sessions[name]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound, name)
	}

	if reg.room == "" {
		return errs.NewError(errs.ErrNotInRoom)
	}

	m.leaveLocked(name, reg)
	return nil
}

// BroadcastChat records a Chat message from author in roomName and delivers it to the current members.
func (m *Manager) BroadcastChat(roomName, author, text string) *errs.CustomError {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomName]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound, roomName)
	}

	reg, ok := m.sessions[author]
	if !ok || reg.room != roomName {
		return errs.NewError(errs.ErrNotInRoom)
	}

	room.publish(NewMessage(KindChat, roomName, author, text, m.now()))
	return nil
}

// SendPrivate delivers text from one display name to another, confirming to the sender.
// An unknown recipient is reported to the caller and nothing is delivered.
func (m *Manager) SendPrivate(from, to, text string) *errs.CustomError {
	m.mu.RLock()
	defer m.mu.RUnlock()

	target, ok := m.sessions[to]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound, to)
	}

	target.member.Deliver(NewMessage(KindPrivate, "", from, text, m.now()).Render())

	if sender, ok := m.sessions[from]; ok {
		sender.member.Deliver(fmt.Sprintf("Private message sent to %s: %s", to, text))
	}

	return nil
}

// Announce publishes a System message to roomName, or to every room when roomName is empty.
func (m *Manager) Announce(roomName, text string) *errs.CustomError {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if roomName == "" {
		for name := range m.rooms {
			m.systemLocked(name, text)
		}
		return nil
	}

	if _, ok := m.rooms[roomName]; !ok {
		return errs.NewError(errs.ErrRoomNotFound, roomName)
	}

	m.systemLocked(roomName, text)
	return nil
}

// Kick tells name why it is being removed and closes its session gracefully.
// It reports whether name was registered.
func (m *Manager) Kick(name, reason string) bool {
	m.mu.RLock()
	reg, ok := m.sessions[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	notice := "You have been removed from the server."
	if reason != "" {
		notice = "You have been removed from the server: " + reason
	}
	reg.member.Deliver(NewMessage(KindSystem, "", SystemAuthor, notice, m.now()).Render())

	if c, ok := reg.member.(interface{ Close() }); ok {
		go c.Close()
	}

	m.logger.Warn().Str("name", name).Str("reason", reason).Msg("User kicked.")
	return true
}

// ListUsers returns the sorted display names of every registered session.
func (m *Manager) ListUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Users returns a snapshot of every registered session, sorted by name.
func (m *Manager) Users() []user.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]user.User, 0, len(m.sessions))
	for name, reg := range m.sessions {
		u := user.User{Name: name, Room: reg.room, ConnectedAt: reg.connectedAt}
		if s, ok := reg.member.(interface{ ID() string }); ok {
			u.SessionID = s.ID()
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

// ListRooms returns every room with its member count, sorted by name.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]RoomInfo, 0, len(m.rooms))
	for name, room := range m.rooms {
		rooms = append(rooms, RoomInfo{Name: name, Members: room.Len()})
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// CurrentRoom returns the room name is in, or "" when it is in none or not registered.
func (m *Manager) CurrentRoom(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if reg, ok := m.sessions[name]; ok {
		return reg.room
	}
	return ""
}

// RoomMembers returns the sorted member names of roomName.
func (m *Manager) RoomMembers(roomName string) ([]string, *errs.CustomError) {
	room := m.room(roomName)
	if room == nil {
		return nil, errs.NewError(errs.ErrRoomNotFound, roomName)
	}
	return room.Members(), nil
}

// History returns the retained messages of roomName, oldest first.
func (m *Manager) History(roomName string) ([]Message, *errs.CustomError) {
	room := m.room(roomName)
	if room == nil {
		return nil, errs.NewError(errs.ErrRoomNotFound, roomName)
	}
	return room.History(), nil
}

func (m *Manager) room(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.rooms[name]
}

// joinLocked performs get-or-create on roomName and moves reg into it. Caller holds m.mu for writing.
func (m *Manager) joinLocked(name string, reg *registration, roomName string) {
	if reg.room != "" {
		m.leaveLocked(name, reg)
	}

	room, ok := m.rooms[roomName]
	if !ok {
		room = NewRoom(roomName)
		m.rooms[roomName] = room
		m.logger.Info().Str("room", roomName).Msg("Room created.")
	}

	room.admit(reg.member, NewMessage(KindJoin, roomName, name, "", m.now()))
	reg.room = roomName
}

// leaveLocked removes reg from its room and drops the room if it became empty. Caller holds m.mu for writing.
func (m *Manager) leaveLocked(name string, reg *registration) {
	roomName := reg.room
	reg.room = ""

	room, ok := m.rooms[roomName]
	if !ok {
		return
	}

	empty := room.release(name, NewMessage(KindLeave, roomName, name, "", m.now()))
	if empty && roomName != m.defaultRoom {
		delete(m.rooms, roomName)
		m.logger.Info().Str("room", roomName).Msg("Empty room removed.")
	}
}

// systemLocked publishes a System message to roomName if it exists. Caller holds m.mu.
func (m *Manager) systemLocked(roomName, text string) {
	if room, ok := m.rooms[roomName]; ok {
		room.publish(NewMessage(KindSystem, roomName, SystemAuthor, text, m.now()))
	}
}

// ServeConn runs one session on conn until it closes. It returns immediately, after
// telling the client why, when the server is full or shutting down.
func (m *Manager) ServeConn(conn Conn) {
	if m.pool != nil && !m.pool.TryAcquire(1) {
		m.logger.Warn().Str("remote_addr", logx.AnonymizeAddr(conn.RemoteAddr())).Msg("Session limit reached, rejecting connection.")
		reject(conn, errs.NewError(errs.ErrServerFull))
		return
	}
	if m.pool != nil {
		defer m.pool.Release(1)
	}

	m.liveMu.Lock()
	if m.closing {
		m.liveMu.Unlock()
		reject(conn, errs.NewError(errs.ErrServerShuttingDown))
		return
	}
	s := newSession(m, conn)
	m.live[s] = struct{}{}
	m.wg.Add(1)
	m.liveMu.Unlock()

	defer func() {
		m.liveMu.Lock()
		delete(m.live, s)
		m.liveMu.Unlock()
		m.wg.Done()
	}()

	s.run()
}

// reject writes a single error line and closes conn.
func reject(conn Conn, cerr *errs.CustomError) {
	_ = conn.WriteLine(cerr.Message)
	_ = conn.Close()
}

// Shutdown stops accepting sessions, notifies and gracefully closes every live session, and waits
// for them to finish. When ctx expires first, remaining connections are force-closed and ctx.Err() is returned.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.liveMu.Lock()
	m.closing = true
	live := make([]*Session, 0, len(m.live))
	for s := range m.live {
		live = append(live, s)
	}
	m.liveMu.Unlock()

	m.logger.Info().Int("sessions", len(live)).Msg("Shutting down Manager...")

	notice := NewMessage(KindSystem, "", SystemAuthor, errs.NewError(errs.ErrServerShuttingDown).Message, m.now()).Render()
	for _, s := range live {
		s.Deliver(notice)
		go s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Msg("Manager shutdown complete.")
		return nil
	case <-ctx.Done():
		for _, s := range live {
			s.forceClose()
		}
		m.logger.Warn().Msg("Shutdown grace period expired, connections force-closed.")
		return ctx.Err()
	}
}
