/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file defines the Session struct, representing one accepted connection. It drives the
authentication handshake and the read loop, and owns the single writer goroutine that serializes
every line written to the connection.
*/
package chat

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomchat/internal/app/user"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/randx"
)

// State is a position in the session lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// MaxContentBytes is the maximum size of a chat or private message body.
	MaxContentBytes = 2000

	// defaultSendQueue is used when the configuration leaves SendQueueSize unset.
	defaultSendQueue = 256

	// minSendQueue holds a full backlog replay so joining a busy room never overflows the joiner.
	minSendQueue = configs.MinSendQueueSize
)

var banner = []string{
	"Welcome to the Chat Server!",
	"Pick a display name to start chatting.",
	"Enter your username:",
}

// Session struct represents one connection across its authentication and active lifetime.
type Session struct {
	// id tags the connection in logs from accept to close.
	id string

	conn    Conn
	manager *Manager

	// name is set by the read loop before Register and never changes once registered.
	name       string
	registered bool

	state atomic.Int32

	// send queues outbound lines for the writer goroutine. It is never closed; closing signals the writer instead.
	send       chan string
	closing    chan struct{}
	writerDone chan struct{}
	stopOnce   sync.Once
	cleanOnce  sync.Once
	dropOnce   sync.Once

	// limiter throttles lines read in the active state. Nil means unlimited.
	limiter *rate.Limiter

	startedAt time.Time

	// logger is shared with the writer and with broadcasters, so it is never reassigned.
	logger zerolog.Logger
}

// newSession creates a Session on conn and starts its writer.
func newSession(m *Manager, conn Conn) *Session {
	queue := m.config.SendQueueSize
	if queue <= 0 {
		queue = defaultSendQueue
	}
	if queue < minSendQueue {
		queue = minSendQueue
	}

	var limiter *rate.Limiter
	if m.config.MessageRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(m.config.MessageRate), max(m.config.MessageBurst, 1))
	}

	id := randx.SessionID()

	s := &Session{
		id:         id,
		conn:       conn,
		manager:    m,
		send:       make(chan string, queue),
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
		limiter:    limiter,
		startedAt:  time.Now(),
		logger: logx.Logger().With().
			Str("component", "Session").
			Str("session_id", id).
			Str("remote_addr", logx.AnonymizeAddr(conn.RemoteAddr())).
			Logger(),
	}

	go s.writeLoop()

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Name returns the registered display name, or "" before authentication.
func (s *Session) Name() string {
	return s.name
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Deliver queues line for the writer without blocking. A session whose queue is full
// is too slow to keep up and its connection is closed.
func (s *Session) Deliver(line string) {
	if s.State() == StateClosed {
		return
	}

	select {
	case s.send <- line:
	default:
		s.dropOnce.Do(func() {
			s.logger.Warn().Int("queue_len", len(s.send)).Msg("Send queue full, dropping slow session.")
			// Deliver runs under room and manager locks, and closing a transport may block.
			go s.forceClose()
		})
	}
}

// Close flushes queued lines and closes the connection, which ends the read loop.
func (s *Session) Close() {
	s.stopWriter()
	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// forceClose closes the connection without flushing.
func (s *Session) forceClose() {
	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// run drives the session to completion on the calling goroutine.
func (s *Session) run() {
	defer s.cleanup()

	s.logger.Info().Msg("Session started.")

	s.state.Store(int32(StateAuthenticating))
	for _, line := range banner {
		s.Deliver(line)
	}

	if !s.authenticate() {
		return
	}

	s.state.Store(int32(StateActive))
	s.readLoop()
}

// authenticate reads candidate names until one registers. It returns false when the connection ends first.
func (s *Session) authenticate() bool {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.logReadError(err)
			return false
		}

		name := strings.TrimSpace(line)
		if cerr := user.ValidateName(name); cerr != nil {
			s.Deliver(cerr.Message)
			continue
		}

		// Other goroutines only see s after Register publishes it.
		s.name = name
		if cerr := s.manager.Register(name, s); cerr != nil {
			s.name = ""
			s.Deliver(cerr.Message)
			continue
		}
		s.registered = true

		s.logger.Info().Str("name", name).Msg("Session authenticated.")

		s.Deliver("Welcome, " + name + "! You are now connected.")
		s.Deliver("Type '/help' for available commands.")
		return true
	}
}

// readLoop handles lines in the active state until quit or a read failure.
func (s *Session) readLoop() {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.logReadError(err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if s.limiter != nil && !isQuit(line) && !s.limiter.Allow() {
			s.replyError(errs.NewError(errs.ErrMessageRateExceeded))
			continue
		}

		if quit := s.handleLine(line); quit {
			return
		}
	}
}

// handleLine dispatches a command or broadcasts chat text. It returns true when the session should end.
func (s *Session) handleLine(line string) bool {
	if strings.HasPrefix(line, user.CommandPrefix) {
		return s.handleCommand(line)
	}

	if len(line) > MaxContentBytes {
		s.replyError(errs.NewError(errs.ErrMessageContentTooLong, MaxContentBytes))
		return false
	}

	room := s.manager.CurrentRoom(s.name)
	if room == "" {
		s.replyError(errs.NewError(errs.ErrNotInRoom))
		return false
	}

	if cerr := s.manager.BroadcastChat(room, s.name, line); cerr != nil {
		s.replyError(cerr)
	}
	return false
}

// replyError sends the client-facing text of cerr to this session only.
func (s *Session) replyError(cerr *errs.CustomError) {
	s.Deliver(cerr.Message)
}

func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Debug().Msg("Connection closed by peer or server.")
	case errors.Is(err, ErrLineTooLong):
		s.logger.Warn().Msg("Client line exceeded the transport limit, closing session.")
	default:
		s.logger.Info().Err(err).Msg("Connection read error.")
	}
}

// writeLoop is the only goroutine that writes to the connection.
func (s *Session) writeLoop() {
	defer close(s.writerDone)

	for {
		select {
		case line := <-s.send:
			if !s.writeLine(line) {
				return
			}

		case <-s.closing:
			for {
				select {
				case line := <-s.send:
					if !s.writeLine(line) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// writeLine writes one line, closing the connection on failure so the read loop ends too.
func (s *Session) writeLine(line string) bool {
	if err := s.conn.WriteLine(line); err != nil {
		if s.State() != StateClosed {
			s.logger.Info().Err(err).Msg("Error writing line, closing connection.")
		}
		s.forceClose()
		return false
	}
	return true
}

// stopWriter asks the writer to flush the queue and waits for it to exit.
func (s *Session) stopWriter() {
	s.stopOnce.Do(func() { close(s.closing) })
	<-s.writerDone
}

// cleanup runs once when the read loop exits, whatever ended it.
func (s *Session) cleanup() {
	s.cleanOnce.Do(func() {
		if s.registered {
			s.manager.Deregister(s.name)
		}

		s.stopWriter()
		s.state.Store(int32(StateClosed))
		s.forceClose()

		s.logger.Info().Str("name", s.name).Dur("lifetime", time.Since(s.startedAt)).Msg("Session closed.")
	})
}
