/*
Package tcp runs the raw line-protocol listener.

The accept loop only accepts and hands off: every connection becomes a chat session on its own
goroutine, and connections rejected by the per-IP limiter are answered and closed off the loop.
*/
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/app/chat"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
)

const (
	// maxAcceptBackoff caps the delay between retries after a failing Accept.
	maxAcceptBackoff = time.Second

	// rejectWriteTimeout bounds the single line written to a rate-limited connection.
	rejectWriteTimeout = 2 * time.Second
)

// Server accepts TCP connections and hands them to the chat Manager.
type Server struct {
	addr    string
	manager *chat.Manager
	limiter *limiter.IPRateLimiter
	config  *configs.AppConfig

	listener net.Listener

	// done is closed when the accept loop has returned.
	done chan struct{}

	mu       sync.Mutex
	serving  bool
	shutdown bool

	logger zerolog.Logger
}

// NewServer creates a Server for addr. A nil limiter disables per-IP limiting.
func NewServer(addr string, manager *chat.Manager, ipLimiter *limiter.IPRateLimiter, cfg *configs.AppConfig) *Server {
	return &Server{
		addr:    addr,
		manager: manager,
		limiter: ipLimiter,
		config:  cfg,
		done:    make(chan struct{}),
		logger:  logx.Component("TCP"),
	}
}

// Listen binds the listening socket. A failure here is fatal for the process.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Chat listener bound.")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("tcp: Serve called before Listen")
	}

	s.mu.Lock()
	if s.shutdown || s.serving {
		s.mu.Unlock()
		return nil
	}
	s.serving = true
	s.mu.Unlock()

	defer close(s.done)

	var backoff time.Duration

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShutdown() {
				return nil
			}

			var netErr net.Error
			if (errors.As(err, &netErr) && netErr.Timeout()) || isTemporary(err) {
				if backoff == 0 {
					backoff = 5 * time.Millisecond
				} else {
					backoff = min(backoff*2, maxAcceptBackoff)
				}
				s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Accept error, retrying.")
				time.Sleep(backoff)
				continue
			}

			s.logger.Error().Err(err).Msg("Accept loop stopped.")
			return err
		}
		backoff = 0

		remote := conn.RemoteAddr().String()
		if s.limiter != nil && !s.limiter.Allow(remote) {
			s.logger.Warn().Str("remote_addr", logx.AnonymizeAddr(remote)).Msg("Connection rate limit exceeded.")
			go rejectConn(conn, errs.NewError(errs.ErrRateLimitExceeded))
			continue
		}

		s.logger.Debug().Str("remote_addr", logx.AnonymizeAddr(remote)).Msg("Connection accepted.")
		go s.manager.ServeConn(chat.NewLineConn(conn, s.config.MaxLineBytes, s.config.WriteTimeout))
	}
}

// Shutdown closes the listener and waits for the accept loop to return or ctx to expire.
// Sessions already handed off are stopped by the Manager, not here.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	serving := s.serving
	s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	if !serving {
		return nil
	}

	select {
	case <-s.done:
		s.logger.Info().Msg("Chat listener stopped.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// isTemporary reports whether err is an accept error worth retrying, such as EMFILE.
func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

func rejectConn(conn net.Conn, cerr *errs.CustomError) {
	_ = conn.SetWriteDeadline(time.Now().Add(rejectWriteTimeout))
	_, _ = conn.Write([]byte(cerr.Message + "\n"))
	_ = conn.Close()
}
