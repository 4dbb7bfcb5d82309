/*
Package handler provides the HTTP handler function for the WebSocket gateway.

The gateway speaks the same line protocol as the TCP listener: each inbound text frame is split
into lines and each outbound line is sent as one text frame. Sessions run through the same
chat.Manager.ServeConn path, so no room logic lives here.
*/
package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

const (
	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// timeout for control frames written outside the session writer.
	controlWait = 5 * time.Second
)

// wsConn adapts a *websocket.Conn to chat.Conn.
type wsConn struct {
	conn         *websocket.Conn
	remoteAddr   string
	writeTimeout time.Duration

	// pending holds lines split from the last frame that ReadLine has not returned yet.
	pending []string

	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, remoteAddr string, maxLineBytes int, writeTimeout time.Duration) *wsConn {
	c := &wsConn{
		conn:         conn,
		remoteAddr:   remoteAddr,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}

	conn.SetReadLimit(int64(maxLineBytes))
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.keepAlive()

	return c
}

// keepAlive sends periodic pings until the connection is closed.
// WriteControl may run concurrently with the session writer.
func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadLine implements chat.Conn.
func (c *wsConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		text := strings.TrimSuffix(string(data), "\n")
		for _, line := range strings.Split(text, "\n") {
			c.pending = append(c.pending, strings.TrimSuffix(line, "\r"))
		}
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// WriteLine implements chat.Conn.
func (c *wsConn) WriteLine(line string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close implements chat.Conn. It sends a normal close frame before dropping the socket.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(controlWait),
		)
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr implements chat.Conn.
func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}

// HandleWebSocket creates an HTTP HandlerFunc that upgrades the request and runs a chat session on it.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.ConnLimiter != nil && !deps.ConnLimiter.Allow(r.RemoteAddr) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "remote_ip", logx.AnonymizeAddr(r.RemoteAddr))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		logx.Info("WebSocket connection established", "remote_ip", logx.AnonymizeAddr(r.RemoteAddr))

		deps.Manager.ServeConn(newWSConn(conn, r.RemoteAddr, deps.Config.MaxLineBytes, deps.Config.WriteTimeout))
	}
}
