/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file defines Conn, the line transport a Session runs over, and its TCP implementation.
*/
package chat

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

// ErrLineTooLong is returned by ReadLine when a client line exceeds the transport limit.
var ErrLineTooLong = bufio.ErrTooLong

// Conn is a bidirectional newline-delimited text stream.
// ReadLine is only called from the session's read loop and WriteLine only from its writer,
// while Close may be called from any goroutine.
type Conn interface {
	// ReadLine blocks for the next line, without its terminator.
	ReadLine() (string, error)

	// WriteLine writes one line, appending the terminator.
	WriteLine(line string) error

	// Close releases the connection and unblocks any pending ReadLine.
	Close() error

	// RemoteAddr returns the peer address for logging and limiting.
	RemoteAddr() string
}

// LineConn adapts a net.Conn to Conn.
type LineConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration
}

// NewLineConn wraps c. Lines longer than maxLineBytes fail the read with ErrLineTooLong;
// a zero writeTimeout disables write deadlines.
func NewLineConn(c net.Conn, maxLineBytes int, writeTimeout time.Duration) *LineConn {
	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, min(4096, maxLineBytes)), maxLineBytes)

	return &LineConn{
		conn:         c,
		scanner:      scanner,
		writeTimeout: writeTimeout,
	}
}

// ReadLine implements Conn. A CRLF terminator is accepted.
func (c *LineConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
	}

	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// WriteLine implements Conn.
func (c *LineConn) WriteLine(line string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}

	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

// Close implements Conn.
func (c *LineConn) Close() error {
	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// RemoteAddr implements Conn.
func (c *LineConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
