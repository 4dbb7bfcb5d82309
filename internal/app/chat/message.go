/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file defines the Message value type and its single wire rendering rule.
*/
package chat

import (
	"fmt"
	"time"

	"roomchat/internal/pkg/randx"
)

// Kind defines the category of a chat message and selects its rendering.
type Kind string

const (
	// KindChat is public text sent by a member to its current room.
	KindChat Kind = "CHAT"

	// KindJoin announces that a member entered a room.
	KindJoin Kind = "JOIN"

	// KindLeave announces that a member left a room.
	KindLeave Kind = "LEAVE"

	// KindSystem is a server notice (connect, disconnect, operator announcements).
	KindSystem Kind = "SYSTEM"

	// KindPrivate is text addressed to exactly one session.
	KindPrivate Kind = "PRIVATE"
)

// SystemAuthor is the author of every server-generated message.
const SystemAuthor = "SYSTEM"

// timeLayout renders timestamps as HH:MM:SS.
const timeLayout = "15:04:05"

// Message is one unit of room or private traffic. It is passed by value and never mutated.
type Message struct {
	// ID uniquely identifies the message in history snapshots.
	ID string `json:"id"`

	// Kind selects the rendering rule.
	Kind Kind `json:"kind"`

	// Author is a display name, or SystemAuthor.
	Author string `json:"author"`

	// Body is the message text; empty for Join and Leave.
	Body string `json:"body,omitempty"`

	// Room is the room the message belongs to, empty for private messages.
	Room string `json:"room,omitempty"`

	// Timestamp is the creation instant.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a Message stamped with a fresh ID.
func NewMessage(kind Kind, room, author, body string, at time.Time) Message {
	return Message{
		ID:        randx.MessageID(),
		Kind:      kind,
		Author:    author,
		Body:      body,
		Room:      room,
		Timestamp: at,
	}
}

// Render returns the protocol line for the message, without the trailing newline.
func (m Message) Render() string {
	ts := m.Timestamp.Format(timeLayout)

	switch m.Kind {
	case KindJoin:
		return fmt.Sprintf("[%s] %s joined the room", ts, m.Author)
	case KindLeave:
		return fmt.Sprintf("[%s] %s left the room", ts, m.Author)
	case KindSystem:
		return fmt.Sprintf("[%s] %s: %s", ts, SystemAuthor, m.Body)
	case KindPrivate:
		return fmt.Sprintf("[%s] PRIVATE from %s: %s", ts, m.Author, m.Body)
	default:
		return fmt.Sprintf("[%s] %s: %s", ts, m.Author, m.Body)
	}
}
