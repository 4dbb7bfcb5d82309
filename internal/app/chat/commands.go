/*
Package chat contains the core logic for handling real-time chat rooms, user sessions, and message broadcasting.

This file parses and dispatches the slash commands of the line protocol.
*/
package chat

import (
	"fmt"
	"strings"
	"unicode"

	"roomchat/internal/pkg/errs"
)

const (
	usageJoin = "/join <room_name>"
	usagePM   = "/pm <username> <message>"
)

var helpLines = []string{
	"=== Available Commands ===",
	"/join <room>      - Join a chat room",
	"/leave            - Leave current room",
	"/pm <user> <msg>  - Send private message",
	"/users            - List connected users",
	"/rooms            - List available rooms",
	"/help             - Show this help message",
	"/quit             - Exit the chat",
	"========================",
}

// splitWord returns the first whitespace-delimited word of s and the trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// isQuit reports whether line is a /quit or /exit command.
func isQuit(line string) bool {
	keyword, _ := splitWord(line)
	switch strings.ToLower(keyword) {
	case "/quit", "/exit":
		return true
	}
	return false
}

// handleCommand executes one command line. It returns true when the session should end.
func (s *Session) handleCommand(line string) bool {
	keyword, args := splitWord(line)

	switch strings.ToLower(keyword) {
	case "/help":
		for _, l := range helpLines {
			s.Deliver(l)
		}

	case "/join":
		room, _ := splitWord(args)
		if room == "" {
			s.replyError(errs.NewError(errs.ErrCommandUsage, usageJoin))
			return false
		}
		if cerr := s.manager.Join(s.name, room); cerr != nil {
			s.replyError(cerr)
		}

	case "/leave":
		if cerr := s.manager.Leave(s.name); cerr != nil {
			s.replyError(cerr)
			return false
		}
		s.Deliver("You left the room.")

	case "/pm", "/private":
		target, text := splitWord(args)
		if target == "" || text == "" {
			s.replyError(errs.NewError(errs.ErrCommandUsage, usagePM))
			return false
		}
		if len(text) > MaxContentBytes {
			s.replyError(errs.NewError(errs.ErrMessageContentTooLong, MaxContentBytes))
			return false
		}
		if cerr := s.manager.SendPrivate(s.name, target, text); cerr != nil {
			s.replyError(cerr)
		}

	case "/users":
		s.Deliver("Connected users: " + strings.Join(s.manager.ListUsers(), " "))

	case "/rooms":
		rooms := s.manager.ListRooms()
		parts := make([]string, 0, len(rooms))
		for _, r := range rooms {
			parts = append(parts, fmt.Sprintf("%s(%d)", r.Name, r.Members))
		}
		s.Deliver("Available rooms: " + strings.Join(parts, " "))

	case "/quit", "/exit":
		s.Deliver("Goodbye!")
		return true

	default:
		s.replyError(errs.NewError(errs.ErrUnknownCommand))
	}

	return false
}
