/*
Package user contains the rules and data structures for chat participant identity.

It defines the display-name rules enforced during the authentication phase and the User
snapshot returned by the ops API.
*/
package user

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"roomchat/internal/pkg/errs"
)

const (
	// MaxNameLength is the maximum display name length in characters.
	MaxNameLength = 20

	// CommandPrefix starts every client command; display names may not begin with it.
	CommandPrefix = "/"
)

// User is a point-in-time view of one registered session.
type User struct {
	// Name is the unique display name claimed during authentication.
	Name string `json:"name"`

	// Room is the room the session is currently in, empty when in none.
	Room string `json:"room,omitempty"`

	// SessionID identifies the underlying connection.
	SessionID string `json:"sessionId"`

	// ConnectedAt is when the session finished authentication.
	ConnectedAt time.Time `json:"connectedAt"`
}

// ValidateName checks a requested display name, already trimmed by the caller.
// Names are a single word of at most MaxNameLength characters that does not start with CommandPrefix.
func ValidateName(name string) *errs.CustomError {
	if name == "" {
		return errs.NewError(errs.ErrNameEmpty)
	}

	if strings.IndexFunc(name, unicode.IsSpace) >= 0 ||
		utf8.RuneCountInString(name) > MaxNameLength ||
		strings.HasPrefix(name, CommandPrefix) ||
		!utf8.ValidString(name) {
		return errs.NewError(errs.ErrNameInvalid, MaxNameLength)
	}

	return nil
}
