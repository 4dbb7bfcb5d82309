/*
Package errs provides custom error types and application-level error code constants.

These error codes identify protocol, room, naming and lifecycle failures both inside the
server and in the single error line a chat client receives.
*/
package errs

// 1xxx: Protocol and Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the connection attempt rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnknownCommand indicates that a line starting with the command prefix named no known command.
	ErrUnknownCommand = 1101

	// ErrCommandUsage indicates that a command was missing a required argument.
	// The message is formatted with the command's usage string.
	ErrCommandUsage = 1102

	// ErrMessageContentTooLong indicates that a chat message exceeded the maximum length limit.
	ErrMessageContentTooLong = 1103

	// ErrMessageRateExceeded indicates that a session sent lines faster than its limiter allows.
	ErrMessageRateExceeded = 1104
)

// 2xxx: Room Errors
const (
	// ErrRoomNameInvalid indicates an empty, oversized or whitespace-containing room name.
	ErrRoomNameInvalid = 2101

	// ErrRoomNotFound indicates that the addressed room does not exist.
	ErrRoomNotFound = 2103

	// ErrNotInRoom indicates that the session is not currently a member of any room.
	ErrNotInRoom = 2105

	// ErrAlreadyInRoom indicates a join request for the room the session is already in.
	ErrAlreadyInRoom = 2106
)

// 3xxx: Naming and Identity Errors
const (
	// ErrNameEmpty indicates that an empty display name was submitted.
	ErrNameEmpty = 3101

	// ErrNameInvalid indicates that a display name contained whitespace, a command prefix or was too long.
	ErrNameInvalid = 3102

	// ErrNameTaken indicates that the display name is already claimed by a connected session.
	ErrNameTaken = 3103

	// ErrUserNotFound indicates that the addressed display name is not connected.
	ErrUserNotFound = 3104

	// ErrUnauthorized indicates a missing or invalid operator token on the admin API.
	ErrUnauthorized = 3201
)

// 4xxx: Capacity and Lifecycle Errors
const (
	// ErrServerFull indicates that the server is at its session limit.
	ErrServerFull = 4001

	// ErrServerShuttingDown indicates that the server no longer accepts sessions.
	ErrServerShuttingDown = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
