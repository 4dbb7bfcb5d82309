/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct. The Message of each entry
is the exact line a chat client sees, and Status is used when the error leaves through HTTP.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Protocol and Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many connection attempts. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknownCommand:        {Code: ErrUnknownCommand, Message: "Unknown command. Type '/help' for available commands."},
	ErrCommandUsage:          {Code: ErrCommandUsage, Message: "Usage: %s"},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d bytes).", Status: http.StatusBadRequest},
	ErrMessageRateExceeded:   {Code: ErrMessageRateExceeded, Message: "You are sending messages too fast. Please slow down."},

	// 2xxx: Room Errors
	ErrRoomNameInvalid: {Code: ErrRoomNameInvalid, Message: "Room name must be a single word of at most %d characters.", Status: http.StatusBadRequest},
	ErrRoomNotFound:    {Code: ErrRoomNotFound, Message: "Room '%s' not found.", Status: http.StatusNotFound},
	ErrNotInRoom:       {Code: ErrNotInRoom, Message: "You are not in any room. Use '/join <room>' to join a room."},
	ErrAlreadyInRoom:   {Code: ErrAlreadyInRoom, Message: "You are already in room '%s'."},

	// 3xxx: Naming and Identity Errors
	ErrNameEmpty:    {Code: ErrNameEmpty, Message: "Username cannot be empty. Please try again:"},
	ErrNameInvalid:  {Code: ErrNameInvalid, Message: "Username must be single word and max %d characters. Please try again:"},
	ErrNameTaken:    {Code: ErrNameTaken, Message: "Username '%s' is already taken. Please choose another:", Status: http.StatusConflict},
	ErrUserNotFound: {Code: ErrUserNotFound, Message: "User '%s' not found or offline.", Status: http.StatusNotFound},
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Operator token required.", Status: http.StatusUnauthorized},

	// 4xxx: Capacity and Lifecycle Errors
	ErrServerFull:         {Code: ErrServerFull, Message: "Server is full. Please try again later.", Status: http.StatusServiceUnavailable},
	ErrServerShuttingDown: {Code: ErrServerShuttingDown, Message: "Server is shutting down.", Status: http.StatusServiceUnavailable},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
