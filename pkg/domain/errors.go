package domain

import "errors"

// ErrNotActive is returned when an operation requires an active session and none exists.
var ErrNotActive = errors.New("no coordination in progress")

// ErrAlreadyActive is returned by Start while a session is in progress.
var ErrAlreadyActive = errors.New("coordination already in progress")

// ErrAlreadyOptedIn is returned when a user opts in twice.
var ErrAlreadyOptedIn = errors.New("already opted in")

// ErrFull is returned when the opt-in capacity has been reached.
var ErrFull = errors.New("opt-in is full")

// ErrNotAuthorized is returned when someone other than the initiator calls a privileged operation.
var ErrNotAuthorized = errors.New("not authorized")

// ErrNoParticipants is returned by Finalize when nobody opted in.
var ErrNoParticipants = errors.New("no participants")

// ErrInvalidArgument is returned when a command argument is missing or malformed.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrGateway wraps any failure of the chat platform.
var ErrGateway = errors.New("gateway failure")

// ErrSessionNotFound is returned when a scope has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ErrChannelNotFound is returned by gateways when a channel does not exist.
var ErrChannelNotFound = errors.New("channel not found")

// ErrUnknownCommand is returned when a dispatcher receives a command nobody registered.
var ErrUnknownCommand = errors.New("unknown command")
