// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-chat.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the server.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")

	// ErrWouldBlock is a control signal: stop draining this socket for now.
	ErrWouldBlock = errors.New("operation would block")

	ErrPeerClosed     = errors.New("peer closed connection")
	ErrIO             = errors.New("i/o failure")
	ErrBufferOverflow = errors.New("message exceeds buffer ceiling")
	ErrQueueOverflow  = errors.New("outbound queue overflow")
	ErrExitRequested  = errors.New("client requested exit")
	ErrShutdown       = errors.New("server shutting down")

	ErrAcceptFailure     = errors.New("accept failure")
	ErrListenerExhausted = errors.New("listener out of descriptors or buffers")
	ErrRegistryFull      = errors.New("registry capacity exhausted")
	ErrAlreadyRegistered = errors.New("handle already registered")
	ErrNotRegistered     = errors.New("handle not registered")
)

// ErrorCode classifies per-connection and process-level failures.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeAccept
	ErrCodeRegistration
	ErrCodePeerClosed
	ErrCodeIO
	ErrCodeBufferOverflow
	ErrCodeQueueOverflow
	ErrCodeExit
	ErrCodeShutdown
	ErrCodeInternal
)

var codeNames = map[ErrorCode]string{
	ErrCodeOK:             "ok",
	ErrCodeAccept:         "accept_failure",
	ErrCodeRegistration:   "registration_failure",
	ErrCodePeerClosed:     "peer_closed",
	ErrCodeIO:             "io_error",
	ErrCodeBufferOverflow: "buffer_overflow",
	ErrCodeQueueOverflow:  "queue_overflow",
	ErrCodeExit:           "exit",
	ErrCodeShutdown:       "shutdown",
	ErrCodeInternal:       "internal",
}

// String returns the metric/log name of the code.
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code_%d", int(c))
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap creates a structured error around cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Classify maps an error onto the teardown taxonomy.
func Classify(err error) ErrorCode {
	var se *Error
	switch {
	case err == nil:
		return ErrCodeOK
	case errors.As(err, &se):
		return se.Code
	case errors.Is(err, ErrPeerClosed):
		return ErrCodePeerClosed
	case errors.Is(err, ErrBufferOverflow):
		return ErrCodeBufferOverflow
	case errors.Is(err, ErrQueueOverflow):
		return ErrCodeQueueOverflow
	case errors.Is(err, ErrExitRequested):
		return ErrCodeExit
	case errors.Is(err, ErrShutdown):
		return ErrCodeShutdown
	case errors.Is(err, ErrRegistryFull), errors.Is(err, ErrAlreadyRegistered):
		return ErrCodeRegistration
	case errors.Is(err, ErrAcceptFailure), errors.Is(err, ErrListenerExhausted):
		return ErrCodeAccept
	case errors.Is(err, ErrIO):
		return ErrCodeIO
	default:
		return ErrCodeInternal
	}
}
