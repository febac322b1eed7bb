// Package util provides common utilities for the AGI bridge implementation,
// currently the shared error wrapper types.
package util

import (
	"fmt"
)

// SessionError wraps an error with session context. Use this when an error
// occurs during session operations.
type SessionError struct {
	SessionID string // The session identity where the error occurred
	Operation string // The operation being performed (e.g., "write", "transport")
	Err       error  // The underlying error
}

// NewSessionError creates a new SessionError with context.
func NewSessionError(sessionID, operation string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Operation: operation,
		Err:       err,
	}
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// ConnectionError wraps an error with connection context. Use this when an
// error occurs at the listener or accept-loop level.
type ConnectionError struct {
	RemoteAddr string // Remote address of the connection
	Operation  string // The operation being performed
	Err        error  // The underlying error
}

// NewConnectionError creates a new ConnectionError with context.
func NewConnectionError(remoteAddr, operation string, err error) *ConnectionError {
	return &ConnectionError{
		RemoteAddr: remoteAddr,
		Operation:  operation,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.RemoteAddr == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.RemoteAddr, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
