package realtime

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrClosed is returned when attempting to use a client that has been
	// closed. The WebSocket connection has been terminated and the client
	// is no longer usable; create a new client to resume operations.
	ErrClosed = errors.New("realtime: connection is closed")

	// ErrNotConnected is returned by operations that require an open,
	// acknowledged session when the transport is not established.
	ErrNotConnected = errors.New("realtime: not connected")

	// ErrInvalidConfig is returned when required configuration fields are missing.
	ErrInvalidConfig = errors.New("realtime: invalid configuration")

	// ErrConnectionFailed is returned when the WebSocket connection cannot
	// be established or the service rejects the handshake.
	ErrConnectionFailed = errors.New("realtime: connection failed")

	// ErrSendTimeout is returned when sending a message times out.
	ErrSendTimeout = errors.New("realtime: send timeout")
)

// ConfigError represents a configuration validation error.
// It reports which configuration field is invalid.
type ConfigError struct {
	Field   string // The configuration field that is invalid
	Value   string // The invalid value (if safe to log)
	Message string // Detailed error message
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("realtime: invalid config field %q (value: %q): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("realtime: invalid config field %q: %s", e.Field, e.Message)
}

// Is implements error matching for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConnectionError represents a WebSocket connection error.
// It wraps the underlying network error with the dial target and operation.
type ConnectionError struct {
	URL       string // The WebSocket URL that failed to connect
	Operation string // The operation that failed (e.g., "dial", "handshake")
	Cause     error  // The underlying error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("realtime: %s failed for %q: %v", e.Operation, e.URL, e.Cause)
	}
	return fmt.Sprintf("realtime: %s failed for %q", e.Operation, e.URL)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for ConnectionError.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// SendError represents an error that occurred while sending an event to the API.
type SendError struct {
	EventType string // The type of event being sent
	Cause     error  // The underlying error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("realtime: failed to send %s event: %v", e.EventType, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error {
	return e.Cause
}

// IsTimeout returns true if the error was caused by a timeout.
func (e *SendError) IsTimeout() bool {
	return errors.Is(e.Cause, ErrSendTimeout)
}

// NewConfigError creates a new configuration error.
func NewConfigError(field, value, message string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message}
}

// NewConnectionError creates a new connection error.
func NewConnectionError(url, operation string, cause error) *ConnectionError {
	return &ConnectionError{URL: url, Operation: operation, Cause: cause}
}

// NewSendError creates a new send error.
func NewSendError(eventType string, cause error) *SendError {
	return &SendError{EventType: eventType, Cause: cause}
}

// ValidateConfig performs configuration validation before dialing.
func ValidateConfig(cfg Config) error {
	if cfg.Endpoint == "" {
		return NewConfigError("Endpoint", "", "cannot be empty")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return NewConfigError("Endpoint", cfg.Endpoint, "invalid URL format")
	}
	if cfg.Model == "" {
		return NewConfigError("Model", "", "cannot be empty")
	}
	if cfg.Credential == nil {
		return NewConfigError("Credential", "", "cannot be nil")
	}
	if cfg.DialTimeout < 0 {
		return NewConfigError("DialTimeout", cfg.DialTimeout.String(), "cannot be negative")
	}
	return nil
}
