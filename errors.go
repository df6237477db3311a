package versoruntime

import (
	"errors"
	"fmt"
)

// Errors returned by dispatch and window operations.
var (
	// ErrFailedToSendMessage means the event loop receiver was already torn
	// down when the message was sent. Engine delegate failures are mapped to
	// this error as well since the runtime does not interpret their cause.
	ErrFailedToSendMessage = errors.New("failed to send message to the event loop")

	// ErrFailedToReceiveMessage means the event loop exited before replying
	// to a blocking dispatch call.
	ErrFailedToReceiveMessage = errors.New("failed to receive reply from the event loop")

	// ErrAlreadyInitialized means New was called while a previous Runtime in
	// this process is still alive.
	ErrAlreadyInitialized = errors.New("runtime already initialized in this process")

	// ErrNotOwningGoroutine means Run was called from a goroutine other than
	// the one that created the Runtime.
	ErrNotOwningGoroutine = errors.New("runtime must run on the goroutine that created it")

	// ErrFailedToGetCursorPosition means the platform could not report the
	// global cursor position.
	ErrFailedToGetCursorPosition = errors.New("failed to get cursor position")
)

// CreateWindowError reports a window creation request the runtime cannot
// satisfy, such as a pending window without a webview payload.
type CreateWindowError struct {
	Reason string
}

func (e *CreateWindowError) Error() string {
	return fmt.Sprintf("failed to create window: %s", e.Reason)
}
