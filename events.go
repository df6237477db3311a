package versoruntime

// RunEvent is a lifecycle event delivered to the handler passed to Run.
// Events arrive on the event loop goroutine, in order.
type RunEvent interface {
	isRunEvent()
}

// ReadyEvent is delivered exactly once, before any other event.
type ReadyEvent struct{}

// ResumedEvent is delivered each time the loop wakes up with work to do.
type ResumedEvent struct{}

// MainEventsClearedEvent is delivered after each processed batch of
// envelopes, mirroring the cadence of a native event loop.
type MainEventsClearedEvent struct{}

// UserEvent wraps a payload sent through an EventLoopProxy.
type UserEvent struct {
	Payload any
}

// WindowEvent pairs a window with something that happened to it.
type WindowEvent struct {
	ID    WindowID
	Label string
	Event WindowEventKind
}

// ExitRequestedEvent asks the handler whether the process should exit. It is
// delivered when the last window leaves the registry, or when RequestExit is
// called. Call PreventExit before returning to keep the loop alive.
type ExitRequestedEvent struct {
	// Code is the exit code passed to RequestExit, or nil when the request
	// came from the last window closing.
	Code *int

	signal chan bool
}

// PreventExit vetoes the exit. Only the first veto per event has any effect.
func (e ExitRequestedEvent) PreventExit() {
	select {
	case e.signal <- true:
	default:
	}
}

// ExitEvent is the final event. Run returns right after delivering it.
type ExitEvent struct {
	Code int
}

func (ReadyEvent) isRunEvent()             {}
func (ResumedEvent) isRunEvent()           {}
func (MainEventsClearedEvent) isRunEvent() {}
func (UserEvent) isRunEvent()              {}
func (WindowEvent) isRunEvent()            {}
func (ExitRequestedEvent) isRunEvent()     {}
func (ExitEvent) isRunEvent()              {}

// WindowEventKind is an event scoped to a single window.
type WindowEventKind interface {
	isWindowEvent()
}

// CloseRequestedEvent reports a close that is about to happen. Call
// PreventClose before returning to keep the window alive.
type CloseRequestedEvent struct {
	signal chan bool
}

// PreventClose vetoes the close. Only the first veto per event has any effect.
func (e CloseRequestedEvent) PreventClose() {
	select {
	case e.signal <- true:
	default:
	}
}

// DestroyedEvent reports that the window was removed from the registry. It
// cannot be vetoed.
type DestroyedEvent struct{}

func (CloseRequestedEvent) isWindowEvent() {}
func (DestroyedEvent) isWindowEvent()      {}
