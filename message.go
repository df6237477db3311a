package versoruntime

// message is a command envelope marshaled onto the event loop goroutine.
// Dispatchers running on arbitrary goroutines produce envelopes; exactly one
// goroutine, the one driving Runtime.Run, consumes them.
type message interface {
	isMessage()
}

// taskMessage runs a closure on the event loop goroutine.
type taskMessage struct {
	fn func()
}

// contextTaskMessage runs a closure that needs the live event loop context,
// for example to query monitors.
type contextTaskMessage struct {
	fn func(*EventLoopContext)
}

// closeWindowMessage starts the vetoable close protocol for one window.
type closeWindowMessage struct {
	id WindowID
}

// destroyWindowMessage tears a window down without offering a veto.
type destroyWindowMessage struct {
	id WindowID
}

// requestExitMessage surfaces an exit request carrying an explicit code.
type requestExitMessage struct {
	code int
}

// userEventMessage carries an arbitrary payload from an EventLoopProxy to
// the host handler.
type userEventMessage struct {
	payload any
}

func (taskMessage) isMessage()          {}
func (contextTaskMessage) isMessage()   {}
func (closeWindowMessage) isMessage()   {}
func (destroyWindowMessage) isMessage() {}
func (requestExitMessage) isMessage()   {}
func (userEventMessage) isMessage()     {}

// messageQueueDepth bounds the envelope channel. Producers block once the
// loop falls this far behind; they do not drop envelopes.
const messageQueueDepth = 256
