package versoruntime

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agiangrant/versoruntime/internal/engine"
	"github.com/agiangrant/versoruntime/internal/x11"
)

// goroutineID parses the calling goroutine's id out of runtime.Stack. It is
// used only for owning-goroutine and re-entrancy detection.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack trace starts with "goroutine NNN ["
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// windowState tracks one live window. It is owned jointly by the registry
// and by every dispatcher handle issued for the window.
type windowState struct {
	id      WindowID
	label   string
	webview WebviewController

	listenersMu sync.Mutex
	listeners   map[ListenerID]func(WindowEventKind)
}

func newWindowState(id WindowID, label string, webview WebviewController) *windowState {
	return &windowState{
		id:        id,
		label:     label,
		webview:   webview,
		listeners: make(map[ListenerID]func(WindowEventKind)),
	}
}

func (w *windowState) addListener(id ListenerID, fn func(WindowEventKind)) {
	w.listenersMu.Lock()
	w.listeners[id] = fn
	w.listenersMu.Unlock()
}

// snapshotListeners copies the current listener set so callers can invoke
// listeners with the lock released. A listener that registers further
// listeners from inside its callback would otherwise deadlock.
func (w *windowState) snapshotListeners() []func(WindowEventKind) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	out := make([]func(WindowEventKind), 0, len(w.listeners))
	for _, fn := range w.listeners {
		out = append(out, fn)
	}
	return out
}

// clearListeners drops every listener. Listener closures frequently capture
// dispatcher handles, so clearing them on destruction breaks the reference
// cycle between window state and host callbacks.
func (w *windowState) clearListeners() {
	w.listenersMu.Lock()
	w.listeners = make(map[ListenerID]func(WindowEventKind))
	w.listenersMu.Unlock()
}

// dispatchContext is the shared state behind a Runtime and every handle,
// dispatcher, and proxy it issues. Exactly one goroutine, fixed at New,
// consumes envelopes and owns window state; every other goroutine talks to
// it through sendMessage.
type dispatchContext struct {
	logger zerolog.Logger
	config Config

	owningGoroutine uint64

	messages chan message
	done     chan struct{}
	doneOnce sync.Once

	windowsMu sync.Mutex
	windows   map[WindowID]*windowState

	windowIDs   idGenerator
	webviewIDs  idGenerator
	listenerIDs idGenerator

	x11Once sync.Once
	x11Conn *x11.Conn

	// newWebview builds the engine controller for a window. Replaceable in
	// tests.
	newWebview func(engine.Settings) (WebviewController, error)
}

func newDispatchContext(config Config, logger zerolog.Logger) *dispatchContext {
	return &dispatchContext{
		logger:          logger,
		config:          config,
		owningGoroutine: goroutineID(),
		messages:        make(chan message, messageQueueDepth),
		done:            make(chan struct{}),
		windows:         make(map[WindowID]*windowState),
	}
}

// sendMessage marshals an envelope onto the event loop goroutine. Safe to
// call from any goroutine. Task envelopes sent from the loop goroutine
// itself run inline before sendMessage returns; without that, a dispatcher
// call made from inside a callback already running on the loop would
// deadlock against a full channel.
func (d *dispatchContext) sendMessage(m message) error {
	if goroutineID() == d.owningGoroutine {
		switch msg := m.(type) {
		case taskMessage:
			msg.fn()
			return nil
		case contextTaskMessage:
			msg.fn(&EventLoopContext{ctx: d})
			return nil
		}
	}

	select {
	case <-d.done:
		return ErrFailedToSendMessage
	default:
	}
	select {
	case <-d.done:
		return ErrFailedToSendMessage
	case d.messages <- m:
		return nil
	}
}

// runOnMainThread schedules fn on the event loop goroutine, fire-and-forget.
func (d *dispatchContext) runOnMainThread(fn func()) error {
	return d.sendMessage(taskMessage{fn: fn})
}

// runOnMainThreadWithContext is runOnMainThread for closures that need the
// live event loop context.
func (d *dispatchContext) runOnMainThreadWithContext(fn func(*EventLoopContext)) error {
	return d.sendMessage(contextTaskMessage{fn: fn})
}

// runBlocking runs fn on the event loop goroutine and hands its result back
// to the calling goroutine, which blocks until the closure replies or the
// loop exits.
func runBlocking[T any](d *dispatchContext, fn func(*EventLoopContext) T) (T, error) {
	var zero T
	reply := make(chan T, 1)

	err := d.runOnMainThreadWithContext(func(c *EventLoopContext) {
		reply <- fn(c)
	})
	if err != nil {
		return zero, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-d.done:
		// The loop may have replied and exited before we woke up.
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrFailedToReceiveMessage
		}
	}
}

// shutdown severs the envelope channel. Subsequent sends fail with
// ErrFailedToSendMessage and pending blocking calls fail with
// ErrFailedToReceiveMessage.
func (d *dispatchContext) shutdown() {
	d.doneOnce.Do(func() {
		close(d.done)
	})
}

func (d *dispatchContext) insertWindow(st *windowState) {
	d.windowsMu.Lock()
	d.windows[st.id] = st
	d.windowsMu.Unlock()
}

func (d *dispatchContext) lookupWindow(id WindowID) (*windowState, bool) {
	d.windowsMu.Lock()
	defer d.windowsMu.Unlock()
	st, ok := d.windows[id]
	return st, ok
}

// removeWindow evicts a window and reports how many windows remain.
func (d *dispatchContext) removeWindow(id WindowID) (*windowState, bool, int) {
	d.windowsMu.Lock()
	defer d.windowsMu.Unlock()
	st, ok := d.windows[id]
	if ok {
		delete(d.windows, id)
	}
	return st, ok, len(d.windows)
}

func (d *dispatchContext) windowCount() int {
	d.windowsMu.Lock()
	defer d.windowsMu.Unlock()
	return len(d.windows)
}

// drainWindows empties the registry, returning the evicted states.
func (d *dispatchContext) drainWindows() []*windowState {
	d.windowsMu.Lock()
	defer d.windowsMu.Unlock()
	out := make([]*windowState, 0, len(d.windows))
	for _, st := range d.windows {
		out = append(out, st)
	}
	d.windows = make(map[WindowID]*windowState)
	return out
}

// EventLoopContext gives closures dispatched onto the event loop goroutine
// access to loop-owned facilities such as monitor queries. It is only valid
// for the duration of the closure and must not be retained.
type EventLoopContext struct {
	ctx *dispatchContext
}

// monitorConn lazily opens the X connection behind monitor queries. Only
// called from the event loop goroutine.
func (d *dispatchContext) monitorConn() *x11.Conn {
	d.x11Once.Do(func() {
		if !SupportsMonitorQueries() {
			return
		}
		conn, err := x11.Connect()
		if err != nil {
			d.logger.Debug().Err(err).Msg("monitor queries unavailable")
			return
		}
		d.x11Conn = conn
	})
	return d.x11Conn
}
