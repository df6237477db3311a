// Package versoruntime drives windows rendered by an out-of-process verso
// engine. It owns a single-threaded event loop, marshals window and webview
// commands from arbitrary goroutines onto that loop, and runs the vetoable
// close and exit protocol for the host application.
package versoruntime

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agiangrant/versoruntime/internal/engine"
)

// One Runtime may be live per process; the engine path, resources directory
// and devtools port are process-wide.
var (
	liveMu sync.Mutex
	live   bool
)

// Runtime owns the event loop. Create it with New and drive it with Run on
// the same goroutine; that goroutine becomes the owning goroutine for every
// window created through the runtime.
type Runtime struct {
	ctx    *dispatchContext
	logger zerolog.Logger
}

// New creates the process Runtime. It fails with ErrAlreadyInitialized if a
// Runtime created earlier is still live.
func New(config Config) (*Runtime, error) {
	liveMu.Lock()
	if live {
		liveMu.Unlock()
		return nil, ErrAlreadyInitialized
	}
	live = true
	liveMu.Unlock()

	logger := config.logger()
	r := &Runtime{
		ctx:    newDispatchContext(config, logger),
		logger: logger,
	}
	r.ctx.newWebview = r.launchWebview
	return r, nil
}

// release frees the process slot so a later New can succeed.
func (r *Runtime) release() {
	liveMu.Lock()
	live = false
	liveMu.Unlock()
}

// launchWebview spawns a versoview instance for one window and creates its
// webview.
func (r *Runtime) launchWebview(settings engine.Settings) (WebviewController, error) {
	ctrl, err := engine.Launch(engine.LaunchOptions{
		Path:         r.ctx.config.EnginePath,
		ResourcesDir: r.ctx.config.ResourcesDir,
		DevtoolsPort: r.ctx.config.DevtoolsPort,
		Logger:       r.logger.With().Str("component", "versoview").Logger(),
	})
	if err != nil {
		return nil, err
	}
	if err := ctrl.Init(settings); err != nil {
		ctrl.Kill()
		return nil, err
	}
	return ctrl, nil
}

// Handle returns a handle for driving the runtime from other goroutines.
func (r *Runtime) Handle() *RuntimeHandle {
	return &RuntimeHandle{ctx: r.ctx}
}

// CreateWindow creates a window before or during Run.
func (r *Runtime) CreateWindow(pending PendingWindow) (*DetachedWindow, error) {
	return createWindow(r.ctx, pending)
}

// Run drives the event loop until an exit request goes unvetoed, delivering
// lifecycle events to handler on the loop goroutine. It must be called on
// the goroutine that created the Runtime; Run pins that goroutine to its OS
// thread for the duration.
func (r *Runtime) Run(handler func(RunEvent)) error {
	if goroutineID() != r.ctx.owningGoroutine {
		return ErrNotOwningGoroutine
	}
	if handler == nil {
		handler = func(RunEvent) {}
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r.logger.Debug().Msg("event loop started")
	handler(ReadyEvent{})

	exitCode := 0
	for {
		first := <-r.ctx.messages
		handler(ResumedEvent{})

		exiting, code := r.handleMessage(handler, first)
	drain:
		for !exiting {
			select {
			case m := <-r.ctx.messages:
				exiting, code = r.handleMessage(handler, m)
			default:
				break drain
			}
		}

		handler(MainEventsClearedEvent{})

		if exiting {
			exitCode = code
			break
		}
	}

	r.teardown()
	r.ctx.shutdown()

	r.logger.Debug().Int("code", exitCode).Msg("event loop exited")
	handler(ExitEvent{Code: exitCode})
	r.release()
	return nil
}

// handleMessage processes one envelope. It reports whether the loop should
// exit, and with which code.
func (r *Runtime) handleMessage(handler func(RunEvent), m message) (bool, int) {
	switch msg := m.(type) {
	case taskMessage:
		msg.fn()
	case contextTaskMessage:
		msg.fn(&EventLoopContext{ctx: r.ctx})
	case userEventMessage:
		handler(UserEvent{Payload: msg.payload})
	case closeWindowMessage:
		return r.handleCloseWindowRequest(handler, msg.id, false)
	case destroyWindowMessage:
		return r.handleCloseWindowRequest(handler, msg.id, true)
	case requestExitMessage:
		code := msg.code
		return r.solicitExit(handler, &code)
	}
	return false, 0
}

// handleCloseWindowRequest runs the close protocol for one window. force
// skips the veto round. An unknown id is a no-op. The return values report
// whether the loop should exit because the last window left the registry
// with nobody vetoing.
func (r *Runtime) handleCloseWindowRequest(handler func(RunEvent), id WindowID, force bool) (bool, int) {
	st, ok := r.ctx.lookupWindow(id)
	if !ok {
		return false, 0
	}

	if !force {
		// Subscribers share one veto channel; the host handler gets an
		// independent one. Either may veto.
		listenerSignal := make(chan bool, 1)
		handlerSignal := make(chan bool, 1)

		listenerEvent := CloseRequestedEvent{signal: listenerSignal}
		for _, fn := range st.snapshotListeners() {
			fn(listenerEvent)
		}
		handler(WindowEvent{ID: id, Label: st.label, Event: CloseRequestedEvent{signal: handlerSignal}})

		if vetoSignaled(listenerSignal) || vetoSignaled(handlerSignal) {
			return false, 0
		}
	}

	_, ok, remaining := r.ctx.removeWindow(id)
	if !ok {
		return false, 0
	}

	handler(WindowEvent{ID: id, Label: st.label, Event: DestroyedEvent{}})

	// Subscriber closures tend to capture dispatcher handles; dropping them
	// here breaks the cycle back into the window state.
	st.clearListeners()

	if n := st.webview.InFlight(); n > 0 {
		r.logger.Warn().Int("in_flight", n).Uint32("window", uint32(id)).
			Msg("webview controller still in use on window close, shutting down this versoview instance regardless")
	}
	if err := st.webview.Exit(); err != nil {
		r.logger.Error().Err(err).Uint32("window", uint32(id)).Msg("failed to exit the webview")
	}

	if remaining == 0 {
		return r.solicitExit(handler, nil)
	}
	return false, 0
}

// solicitExit offers the handler an exit veto. A nil code marks an exit
// request that came from the last window closing.
func (r *Runtime) solicitExit(handler func(RunEvent), code *int) (bool, int) {
	signal := make(chan bool, 1)
	handler(ExitRequestedEvent{Code: code, signal: signal})

	if vetoSignaled(signal) {
		return false, 0
	}
	if code != nil {
		return true, *code
	}
	return true, 0
}

// vetoSignaled drains a one-shot veto channel.
func vetoSignaled(signal chan bool) bool {
	select {
	case v := <-signal:
		return v
	default:
		return false
	}
}

// teardown shuts down engine instances still alive when the loop exits.
func (r *Runtime) teardown() {
	for _, st := range r.ctx.drainWindows() {
		st.clearListeners()
		if err := st.webview.Exit(); err != nil {
			r.logger.Error().Err(err).Str("label", st.label).Msg("failed to exit the webview")
		}
	}
	if r.ctx.x11Conn != nil {
		r.ctx.x11Conn.Close()
	}
}
