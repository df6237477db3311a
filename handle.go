package versoruntime

// RuntimeHandle is a cloneable handle to a running Runtime. Every method is
// safe to call from any goroutine.
type RuntimeHandle struct {
	ctx *dispatchContext
}

// CreateWindow creates a window with its webview and returns the detached
// handles for it.
func (h *RuntimeHandle) CreateWindow(pending PendingWindow) (*DetachedWindow, error) {
	return createWindow(h.ctx, pending)
}

// RunOnMainThread schedules fn onto the event loop goroutine and returns
// once it is enqueued; the closure is not awaited. When called from the
// event loop goroutine itself, fn runs inline before RunOnMainThread
// returns.
func (h *RuntimeHandle) RunOnMainThread(fn func()) error {
	return h.ctx.runOnMainThread(fn)
}

// RunOnMainThreadWithContext is RunOnMainThread for closures that need the
// live event loop context, for example to query monitors.
func (h *RuntimeHandle) RunOnMainThreadWithContext(fn func(*EventLoopContext)) error {
	return h.ctx.runOnMainThreadWithContext(fn)
}

// RequestExit asks the event loop to exit with the given code. The Run
// handler may veto via ExitRequestedEvent.PreventExit.
func (h *RuntimeHandle) RequestExit(code int) error {
	return h.ctx.sendMessage(requestExitMessage{code: code})
}

// CreateProxy returns a proxy for posting user events into the event loop.
func (h *RuntimeHandle) CreateProxy() EventLoopProxy {
	return EventLoopProxy{ctx: h.ctx}
}

// AvailableMonitors lists connected monitors.
func (h *RuntimeHandle) AvailableMonitors() ([]Monitor, error) {
	return runBlocking(h.ctx, func(c *EventLoopContext) []Monitor {
		return c.AvailableMonitors()
	})
}

// PrimaryMonitor returns the primary monitor, or nil when the platform does
// not report one.
func (h *RuntimeHandle) PrimaryMonitor() (*Monitor, error) {
	return runBlocking(h.ctx, func(c *EventLoopContext) *Monitor {
		if m, ok := c.PrimaryMonitor(); ok {
			return &m
		}
		return nil
	})
}

// MonitorFromPoint returns the monitor containing the point, or nil when no
// monitor does.
func (h *RuntimeHandle) MonitorFromPoint(x, y int32) (*Monitor, error) {
	return runBlocking(h.ctx, func(c *EventLoopContext) *Monitor {
		if m, ok := c.MonitorFromPoint(x, y); ok {
			return &m
		}
		return nil
	})
}

// CursorPosition returns the global cursor position in physical pixels.
func (h *RuntimeHandle) CursorPosition() (PhysicalPosition, error) {
	type reply struct {
		pos PhysicalPosition
		err error
	}
	r, err := runBlocking(h.ctx, func(c *EventLoopContext) reply {
		pos, err := c.CursorPosition()
		return reply{pos: pos, err: err}
	})
	if err != nil {
		return PhysicalPosition{}, err
	}
	return r.pos, r.err
}

// EventLoopProxy posts user events into the event loop. Proxies are plain
// values; copies address the same loop.
type EventLoopProxy struct {
	ctx *dispatchContext
}

// SendEvent delivers payload to the Run handler as a UserEvent. Safe to
// call from any goroutine.
func (p EventLoopProxy) SendEvent(payload any) error {
	return p.ctx.sendMessage(userEventMessage{payload: payload})
}
