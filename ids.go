package versoruntime

import "sync/atomic"

// WindowID identifies a window for the lifetime of the process.
type WindowID uint32

// WebviewID identifies the webview hosted by a window.
type WebviewID uint32

// ListenerID identifies a window event subscription.
type ListenerID uint32

// idGenerator hands out process-unique identifiers. The zero value is ready
// to use and never yields zero. Identifiers are 32 bits wide and wraparound
// is not handled, which caps a process at 2^32-1 allocations per kind; that
// ceiling is a documented limit, not a checked one.
type idGenerator struct {
	last atomic.Uint32
}

func (g *idGenerator) next() uint32 {
	return g.last.Add(1)
}
