package versoruntime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agiangrant/versoruntime/internal/engine"
)

// stubWebview satisfies WebviewController without spawning an engine
// process.
type stubWebview struct {
	mu           sync.Mutex
	settings     engine.Settings
	exited       bool
	killed       bool
	inFlight     int
	navigations  []string
	closeHandler func()
	resources    ProtocolHandler
	navigation   NavigationHandler
}

func newStubWebview(settings engine.Settings) *stubWebview {
	return &stubWebview{settings: settings}
}

func (s *stubWebview) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)
	return nil
}

func (s *stubWebview) ExecuteScript(string) error { return nil }

func (s *stubWebview) CurrentURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.navigations); n > 0 {
		return s.navigations[n-1], nil
	}
	return s.settings.URL, nil
}

func (s *stubWebview) Title() (string, error) { return s.settings.Title, nil }

func (s *stubWebview) SetTitle(string) error { return nil }

func (s *stubWebview) Focus() error { return nil }

func (s *stubWebview) SetWindowLevel(WindowLevel) error { return nil }

func (s *stubWebview) SetIcon(Icon) error { return nil }

func (s *stubWebview) InnerPosition() (PhysicalPosition, error) {
	return PhysicalPosition{}, nil
}

func (s *stubWebview) OuterPosition() (PhysicalPosition, error) {
	return PhysicalPosition{}, nil
}

func (s *stubWebview) InnerSize() (PhysicalSize, error) { return PhysicalSize{}, nil }

func (s *stubWebview) OuterSize() (PhysicalSize, error) { return PhysicalSize{}, nil }

func (s *stubWebview) SetInnerSize(PhysicalSize) error { return nil }

func (s *stubWebview) SetPosition(PhysicalPosition) error { return nil }

func (s *stubWebview) SetVisible(bool) error { return nil }

func (s *stubWebview) SetMaximized(bool) error { return nil }

func (s *stubWebview) SetMinimized(bool) error { return nil }

func (s *stubWebview) SetFullscreen(bool) error { return nil }

func (s *stubWebview) SetTheme(Theme) error { return nil }

func (s *stubWebview) StartDragging() error { return nil }

func (s *stubWebview) OnResourceRequested(handler ProtocolHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = handler
	return nil
}

func (s *stubWebview) OnNavigationStarting(handler NavigationHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigation = handler
	return nil
}

func (s *stubWebview) OnCloseRequested(handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeHandler = handler
	return nil
}

func (s *stubWebview) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *stubWebview) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exited = true
	return nil
}

func (s *stubWebview) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed = true
	return nil
}

// requestClose fires the close handler the runtime registered, standing in
// for the user clicking the native close button.
func (s *stubWebview) requestClose() {
	s.mu.Lock()
	handler := s.closeHandler
	s.mu.Unlock()
	if handler != nil {
		handler()
	}
}

func (s *stubWebview) hasExited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

var _ WebviewController = (*stubWebview)(nil)

// eventRecorder collects every event the loop hands the run handler.
type eventRecorder struct {
	mu     sync.Mutex
	events []RunEvent
}

func (r *eventRecorder) record(ev RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []RunEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) destroyedCount(id WindowID) int {
	count := 0
	for _, ev := range r.snapshot() {
		if we, ok := ev.(WindowEvent); ok && we.ID == id {
			if _, ok := we.Event.(DestroyedEvent); ok {
				count++
			}
		}
	}
	return count
}

func (r *eventRecorder) exitRequests() []ExitRequestedEvent {
	var out []ExitRequestedEvent
	for _, ev := range r.snapshot() {
		if req, ok := ev.(ExitRequestedEvent); ok {
			out = append(out, req)
		}
	}
	return out
}

// loopFixture runs a Runtime's event loop on a dedicated goroutine, with
// stub webviews in place of engine processes.
type loopFixture struct {
	t        *testing.T
	runtime  *Runtime
	handle   *RuntimeHandle
	rec      *eventRecorder
	done     chan error
	stopOnce sync.Once

	mu      sync.Mutex
	onEvent func(RunEvent)
	stubs   []*stubWebview
}

func newLoopFixture(t *testing.T) *loopFixture {
	t.Helper()

	f := &loopFixture{
		t:    t,
		rec:  &eventRecorder{},
		done: make(chan error, 1),
	}

	ready := make(chan error, 1)
	go func() {
		nop := zerolog.Nop()
		rt, err := New(Config{Logger: &nop})
		if err != nil {
			ready <- err
			return
		}
		rt.ctx.newWebview = func(settings engine.Settings) (WebviewController, error) {
			stub := newStubWebview(settings)
			f.mu.Lock()
			f.stubs = append(f.stubs, stub)
			f.mu.Unlock()
			return stub, nil
		}
		f.runtime = rt
		f.handle = rt.Handle()
		ready <- nil

		f.done <- rt.Run(func(ev RunEvent) {
			f.rec.record(ev)
			f.mu.Lock()
			hook := f.onEvent
			f.mu.Unlock()
			if hook != nil {
				hook(ev)
			}
		})
	}()

	if err := <-ready; err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	t.Cleanup(f.stop)
	return f
}

func (f *loopFixture) setHook(hook func(RunEvent)) {
	f.mu.Lock()
	f.onEvent = hook
	f.mu.Unlock()
}

func (f *loopFixture) stub(i int) *stubWebview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stubs[i]
}

func (f *loopFixture) createWindow(label string) *DetachedWindow {
	f.t.Helper()
	win, err := f.handle.CreateWindow(NewPendingWindow(label, "about:blank"))
	if err != nil {
		f.t.Fatalf("CreateWindow(%q) returned error: %v", label, err)
	}
	return win
}

// sync fences the caller behind everything already queued on the loop.
func (f *loopFixture) sync() {
	f.t.Helper()
	if _, err := runBlocking(f.runtime.ctx, func(*EventLoopContext) struct{} {
		return struct{}{}
	}); err != nil {
		f.t.Fatalf("sync dispatch failed: %v", err)
	}
}

// wait blocks until Run returns.
func (f *loopFixture) wait() {
	f.t.Helper()
	select {
	case err := <-f.done:
		f.done <- err
		if err != nil {
			f.t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		f.t.Fatal("event loop did not exit")
	}
}

func (f *loopFixture) running() bool {
	select {
	case <-f.runtime.ctx.done:
		return false
	default:
		return true
	}
}

func (f *loopFixture) stop() {
	f.stopOnce.Do(func() {
		f.setHook(nil)
		// Run may already have exited; the send error is fine then.
		_ = f.handle.RequestExit(0)
		f.wait()
	})
}

func eventKinds(events []RunEvent) []string {
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		switch e := ev.(type) {
		case ReadyEvent:
			kinds = append(kinds, "ready")
		case ResumedEvent:
			kinds = append(kinds, "resumed")
		case MainEventsClearedEvent:
			kinds = append(kinds, "cleared")
		case UserEvent:
			kinds = append(kinds, "user")
		case ExitRequestedEvent:
			kinds = append(kinds, "exit-requested")
		case ExitEvent:
			kinds = append(kinds, "exit")
		case WindowEvent:
			switch e.Event.(type) {
			case CloseRequestedEvent:
				kinds = append(kinds, "close-requested")
			case DestroyedEvent:
				kinds = append(kinds, "destroyed")
			}
		}
	}
	return kinds
}

func TestNewRejectsSecondRuntime(t *testing.T) {
	nop := zerolog.Nop()

	first, err := New(Config{Logger: &nop})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := New(Config{Logger: &nop}); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second New = %v, want ErrAlreadyInitialized", err)
	}

	first.release()

	second, err := New(Config{Logger: &nop})
	if err != nil {
		t.Fatalf("New after release returned error: %v", err)
	}
	second.release()
}

func TestRunRejectsForeignGoroutine(t *testing.T) {
	nop := zerolog.Nop()
	rt, err := New(Config{Logger: &nop})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer rt.release()

	result := make(chan error, 1)
	go func() {
		result <- rt.Run(nil)
	}()

	if err := <-result; !errors.Is(err, ErrNotOwningGoroutine) {
		t.Errorf("Run from another goroutine = %v, want ErrNotOwningGoroutine", err)
	}
}

func TestLastWindowCloseExitsLoop(t *testing.T) {
	f := newLoopFixture(t)

	win := f.createWindow("main")
	if err := win.Window.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	f.wait()

	want := []string{
		"ready",
		"resumed", "close-requested", "destroyed", "exit-requested", "cleared",
		"exit",
	}
	got := eventKinds(f.rec.snapshot())
	if len(got) != len(want) {
		t.Fatalf("event sequence = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %q, want %q (full sequence %v)", i, got[i], want[i], got)
		}
	}

	requests := f.rec.exitRequests()
	if len(requests) != 1 {
		t.Fatalf("exit requested %d times, want 1", len(requests))
	}
	if requests[0].Code != nil {
		t.Errorf("exit request code = %v, want nil for a last-window exit", *requests[0].Code)
	}
	if !f.stub(0).hasExited() {
		t.Error("webview was not told to exit")
	}
}

func TestExitVetoKeepsLoopAlive(t *testing.T) {
	f := newLoopFixture(t)

	vetoed := false
	f.setHook(func(ev RunEvent) {
		if req, ok := ev.(ExitRequestedEvent); ok && req.Code == nil && !vetoed {
			vetoed = true
			req.PreventExit()
		}
	})

	first := f.createWindow("main")
	if err := first.Window.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	f.sync()

	if !vetoed {
		t.Fatal("exit was never offered to the handler")
	}
	if !f.running() {
		t.Fatal("loop exited despite the veto")
	}

	// A vetoed exit leaves the loop usable; new windows may be created.
	second := f.createWindow("reborn")
	f.sync()
	if _, ok := f.runtime.ctx.lookupWindow(second.ID); !ok {
		t.Error("window created after a vetoed exit is not registered")
	}
	if got := f.runtime.ctx.windowCount(); got != 1 {
		t.Errorf("windowCount = %d, want 1", got)
	}
}

func TestRequestExitCarriesCode(t *testing.T) {
	f := newLoopFixture(t)

	if err := f.handle.RequestExit(3); err != nil {
		t.Fatalf("RequestExit returned error: %v", err)
	}
	f.wait()

	requests := f.rec.exitRequests()
	if len(requests) != 1 {
		t.Fatalf("exit requested %d times, want 1", len(requests))
	}
	if requests[0].Code == nil || *requests[0].Code != 3 {
		t.Errorf("exit request code = %v, want 3", requests[0].Code)
	}

	events := f.rec.snapshot()
	last, ok := events[len(events)-1].(ExitEvent)
	if !ok {
		t.Fatalf("last event = %T, want ExitEvent", events[len(events)-1])
	}
	if last.Code != 3 {
		t.Errorf("exit code = %d, want 3", last.Code)
	}
}

func TestUserEventsReachHandler(t *testing.T) {
	f := newLoopFixture(t)

	proxy := f.handle.CreateProxy()
	if err := proxy.SendEvent("ping"); err != nil {
		t.Fatalf("SendEvent returned error: %v", err)
	}
	f.sync()

	var payloads []any
	for _, ev := range f.rec.snapshot() {
		if ue, ok := ev.(UserEvent); ok {
			payloads = append(payloads, ue.Payload)
		}
	}
	if len(payloads) != 1 || payloads[0] != "ping" {
		t.Errorf("user event payloads = %v, want [ping]", payloads)
	}

	kinds := eventKinds(f.rec.snapshot())
	sawResumed := false
	for _, k := range kinds {
		if k == "resumed" {
			sawResumed = true
		}
		if k == "user" && !sawResumed {
			t.Error("user event delivered before the loop resumed")
		}
	}
}

func TestRunOnMainThreadViaHandle(t *testing.T) {
	f := newLoopFixture(t)

	ran := make(chan uint64, 1)
	if err := f.handle.RunOnMainThread(func() {
		ran <- goroutineID()
	}); err != nil {
		t.Fatalf("RunOnMainThread returned error: %v", err)
	}

	select {
	case id := <-ran:
		if id != f.runtime.ctx.owningGoroutine {
			t.Errorf("closure ran on goroutine %d, want the loop goroutine %d", id, f.runtime.ctx.owningGoroutine)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("closure never ran")
	}
}
