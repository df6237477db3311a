package versoruntime

import (
	"fmt"

	"github.com/agiangrant/versoruntime/internal/engine"
)

// Geometry, icons, and themes cross the engine boundary unchanged, so the
// engine's wire types are re-exported here.
type (
	PhysicalPosition = engine.Position
	PhysicalSize     = engine.Size
	Icon             = engine.Icon
	WindowLevel      = engine.WindowLevel
	Theme            = engine.Theme
	ResourceRequest  = engine.ResourceRequest
	ResourceResponse = engine.ResourceResponse
)

const (
	ThemeLight = engine.ThemeLight
	ThemeDark  = engine.ThemeDark

	WindowLevelNormal         = engine.WindowLevelNormal
	WindowLevelAlwaysOnTop    = engine.WindowLevelAlwaysOnTop
	WindowLevelAlwaysOnBottom = engine.WindowLevelAlwaysOnBottom
)

// ProtocolHandler answers requests for one custom protocol. The request URI
// arrives rewritten to {protocol}:// form regardless of the platform's
// addressing convention. Returning nil lets the engine handle the request.
type ProtocolHandler = engine.ResourceHandler

// NavigationHandler decides whether a navigation may proceed.
type NavigationHandler = engine.NavigationHandler

// WebviewController is the engine-controller handle the runtime drives. It
// is shared by the registry and every dispatcher issued for the window, and
// implementations must be safe for concurrent use. *engine.Controller is the
// production implementation.
type WebviewController interface {
	Navigate(url string) error
	ExecuteScript(script string) error
	CurrentURL() (string, error)
	Title() (string, error)
	SetTitle(title string) error
	Focus() error
	SetWindowLevel(level WindowLevel) error
	SetIcon(icon Icon) error
	InnerPosition() (PhysicalPosition, error)
	OuterPosition() (PhysicalPosition, error)
	InnerSize() (PhysicalSize, error)
	OuterSize() (PhysicalSize, error)
	SetInnerSize(size PhysicalSize) error
	SetPosition(pos PhysicalPosition) error
	SetVisible(visible bool) error
	SetMaximized(maximized bool) error
	SetMinimized(minimized bool) error
	SetFullscreen(fullscreen bool) error
	SetTheme(theme Theme) error
	StartDragging() error

	OnResourceRequested(handler ProtocolHandler) error
	OnNavigationStarting(handler NavigationHandler) error
	OnCloseRequested(handler func()) error

	InFlight() int
	Exit() error
	Kill() error
}

var _ WebviewController = (*engine.Controller)(nil)

// DetachedWindow bundles the handles CreateWindow returns: one dispatcher
// for the window surface and one for the webview it hosts.
type DetachedWindow struct {
	ID      WindowID
	Label   string
	Window  *WindowDispatcher
	Webview *WebviewDispatcher
}

// dispatchErr maps an engine delegate failure onto the generic dispatch
// error while keeping the cause in the message.
func dispatchErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrFailedToSendMessage, err)
}

// WindowDispatcher exposes window operations. Safe to call from any
// goroutine.
type WindowDispatcher struct {
	ctx   *dispatchContext
	id    WindowID
	state *windowState
}

// Label returns the window's label.
func (w *WindowDispatcher) Label() string {
	return w.state.label
}

// OnWindowEvent subscribes fn to this window's events. Currently only
// CloseRequested events are delivered to subscribers; Destroyed goes to the
// Run handler alone.
func (w *WindowDispatcher) OnWindowEvent(fn func(WindowEventKind)) ListenerID {
	id := ListenerID(w.ctx.listenerIDs.next())
	w.state.addListener(id, fn)
	return id
}

// Close starts the vetoable close protocol for this window.
func (w *WindowDispatcher) Close() error {
	return w.ctx.sendMessage(closeWindowMessage{id: w.id})
}

// Destroy tears the window down without offering a veto.
func (w *WindowDispatcher) Destroy() error {
	return w.ctx.sendMessage(destroyWindowMessage{id: w.id})
}

// SetTitle changes the window title.
func (w *WindowDispatcher) SetTitle(title string) error {
	return dispatchErr(w.state.webview.SetTitle(title))
}

// Title returns the window title.
func (w *WindowDispatcher) Title() (string, error) {
	title, err := w.state.webview.Title()
	return title, dispatchErr(err)
}

// Focus brings the window to the foreground and gives it input focus.
func (w *WindowDispatcher) Focus() error {
	return dispatchErr(w.state.webview.Focus())
}

// SetAlwaysOnTop pins the window above its peers.
func (w *WindowDispatcher) SetAlwaysOnTop(alwaysOnTop bool) error {
	level := WindowLevelNormal
	if alwaysOnTop {
		level = WindowLevelAlwaysOnTop
	}
	return dispatchErr(w.state.webview.SetWindowLevel(level))
}

// SetAlwaysOnBottom pins the window below its peers.
func (w *WindowDispatcher) SetAlwaysOnBottom(alwaysOnBottom bool) error {
	level := WindowLevelNormal
	if alwaysOnBottom {
		level = WindowLevelAlwaysOnBottom
	}
	return dispatchErr(w.state.webview.SetWindowLevel(level))
}

// SetIcon replaces the window icon.
func (w *WindowDispatcher) SetIcon(icon Icon) error {
	return dispatchErr(w.state.webview.SetIcon(icon))
}

// InnerPosition returns the position of the window's content area.
func (w *WindowDispatcher) InnerPosition() (PhysicalPosition, error) {
	pos, err := w.state.webview.InnerPosition()
	return pos, dispatchErr(err)
}

// OuterPosition returns the position of the window including decorations.
func (w *WindowDispatcher) OuterPosition() (PhysicalPosition, error) {
	pos, err := w.state.webview.OuterPosition()
	return pos, dispatchErr(err)
}

// InnerSize returns the size of the window's content area.
func (w *WindowDispatcher) InnerSize() (PhysicalSize, error) {
	size, err := w.state.webview.InnerSize()
	return size, dispatchErr(err)
}

// OuterSize returns the size of the window including decorations.
func (w *WindowDispatcher) OuterSize() (PhysicalSize, error) {
	size, err := w.state.webview.OuterSize()
	return size, dispatchErr(err)
}

// SetSize resizes the window's content area.
func (w *WindowDispatcher) SetSize(size PhysicalSize) error {
	return dispatchErr(w.state.webview.SetInnerSize(size))
}

// SetPosition moves the window.
func (w *WindowDispatcher) SetPosition(pos PhysicalPosition) error {
	return dispatchErr(w.state.webview.SetPosition(pos))
}

// Show makes the window visible.
func (w *WindowDispatcher) Show() error {
	return dispatchErr(w.state.webview.SetVisible(true))
}

// Hide hides the window.
func (w *WindowDispatcher) Hide() error {
	return dispatchErr(w.state.webview.SetVisible(false))
}

// Maximize maximizes the window.
func (w *WindowDispatcher) Maximize() error {
	return dispatchErr(w.state.webview.SetMaximized(true))
}

// Unmaximize restores a maximized window.
func (w *WindowDispatcher) Unmaximize() error {
	return dispatchErr(w.state.webview.SetMaximized(false))
}

// Minimize minimizes the window.
func (w *WindowDispatcher) Minimize() error {
	return dispatchErr(w.state.webview.SetMinimized(true))
}

// Unminimize restores a minimized window.
func (w *WindowDispatcher) Unminimize() error {
	return dispatchErr(w.state.webview.SetMinimized(false))
}

// SetFullscreen switches the window in or out of fullscreen.
func (w *WindowDispatcher) SetFullscreen(fullscreen bool) error {
	return dispatchErr(w.state.webview.SetFullscreen(fullscreen))
}

// SetTheme overrides the webview theme. An empty theme follows the system.
func (w *WindowDispatcher) SetTheme(theme Theme) error {
	return dispatchErr(w.state.webview.SetTheme(toEngineTheme(theme)))
}

// Theme returns the window theme. The engine does not report one, so this
// always returns ThemeLight.
func (w *WindowDispatcher) Theme() (Theme, error) {
	return ThemeLight, nil
}

// ScaleFactor returns the window's scale factor. The engine addresses
// physical pixels directly, so this is always 1.
func (w *WindowDispatcher) ScaleFactor() (float64, error) {
	return 1.0, nil
}

// StartDragging begins an interactive window move driven by the pointer.
func (w *WindowDispatcher) StartDragging() error {
	return dispatchErr(w.state.webview.StartDragging())
}

// SetResizable is accepted but has no effect; engine windows are always
// resizable.
func (w *WindowDispatcher) SetResizable(resizable bool) error {
	return nil
}

// SetMinSize is accepted but has no effect; the engine does not constrain
// window sizes.
func (w *WindowDispatcher) SetMinSize(size PhysicalSize) error {
	return nil
}

// SetMaxSize is accepted but has no effect; the engine does not constrain
// window sizes.
func (w *WindowDispatcher) SetMaxSize(size PhysicalSize) error {
	return nil
}

// SetSkipTaskbar is accepted but has no effect.
func (w *WindowDispatcher) SetSkipTaskbar(skip bool) error {
	return nil
}

// WebviewDispatcher exposes webview operations. Safe to call from any
// goroutine.
type WebviewDispatcher struct {
	ctx   *dispatchContext
	id    WebviewID
	state *windowState
}

// Navigate loads a URL into the webview.
func (w *WebviewDispatcher) Navigate(url string) error {
	return dispatchErr(w.state.webview.Navigate(url))
}

// URL returns the URL the webview is showing.
func (w *WebviewDispatcher) URL() (string, error) {
	url, err := w.state.webview.CurrentURL()
	return url, dispatchErr(err)
}

// Eval evaluates JavaScript in the webview.
func (w *WebviewDispatcher) Eval(script string) error {
	return dispatchErr(w.state.webview.ExecuteScript(script))
}

// Reload loads the current URL again.
func (w *WebviewDispatcher) Reload() error {
	url, err := w.state.webview.CurrentURL()
	if err != nil {
		return dispatchErr(err)
	}
	return dispatchErr(w.state.webview.Navigate(url))
}

// Size returns the webview size. The webview fills its window, so this is
// the window's inner size.
func (w *WebviewDispatcher) Size() (PhysicalSize, error) {
	size, err := w.state.webview.InnerSize()
	return size, dispatchErr(err)
}

// Position returns the webview position relative to its window, which is
// always the origin; the webview fills the window.
func (w *WebviewDispatcher) Position() (PhysicalPosition, error) {
	return PhysicalPosition{}, nil
}

// SetZoom is accepted but has no effect.
func (w *WebviewDispatcher) SetZoom(scale float64) error {
	return nil
}

// OpenDevtools is accepted but has no effect; devtools are served on the
// configured devtools port instead of a built-in inspector.
func (w *WebviewDispatcher) OpenDevtools() {}

// IsDevtoolsOpen always reports false; there is no built-in inspector.
func (w *WebviewDispatcher) IsDevtoolsOpen() (bool, error) {
	return false, nil
}

// createWindow allocates ids, launches the engine instance, wires the
// interceptors, and registers the window. Safe to call from any goroutine.
func createWindow(d *dispatchContext, pending PendingWindow) (*DetachedWindow, error) {
	if pending.Webview == nil {
		return nil, &CreateWindowError{Reason: "pending window carries no webview payload"}
	}

	id := WindowID(d.windowIDs.next())
	webviewID := WebviewID(d.webviewIDs.next())

	label := pending.Options.Label
	if label == "" {
		label = fmt.Sprintf("window-%d", id)
	}

	scripts := make([]string, 0, len(pending.Webview.InitScripts)+1)
	scripts = append(scripts, InvokeSystemScript)
	scripts = append(scripts, pending.Webview.InitScripts...)

	webview, err := d.newWebview(pending.settings(scripts))
	if err != nil {
		return nil, &CreateWindowError{Reason: err.Error()}
	}

	st := newWindowState(id, label, webview)

	if err := webview.OnCloseRequested(func() {
		if err := d.sendMessage(closeWindowMessage{id: id}); err != nil {
			d.logger.Error().Err(err).Uint32("window", uint32(id)).Msg("failed to forward close request")
		}
	}); err != nil {
		d.logger.Error().Err(err).Str("label", label).Msg("close requests will not be forwarded for this window")
	}

	if pending.Webview.OnNavigation != nil {
		if err := webview.OnNavigationStarting(pending.Webview.OnNavigation); err != nil {
			d.logger.Error().Err(err).Str("label", label).Msg("navigation handler will not get called for this window")
		}
	}

	if len(pending.Webview.CustomProtocols) > 0 {
		protocols := make(map[string]ProtocolHandler, len(pending.Webview.CustomProtocols))
		for name, handler := range pending.Webview.CustomProtocols {
			protocols[name] = handler
		}
		strategy := schemeStrategyFor(pending.Webview.UseHTTPSScheme)
		if err := webview.OnResourceRequested(makeResourceInterceptor(d, strategy, protocols)); err != nil {
			d.logger.Error().Err(err).Str("label", label).Msg("custom protocols will not be served for this window")
		}
	}

	d.insertWindow(st)
	d.logger.Debug().Uint32("window", uint32(id)).Str("label", label).Msg("window created")

	return &DetachedWindow{
		ID:      id,
		Label:   label,
		Window:  &WindowDispatcher{ctx: d, id: id, state: st},
		Webview: &WebviewDispatcher{ctx: d, id: webviewID, state: st},
	}, nil
}

// makeResourceInterceptor bridges intercepted engine requests to custom
// protocol handlers: it reconciles the platform addressing convention,
// synthesizes a missing Origin header, moves a smuggled invoke body into
// place, and redispatches the matching handler onto the event loop
// goroutine.
func makeResourceInterceptor(d *dispatchContext, strategy schemeStrategy, protocols map[string]ProtocolHandler) ProtocolHandler {
	return func(req *ResourceRequest) *ResourceResponse {
		for name, handler := range protocols {
			if !strategy.Matches(req.URI, name) {
				continue
			}

			if _, ok := req.Header("Origin"); !ok {
				req.SetHeader("Origin", strategy.Origin(name))
			}

			if name == ipcProtocol {
				if encoded, ok := req.RemoveHeader(InvokeBodyHeader); ok {
					body, err := decodeInvokeBody(encoded)
					if err != nil {
						d.logger.Error().Err(err).Msg("failed to decode invoke body")
						req.Body = nil
					} else {
						req.Body = body
					}
				}
			}

			req.URI = strategy.Rewrite(req.URI, name)

			// Handler contracts assume event loop execution context.
			resp, err := runBlocking(d, func(*EventLoopContext) *ResourceResponse {
				return handler(req)
			})
			if err != nil {
				d.logger.Error().Err(err).Str("protocol", name).Msg("failed to dispatch protocol handler")
				return nil
			}
			return resp
		}
		return nil
	}
}
