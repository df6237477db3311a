package versoruntime

import (
	_ "embed"

	"github.com/agiangrant/versoruntime/internal/engine"
)

// InvokeSystemScript bootstraps the invoke system inside every webview. It
// is injected ahead of user initialization scripts, so application scripts
// can rely on it being present.
//
//go:embed invoke-system-initialization-script.js
var InvokeSystemScript string

// WindowOptions are the builder-derived settings of a pending window. Fields
// the engine cannot express are accepted and ignored so host code written
// against a richer windowing toolkit keeps working; each inert field says so.
type WindowOptions struct {
	// Label names the window for event routing. Defaults to
	// "window-{id}" when empty.
	Label string

	Title string

	// Width and Height set the inner size in physical pixels. When either
	// is zero the engine picks its default size.
	Width  uint32
	Height uint32

	// X and Y position the window. Both must be set to take effect.
	X *int32
	Y *int32

	Decorations bool
	Transparent bool
	Fullscreen  bool
	Maximized   bool
	Visible     bool
	Focused     bool

	// Theme overrides the webview theme. Empty follows the system theme.
	Theme Theme

	Icon *Icon

	AlwaysOnTop    bool
	AlwaysOnBottom bool

	// Resizable is accepted but has no effect; engine windows are always
	// resizable.
	Resizable bool
	// MinWidth, MinHeight, MaxWidth and MaxHeight are accepted but have no
	// effect; the engine does not constrain window sizes.
	MinWidth  uint32
	MinHeight uint32
	MaxWidth  uint32
	MaxHeight uint32
	// SkipTaskbar is accepted but has no effect.
	SkipTaskbar bool
}

// DefaultWindowOptions returns the options an engine window gets when the
// host overrides nothing.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		Decorations: true,
		Transparent: false,
		Visible:     true,
		Focused:     true,
		Resizable:   true,
	}
}

// WebviewOptions is the webview payload of a pending window. A pending
// window without one cannot be created.
type WebviewOptions struct {
	// URL to load. Defaults to about:blank.
	URL string

	// InitScripts run in every document before its own scripts, after the
	// invoke system bootstrap.
	InitScripts []string

	// CustomProtocols maps protocol names to their handlers. Handlers run
	// on the event loop goroutine and see URIs in {protocol}:// form
	// regardless of the platform's addressing convention.
	CustomProtocols map[string]ProtocolHandler

	// OnNavigation, when set, gates every navigation. Returning false
	// cancels it.
	OnNavigation func(url string) bool

	// UseHTTPSScheme selects https for synthesized origins on platforms
	// that mangle custom protocol URIs into http form.
	UseHTTPSScheme bool
}

// PendingWindow pairs window options with their webview payload, ready for
// CreateWindow.
type PendingWindow struct {
	Options WindowOptions
	Webview *WebviewOptions
}

// NewPendingWindow returns a pending window with default options showing
// url.
func NewPendingWindow(label, url string) PendingWindow {
	opts := DefaultWindowOptions()
	opts.Label = label
	return PendingWindow{
		Options: opts,
		Webview: &WebviewOptions{URL: url},
	}
}

// toEngineTheme clamps a theme to the two values the engine accepts. Empty
// stays empty, which follows the system.
func toEngineTheme(t Theme) Theme {
	switch t {
	case ThemeDark:
		return ThemeDark
	case "":
		return ""
	default:
		return ThemeLight
	}
}

// settings maps the pending window onto engine settings. Fields without an
// engine equivalent are dropped here.
func (p *PendingWindow) settings(scripts []string) engine.Settings {
	opts := p.Options

	s := engine.Settings{
		URL:            p.Webview.URL,
		Title:          opts.Title,
		Decorated:      opts.Decorations,
		Transparent:    opts.Transparent,
		Visible:        opts.Visible,
		Focused:        opts.Focused,
		Fullscreen:     opts.Fullscreen,
		Maximized:      opts.Maximized,
		Theme:          toEngineTheme(opts.Theme),
		Icon:           opts.Icon,
		UserScripts:    scripts,
		UseHTTPSScheme: p.Webview.UseHTTPSScheme,
	}
	if s.URL == "" {
		s.URL = "about:blank"
	}
	if opts.Width > 0 && opts.Height > 0 {
		s.InnerSize = &engine.Size{Width: opts.Width, Height: opts.Height}
	}
	if opts.X != nil && opts.Y != nil {
		s.Position = &engine.Position{X: *opts.X, Y: *opts.Y}
	}
	switch {
	case opts.AlwaysOnTop:
		s.WindowLevel = engine.WindowLevelAlwaysOnTop
	case opts.AlwaysOnBottom:
		s.WindowLevel = engine.WindowLevelAlwaysOnBottom
	}
	return s
}
