package engine

import (
	"context"
	"encoding/json"
	"fmt"
)

// Webview method names spoken over the control transport.
const (
	methodInit            = "init"
	methodNavigate        = "navigate"
	methodExecuteScript   = "execute_script"
	methodGetCurrentURL   = "get_current_url"
	methodGetTitle        = "get_title"
	methodSetTitle        = "set_title"
	methodFocus           = "focus"
	methodSetWindowLevel  = "set_window_level"
	methodSetIcon         = "set_icon"
	methodGetInnerPos     = "get_inner_position"
	methodGetOuterPos     = "get_outer_position"
	methodGetInnerSize    = "get_inner_size"
	methodGetOuterSize    = "get_outer_size"
	methodSetInnerSize    = "set_inner_size"
	methodSetPosition     = "set_position"
	methodSetVisible      = "set_visible"
	methodSetMaximized    = "set_maximized"
	methodSetMinimized    = "set_minimized"
	methodSetFullscreen   = "set_fullscreen"
	methodSetTheme        = "set_theme"
	methodStartDragging   = "start_dragging"
	methodListenResources = "listen_web_resource_requests"
	methodListenNav       = "listen_navigation_starting"
	methodListenClose     = "listen_close_requested"

	eventResourceRequested  = "web_resource_requested"
	eventNavigationStarting = "navigation_starting"
	eventCloseRequested     = "close_requested"
)

func (c *Controller) call(method string, params, result any) error {
	return c.transport.Call(context.Background(), method, params, result)
}

// Init creates the webview inside the instance with the given settings.
func (c *Controller) Init(settings Settings) error {
	if err := c.call(methodInit, settings, nil); err != nil {
		return fmt.Errorf("failed to initialize webview: %w", err)
	}
	return nil
}

// Navigate loads a URL into the webview.
func (c *Controller) Navigate(url string) error {
	return c.call(methodNavigate, struct {
		URL string `json:"url"`
	}{url}, nil)
}

// ExecuteScript evaluates JavaScript in the webview.
func (c *Controller) ExecuteScript(script string) error {
	return c.call(methodExecuteScript, struct {
		Script string `json:"script"`
	}{script}, nil)
}

// CurrentURL returns the URL the webview is showing.
func (c *Controller) CurrentURL() (string, error) {
	var result struct {
		URL string `json:"url"`
	}
	if err := c.call(methodGetCurrentURL, nil, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// Title returns the window title.
func (c *Controller) Title() (string, error) {
	var result struct {
		Title string `json:"title"`
	}
	if err := c.call(methodGetTitle, nil, &result); err != nil {
		return "", err
	}
	return result.Title, nil
}

// SetTitle changes the window title.
func (c *Controller) SetTitle(title string) error {
	return c.call(methodSetTitle, struct {
		Title string `json:"title"`
	}{title}, nil)
}

// Focus brings the window to the foreground and gives it input focus.
func (c *Controller) Focus() error {
	return c.call(methodFocus, nil, nil)
}

// SetWindowLevel pins the window above or below its peers.
func (c *Controller) SetWindowLevel(level WindowLevel) error {
	return c.call(methodSetWindowLevel, struct {
		Level WindowLevel `json:"level"`
	}{level}, nil)
}

// SetIcon replaces the window icon.
func (c *Controller) SetIcon(icon Icon) error {
	return c.call(methodSetIcon, icon, nil)
}

// InnerPosition returns the position of the window's content area.
func (c *Controller) InnerPosition() (Position, error) {
	var pos Position
	err := c.call(methodGetInnerPos, nil, &pos)
	return pos, err
}

// OuterPosition returns the position of the window including decorations.
func (c *Controller) OuterPosition() (Position, error) {
	var pos Position
	err := c.call(methodGetOuterPos, nil, &pos)
	return pos, err
}

// InnerSize returns the size of the window's content area.
func (c *Controller) InnerSize() (Size, error) {
	var size Size
	err := c.call(methodGetInnerSize, nil, &size)
	return size, err
}

// OuterSize returns the size of the window including decorations.
func (c *Controller) OuterSize() (Size, error) {
	var size Size
	err := c.call(methodGetOuterSize, nil, &size)
	return size, err
}

// SetInnerSize resizes the window's content area.
func (c *Controller) SetInnerSize(size Size) error {
	return c.call(methodSetInnerSize, size, nil)
}

// SetPosition moves the window.
func (c *Controller) SetPosition(pos Position) error {
	return c.call(methodSetPosition, pos, nil)
}

// SetVisible shows or hides the window.
func (c *Controller) SetVisible(visible bool) error {
	return c.call(methodSetVisible, flagParams{visible}, nil)
}

// SetMaximized maximizes or restores the window.
func (c *Controller) SetMaximized(maximized bool) error {
	return c.call(methodSetMaximized, flagParams{maximized}, nil)
}

// SetMinimized minimizes or restores the window.
func (c *Controller) SetMinimized(minimized bool) error {
	return c.call(methodSetMinimized, flagParams{minimized}, nil)
}

// SetFullscreen switches the window in or out of fullscreen.
func (c *Controller) SetFullscreen(fullscreen bool) error {
	return c.call(methodSetFullscreen, flagParams{fullscreen}, nil)
}

// SetTheme overrides the webview theme. An empty theme follows the system.
func (c *Controller) SetTheme(theme Theme) error {
	return c.call(methodSetTheme, struct {
		Theme Theme `json:"theme"`
	}{theme}, nil)
}

// StartDragging begins an interactive window move driven by the pointer.
func (c *Controller) StartDragging() error {
	return c.call(methodStartDragging, nil, nil)
}

type flagParams struct {
	Value bool `json:"value"`
}

// ResourceHandler answers an intercepted resource request. Returning nil
// lets the engine handle the request itself.
type ResourceHandler func(req *ResourceRequest) *ResourceResponse

// OnResourceRequested registers the interceptor for outgoing resource
// requests and tells the engine to start forwarding them.
func (c *Controller) OnResourceRequested(handler ResourceHandler) error {
	c.transport.OnRequest(eventResourceRequested, func(params json.RawMessage) (any, error) {
		var req ResourceRequest
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("malformed resource request: %w", err)
		}
		return handler(&req), nil
	})
	return c.transport.Notify(methodListenResources, nil)
}

// NavigationHandler decides whether a navigation may proceed.
type NavigationHandler func(url string) bool

// OnNavigationStarting registers the navigation gate and tells the engine to
// consult it before following any navigation.
func (c *Controller) OnNavigationStarting(handler NavigationHandler) error {
	c.transport.OnRequest(eventNavigationStarting, func(params json.RawMessage) (any, error) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("malformed navigation request: %w", err)
		}
		return struct {
			Allow bool `json:"allow"`
		}{handler(req.URL)}, nil
	})
	return c.transport.Notify(methodListenNav, nil)
}

// OnCloseRequested registers the callback fired when the user asks the
// window to close, for example via the title bar button.
func (c *Controller) OnCloseRequested(handler func()) error {
	c.transport.OnNotification(eventCloseRequested, func(json.RawMessage) {
		handler()
	})
	return c.transport.Notify(methodListenClose, nil)
}
