package engine

import "strings"

// Theme is a window theme as the engine understands it.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// WindowLevel pins a window above or below its peers.
type WindowLevel string

const (
	WindowLevelNormal         WindowLevel = "normal"
	WindowLevelAlwaysOnTop    WindowLevel = "always-on-top"
	WindowLevelAlwaysOnBottom WindowLevel = "always-on-bottom"
)

// Position is a physical position in pixels.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Size is a physical size in pixels.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Icon is raw RGBA pixel data for a window icon.
type Icon struct {
	RGBA   []byte `json:"rgba"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Settings configures a versoview instance when its webview is created.
type Settings struct {
	URL            string      `json:"url"`
	Title          string      `json:"title,omitempty"`
	InnerSize      *Size       `json:"inner_size,omitempty"`
	Position       *Position   `json:"position,omitempty"`
	Decorated      bool        `json:"decorated"`
	Transparent    bool        `json:"transparent"`
	Visible        bool        `json:"visible"`
	Focused        bool        `json:"focused"`
	Fullscreen     bool        `json:"fullscreen"`
	Maximized      bool        `json:"maximized"`
	Theme          Theme       `json:"theme,omitempty"`
	Icon           *Icon       `json:"icon,omitempty"`
	WindowLevel    WindowLevel `json:"window_level,omitempty"`
	UserScripts    []string    `json:"user_scripts,omitempty"`
	UseHTTPSScheme bool        `json:"use_https_scheme"`
}

// ResourceRequest is an outgoing resource request intercepted by the engine
// and forwarded to the host for an answer.
type ResourceRequest struct {
	Method  string            `json:"method"`
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body,omitempty"`
}

// Header returns a header value, or "" when absent. Lookup is
// case-insensitive the way HTTP header lookup is.
func (r *ResourceRequest) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// SetHeader sets a header value, replacing any case-insensitive match.
func (r *ResourceRequest) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string, 1)
	}
	for k := range r.Headers {
		if strings.EqualFold(k, name) {
			delete(r.Headers, k)
		}
	}
	r.Headers[name] = value
}

// RemoveHeader deletes a header if present and returns its value.
func (r *ResourceRequest) RemoveHeader(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			delete(r.Headers, k)
			return v, true
		}
	}
	return "", false
}

// ResourceResponse is the host's answer to an intercepted resource request.
// A nil response tells the engine to handle the request itself.
type ResourceResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}
