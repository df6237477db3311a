package versoruntime

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// InvokeBodyHeader names the request header that smuggles an invoke payload,
// percent-encoded, because the engine transport cannot carry a body for
// intercepted requests. The decoded payload replaces the request body before
// any handler runs.
const InvokeBodyHeader = "Tauri-VersoRuntime-Invoke-Body"

// ipcProtocol is the custom protocol whose requests carry an invoke body.
const ipcProtocol = "ipc"

// schemeStrategy decides whether a request URI addresses a custom protocol
// and normalizes matched URIs to the form protocol handlers expect. The
// strategy is selected once at startup so handler code stays agnostic of the
// platform's addressing convention.
type schemeStrategy interface {
	// Matches reports whether uri addresses the named protocol.
	Matches(uri, protocol string) bool
	// Rewrite converts a matched uri into canonical {protocol}:// form.
	Rewrite(uri, protocol string) string
	// Origin synthesizes the origin the host framework expects for the
	// protocol, used when a request arrives without one.
	Origin(protocol string) string
}

// directScheme matches custom protocols delivered with their real scheme.
type directScheme struct{}

func (directScheme) Matches(uri, protocol string) bool {
	return strings.HasPrefix(uri, protocol+"://")
}

func (directScheme) Rewrite(uri, protocol string) string {
	return uri
}

func (directScheme) Origin(protocol string) string {
	return protocol + "://localhost"
}

// workaroundScheme matches custom protocols mangled into
// {http|https}://{protocol}.{rest} form on platforms whose transport cannot
// route arbitrary schemes, and rewrites them back.
type workaroundScheme struct {
	// Secure selects https for synthesized origins.
	Secure bool
}

func (workaroundScheme) Matches(uri, protocol string) bool {
	return strings.HasPrefix(uri, "http://"+protocol+".") ||
		strings.HasPrefix(uri, "https://"+protocol+".")
}

func (workaroundScheme) Rewrite(uri, protocol string) string {
	rest, ok := strings.CutPrefix(uri, "http://"+protocol+".")
	if !ok {
		rest, ok = strings.CutPrefix(uri, "https://"+protocol+".")
	}
	if !ok {
		return uri
	}
	return protocol + "://" + rest
}

func (s workaroundScheme) Origin(protocol string) string {
	if s.Secure {
		return "https://tauri.localhost"
	}
	return "http://tauri.localhost"
}

// schemeStrategyFor picks the addressing strategy for the current platform.
func schemeStrategyFor(useHTTPS bool) schemeStrategy {
	if UsesSchemeWorkaround() {
		return workaroundScheme{Secure: useHTTPS}
	}
	return directScheme{}
}

// errInvokeBodyEncoding reports an invoke header that is not valid
// percent-encoded UTF-8.
var errInvokeBodyEncoding = errors.New("invoke body is not valid percent-encoded UTF-8")

// decodeInvokeBody decodes the percent-encoded payload carried in
// InvokeBodyHeader. The decoded bytes are validated as UTF-8; callers treat
// a failure as an empty body rather than a fatal dispatch error.
func decodeInvokeBody(value string) ([]byte, error) {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return nil, errInvokeBodyEncoding
	}
	if !utf8.ValidString(decoded) {
		return nil, errInvokeBodyEncoding
	}
	return []byte(decoded), nil
}
