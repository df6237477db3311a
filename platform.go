package versoruntime

import "runtime"

// Platform represents the current operating system/platform
type Platform string

const (
	PlatformMacOS   Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// CurrentPlatform returns the platform the runtime is running on
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// IsMacOS returns true if running on macOS
func IsMacOS() bool {
	return CurrentPlatform() == PlatformMacOS
}

// IsLinux returns true if running on Linux
func IsLinux() bool {
	return CurrentPlatform() == PlatformLinux
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return CurrentPlatform() == PlatformWindows
}

// UsesSchemeWorkaround returns true if custom protocol URIs reach the engine
// mangled into http or https form and must be translated back before
// protocol handlers run
func UsesSchemeWorkaround() bool {
	return IsWindows()
}

// SupportsMonitorQueries returns true if the platform can enumerate monitors
// and report the global cursor position
func SupportsMonitorQueries() bool {
	return IsLinux()
}

// SupportsWorkArea returns true if monitor work areas exclude panels and
// docks on this platform
func SupportsWorkArea() bool {
	return IsLinux()
}
