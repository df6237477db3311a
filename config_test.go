package versoruntime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigUsesEnvironmentPath(t *testing.T) {
	t.Setenv("VERSO_PATH", "/opt/verso/versoview")

	config := DefaultConfig()
	if config.EnginePath != "/opt/verso/versoview" {
		t.Errorf("EnginePath = %q, want the environment override", config.EnginePath)
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", config.LogLevel)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("VERSO_PATH", "/opt/verso/versoview")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "verso.toml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.EnginePath != "/opt/verso/versoview" {
		t.Errorf("EnginePath = %q, want the default discovery result", config.EnginePath)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	t.Setenv("VERSO_PATH", "/opt/verso/versoview")

	path := filepath.Join(t.TempDir(), "verso.toml")
	content := `engine_path = "/custom/versoview"
resources_directory = "/custom/resources"
devtools_port = 9229
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.EnginePath != "/custom/versoview" {
		t.Errorf("EnginePath = %q, want the file value", config.EnginePath)
	}
	if config.ResourcesDir != "/custom/resources" {
		t.Errorf("ResourcesDir = %q, want the file value", config.ResourcesDir)
	}
	if config.DevtoolsPort != 9229 {
		t.Errorf("DevtoolsPort = %d, want 9229", config.DevtoolsPort)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
}

func TestLoadConfigPartialFileKeepsDiscovery(t *testing.T) {
	t.Setenv("VERSO_PATH", "/opt/verso/versoview")

	path := filepath.Join(t.TempDir(), "verso.toml")
	if err := os.WriteFile(path, []byte("devtools_port = 9229\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.EnginePath != "/opt/verso/versoview" {
		t.Errorf("EnginePath = %q, want discovery kept for fields the file omits", config.EnginePath)
	}
	if config.DevtoolsPort != 9229 {
		t.Errorf("DevtoolsPort = %d, want 9229", config.DevtoolsPort)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verso.toml")
	if err := os.WriteFile(path, []byte("engine_path = [broken"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted a malformed file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verso.toml")

	saved := Config{
		EnginePath:   "/custom/versoview",
		DevtoolsPort: 9229,
		LogLevel:     "warn",
	}
	if err := SaveConfig(path, saved); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if loaded.EnginePath != saved.EnginePath {
		t.Errorf("EnginePath = %q, want %q", loaded.EnginePath, saved.EnginePath)
	}
	if loaded.DevtoolsPort != saved.DevtoolsPort {
		t.Errorf("DevtoolsPort = %d, want %d", loaded.DevtoolsPort, saved.DevtoolsPort)
	}
	if loaded.LogLevel != saved.LogLevel {
		t.Errorf("LogLevel = %q, want %q", loaded.LogLevel, saved.LogLevel)
	}
}
