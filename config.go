package versoruntime

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// enginePathEnv overrides engine executable discovery when set.
const enginePathEnv = "VERSO_PATH"

// Config carries the process-wide runtime settings. They are fixed when New
// succeeds and immutable for the life of the Runtime.
type Config struct {
	// EnginePath locates the versoview executable. Defaults to the
	// VERSO_PATH environment variable, then conventional build locations.
	EnginePath string `toml:"engine_path"`

	// ResourcesDir, when set, is passed to every engine instance.
	ResourcesDir string `toml:"resources_directory"`

	// DevtoolsPort, when nonzero, serves the devtools protocol on every
	// engine instance.
	DevtoolsPort uint16 `toml:"devtools_port"`

	// LogLevel is a zerolog level name. Defaults to "info".
	LogLevel string `toml:"log_level"`

	// Logger overrides the logger built from LogLevel.
	Logger *zerolog.Logger `toml:"-"`
}

// DefaultConfig returns a config that discovers the engine executable from
// the environment and conventional locations.
func DefaultConfig() Config {
	return Config{
		EnginePath: findEnginePath(),
		LogLevel:   "info",
	}
}

// findEnginePath checks VERSO_PATH, then a set of conventional paths
// including next to the running executable.
func findEnginePath() string {
	if path := os.Getenv(enginePathEnv); path != "" {
		return path
	}

	name := "versoview"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	searchPaths := []string{
		name,
		filepath.Join("target", "debug", name),
		filepath.Join("target", "release", name),
	}
	if exe, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(exe), name))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfig reads a verso.toml config file. A missing file is not an
// error; defaults are returned.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	// File values override discovery, not the other way around.
	if file.EnginePath != "" {
		config.EnginePath = file.EnginePath
	}
	if file.ResourcesDir != "" {
		config.ResourcesDir = file.ResourcesDir
	}
	if file.DevtoolsPort != 0 {
		config.DevtoolsPort = file.DevtoolsPort
	}
	if file.LogLevel != "" {
		config.LogLevel = file.LogLevel
	}

	return config, nil
}

// SaveConfig writes the config to a verso.toml file.
func SaveConfig(path string, config Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// logger materializes the configured logger.
func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}

	level := zerolog.InfoLevel
	if c.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(c.LogLevel); err == nil {
			level = parsed
		}
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
