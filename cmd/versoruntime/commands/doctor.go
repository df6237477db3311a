package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/agiangrant/versoruntime"
)

// Doctor implements the 'versoruntime doctor' command
func Doctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	path := fs.String("config", "verso.toml", "Config file to check")
	fs.Parse(args)

	config, err := versoruntime.LoadConfig(*path)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration (%s):\n", *path)
	fmt.Printf("  engine_path:         %s\n", orUnset(config.EnginePath))
	fmt.Printf("  resources_directory: %s\n", orUnset(config.ResourcesDir))
	if config.DevtoolsPort != 0 {
		fmt.Printf("  devtools_port:       %d\n", config.DevtoolsPort)
	} else {
		fmt.Println("  devtools_port:       (disabled)")
	}
	fmt.Printf("  log_level:           %s\n", config.LogLevel)
	fmt.Println()

	problems := 0

	if config.EnginePath == "" {
		fmt.Println("  ✗ No versoview executable found; set engine_path or VERSO_PATH")
		problems++
	} else if info, err := os.Stat(config.EnginePath); err != nil {
		fmt.Printf("  ✗ Engine executable not found at %s\n", config.EnginePath)
		problems++
	} else if info.IsDir() {
		fmt.Printf("  ✗ Engine path %s is a directory\n", config.EnginePath)
		problems++
	} else {
		fmt.Printf("  ✓ Engine executable found at %s\n", config.EnginePath)
	}

	if config.ResourcesDir != "" {
		if info, err := os.Stat(config.ResourcesDir); err != nil {
			fmt.Printf("  ✗ Resources directory not found at %s\n", config.ResourcesDir)
			problems++
		} else if !info.IsDir() {
			fmt.Printf("  ✗ Resources path %s is not a directory\n", config.ResourcesDir)
			problems++
		} else {
			fmt.Printf("  ✓ Resources directory found at %s\n", config.ResourcesDir)
		}
	}

	if problems > 0 {
		return fmt.Errorf("found %d problem(s)", problems)
	}
	fmt.Println("  ✓ Ready to run")
	return nil
}

func orUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}
