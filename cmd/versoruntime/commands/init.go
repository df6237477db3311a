package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/agiangrant/versoruntime"
)

// Init implements the 'versoruntime init' command
func Init(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "verso.toml", "Config file to write")
	engine := fs.String("engine", "", "Path to the versoview executable")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	fs.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	config := versoruntime.DefaultConfig()
	if *engine != "" {
		config.EnginePath = *engine
	}

	if err := versoruntime.SaveConfig(*path, config); err != nil {
		return err
	}
	fmt.Printf("  ✓ Created %s\n", *path)

	if config.EnginePath == "" {
		fmt.Println("  ! No versoview executable found; set engine_path or VERSO_PATH")
	} else {
		fmt.Printf("  ✓ Engine: %s\n", config.EnginePath)
	}
	return nil
}
