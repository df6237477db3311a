package main

import (
	"fmt"
	"os"

	"github.com/agiangrant/versoruntime/cmd/versoruntime/commands"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = commands.Init(args)
	case "doctor":
		err = commands.Doctor(args)
	case "version", "-v", "--version":
		fmt.Printf("versoruntime version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`versoruntime - verso window runtime tooling

Usage: versoruntime <command> [options]

Commands:
  init      Write a starter verso.toml
  doctor    Validate the configuration and engine installation
  version   Print version information
  help      Show this help message

Examples:
  versoruntime init                         Write verso.toml next to your app
  versoruntime init --engine ./versoview    Pin the engine executable path
  versoruntime doctor                       Check that the runtime can start`)
}
