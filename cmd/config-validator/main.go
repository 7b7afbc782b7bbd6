package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/orgoj/servicelog/internal/config"
)

func main() {
	flag.Parse()

	if len(flag.Args()) < 1 {
		fmt.Println("Error: Config file path is required")
		fmt.Println("Usage: config-validator <config-file>")
		os.Exit(1)
	}
	configPath := flag.Args()[0]

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Printf("Validation error: %v\n", err)
		os.Exit(1)
	}

	if err := checkUsable(cfg); err != nil {
		fmt.Printf("Validation error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
}

// checkUsable verifies that the destinations the tools will actually use
// are enabled.
func checkUsable(cfg *config.Config) error {
	enabled := make(map[string]bool)
	for _, dest := range cfg.Destinations {
		if dest.Enabled {
			enabled[dest.Name] = true
		}
	}

	if len(enabled) == 0 {
		return errors.New("at least one destination must be enabled")
	}
	if cfg.DefaultDestination != "" && !enabled[cfg.DefaultDestination] {
		return fmt.Errorf("default_destination '%s' is disabled", cfg.DefaultDestination)
	}
	if cfg.Sink.Enabled && cfg.Sink.Destination != "" && !enabled[cfg.Sink.Destination] {
		return fmt.Errorf("sink.destination '%s' is disabled", cfg.Sink.Destination)
	}
	return nil
}
