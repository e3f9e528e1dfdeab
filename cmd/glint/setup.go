package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"glint/internal/config"
)

// runCleanup is set by setupRun and called by teardownRun.
var runCleanup func()

// setupRun loads configuration, resolves colors, starts profilers and
// installs the tracer.
func setupRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SetContext(withConfig(cmd.Context(), cfg))

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if !cmd.Root().PersistentFlags().Changed("color") && cfg.Output.Color != "" {
		colorFlag = cfg.Output.Color
	}
	mode, err := readUIMode(colorFlag)
	if err != nil {
		return fmt.Errorf("--color: %w", err)
	}
	color.NoColor = !shouldUseTUI(mode)

	profiles, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		_ = profiles.Stop()
		return err
	}
	runCleanup = func() {
		cleanup()
		if err := profiles.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}
	return nil
}

func teardownRun(*cobra.Command, []string) error {
	if runCleanup != nil {
		runCleanup()
		runCleanup = nil
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Discover(wd)
}
