package cmd

import (
	"fmt"
	"os"

	"github.com/okairos/deltarig/internal/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resolved configuration and runtime environment",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'deltarig init' first.", err)
	}

	printSection("Configuration")
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
		printMiss("", fmt.Sprintf("%s not found — using defaults (run 'deltarig init')", cfgPath))
	} else {
		printOK("", cfgPath)
	}
	fmt.Printf("     runtime:      %s\n", cfg.Runtime)
	fmt.Printf("     log_level:    %s\n", cfg.LogLevel)
	fmt.Printf("     lock_timeout: %s\n", cfg.LockTimeout)

	printSection("Environment")
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(envPath); os.IsNotExist(statErr) {
		printMiss("", fmt.Sprintf("%s not found (run 'deltarig init')", envPath))
	} else {
		printOK("", envPath)
	}
	// Secrets are reported as set/unset only.
	envKeys := []struct {
		key    string
		secret bool
	}{
		{"DELTARIG_RUNTIME", false},
		{"DELTARIG_RUNTIME_URL", false},
		{"DELTARIG_RUNTIME_API_KEY", true},
		{"DELTARIG_RUNTIME_TIMEOUT", false},
	}
	for _, e := range envKeys {
		val, err := config.GetConfigValue(e.key)
		if err != nil {
			printErr(e.key, err.Error())
			continue
		}
		switch {
		case val == "":
			printMiss(e.key, "not set")
		case e.secret:
			printOK(e.key, "set (hidden)")
		default:
			printOK(e.key, val)
		}
	}

	printSection("Runtime")
	rt, icfg, err := buildRuntime(cfg)
	if err != nil {
		printErr("", err.Error())
		return fmt.Errorf("runtime not usable")
	}
	if icfg.BaseURL != "" {
		printOK("", fmt.Sprintf("%s (%s, timeout %s)", rt.Name(), icfg.BaseURL, icfg.Timeout))
	} else {
		printOK("", rt.Name())
	}
	return nil
}
