package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/okairos/deltarig/internal/config"
	"github.com/okairos/deltarig/internal/infer"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "deltarig",
	Short:        "deltarig — learned corrective deltas for skinned meshes",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `deltarig evaluates per-joint regression models against posed joint
transforms and blends the predicted displacement deltas onto a mesh.

Models are described by a manifest (output_data.json) produced by the
training pipeline; deltarig loads them through a pluggable inference
runtime and applies the results offline.`,
}

var flagLogLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	cobra.OnInitialize(setupLogger)
}

// setupLogger installs the process-wide slog handler. The --log-level flag
// wins over the config file; unset falls back to info.
func setupLogger() {
	level := flagLogLevel
	if level == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.LogLevel
		}
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRuntime constructs the inference runtime for the current environment.
// Environment variables (and ~/.deltarig/.env) win over config.yaml.
// It is a thin convenience wrapper used by multiple commands.
func buildRuntime(cfg *config.Config) (infer.Runtime, *infer.Config, error) {
	icfg, err := infer.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if icfg.Runtime == "" {
		icfg.Runtime = cfg.Runtime
	}
	rt, err := infer.New(icfg)
	if err != nil {
		return nil, nil, err
	}
	return rt, icfg, nil
}
