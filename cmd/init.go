package cmd

import (
	"fmt"
	"os"

	"github.com/okairos/deltarig/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the deltarig config directory and default settings",
	Long: `Initialize ~/.deltarig/ with a default config.yaml and a .env template.

Existing files are left untouched, so init is safe to re-run. Edit
~/.deltarig/.env to point deltarig at a remote inference server.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// ── 1. Resolve ~/.deltarig directory ──────────────────────────────────────
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	// ── 2. Create ~/.deltarig/ if it doesn't exist ────────────────────────────
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("deltarig directory ready: %s", dir))

	// ── 3. Write config.yaml if missing ───────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 4. Write .env template if missing ─────────────────────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Env template ready: %s", envPath))

	fmt.Println("\n✓  deltarig init complete. Run 'deltarig status' to verify your environment.")
	return nil
}
