package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/okairos/deltarig/internal/config"
	"github.com/okairos/deltarig/internal/infer"
	"github.com/okairos/deltarig/internal/manifest"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest>",
	Short: "Resolve every model in a manifest and report what fails",
	Long: `Load a manifest and resolve each bound slot through the configured
inference runtime, without evaluating anything. Run this after a
training export, or before wiring the manifest into a scene.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}

	allOK := true
	printSection("deltarig verify")
	fmt.Println()

	// ── Check 1: manifest loads ───────────────────────────────────────────────
	fmt.Println("[ Manifest ]")
	doc, err := manifest.Load(path)
	if err != nil {
		printErr("", err.Error())
		fmt.Println()
		return fmt.Errorf("verify found issues")
	}
	bound := 0
	vertices := 0
	for i, s := range doc.Slots {
		if s != nil {
			bound++
			vertices += len(doc.JointMap[i])
		}
	}
	printOK("", fmt.Sprintf("%d slot(s), %d bound, %d vertices owned", doc.NumSlots(), bound, vertices))
	if len(doc.InputFields) > 0 && !doc.PoseFieldsMatch() {
		printWarn("", fmt.Sprintf("input_fields order is [%s]; models are fed [%s]",
			strings.Join(doc.InputFields, ", "), strings.Join(manifest.PoseFields, ", ")))
	}
	fmt.Println()

	// ── Check 2: runtime resolves ─────────────────────────────────────────────
	fmt.Println("[ Runtime ]")
	rt, icfg, err := buildRuntime(cfg)
	if err != nil {
		printErr("", err.Error())
		fmt.Println()
		return fmt.Errorf("verify found issues")
	}
	if icfg.BaseURL != "" {
		printOK("", fmt.Sprintf("%s (%s)", rt.Name(), icfg.BaseURL))
	} else {
		printOK("", rt.Name())
	}
	fmt.Println()

	// ── Check 3: every bound slot resolves to a model ─────────────────────────
	fmt.Println("[ Models ]")
	failed := 0
	for i, s := range doc.Slots {
		name := doc.JointName(i)
		if name == "" {
			name = fmt.Sprintf("slot %d", i)
		}
		if s == nil {
			printSkip(name, "empty")
			continue
		}
		m, err := rt.Load(cmd.Context(), infer.ArtifactRef{
			Root:   s.Root,
			Meta:   s.Meta,
			Input:  s.Input,
			Output: s.Output,
		})
		if err != nil {
			printErr(name, err.Error())
			failed++
			allOK = false
			continue
		}
		printOK(name, fmt.Sprintf("%d → %d", m.InputDim(), m.OutputDim()))
		if want := 3 * len(doc.JointMap[i]); m.OutputDim() > 0 && m.OutputDim() != want {
			printWarn(name, fmt.Sprintf("model predicts %d values but the joint owns %d vertices (%d values)",
				m.OutputDim(), len(doc.JointMap[i]), want))
		}
		if s.Normalized && len(s.VertsMax) < 3*len(doc.JointMap[i]) {
			printWarn(name, fmt.Sprintf("verts_max covers %d of %d delta components; the rest pass through unscaled",
				len(s.VertsMax), 3*len(doc.JointMap[i])))
		}
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. The manifest is ready to evaluate.")
		return nil
	}
	fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
	return fmt.Errorf("%d of %d model(s) failed to resolve", failed, bound)
}
