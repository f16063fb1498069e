package cmd

import (
	"fmt"
	"strings"

	"github.com/okairos/deltarig/internal/config"
	"github.com/okairos/deltarig/internal/manifest"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest>",
	Short: "Show the slot table and metadata of a model manifest",
	Long: `Display a formatted summary of a deformer manifest: which slots are
bound to models, which joints they belong to, and how many vertices
each joint owns.

Example:
  deltarig inspect ./out/output_data.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}

	doc, err := manifest.Load(path)
	if err != nil {
		return err
	}

	bound := 0
	vertices := 0
	for i, s := range doc.Slots {
		if s == nil {
			continue
		}
		bound++
		vertices += len(doc.JointMap[i])
	}

	fmt.Printf("📦 Manifest: %s\n", path)
	fmt.Printf("Slots:    %d (%d bound, %d empty)\n", doc.NumSlots(), bound, doc.NumSlots()-bound)
	fmt.Printf("Vertices: %d owned across %d joint(s)\n", vertices, bound)

	fmt.Printf("\n  %3s  %-24s  %8s  %-10s  %s\n", "#", "JOINT", "VERTICES", "NORMALIZED", "ARTIFACT")
	for i, s := range doc.Slots {
		name := doc.JointName(i)
		if name == "" {
			name = "-"
		}
		if s == nil {
			fmt.Printf("  %3d  %-24s  %8s  %-10s  %s\n", i, name, "-", "-", "(empty)")
			continue
		}
		normalized := "no"
		if s.Normalized {
			normalized = "yes"
		}
		fmt.Printf("  %3d  %-24s  %8d  %-10s  %s\n", i, name, len(doc.JointMap[i]), normalized, s.Root)
	}

	if len(doc.InputFields) > 0 && !doc.PoseFieldsMatch() {
		fmt.Println()
		printWarn("", fmt.Sprintf("input_fields order is [%s]; this build feeds models [%s]",
			strings.Join(doc.InputFields, ", "), strings.Join(manifest.PoseFields, ", ")))
	}
	return nil
}
