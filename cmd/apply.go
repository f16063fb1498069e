package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/chewxy/math32"
	"github.com/okairos/deltarig/internal/config"
	"github.com/okairos/deltarig/internal/deform"
	"github.com/okairos/deltarig/internal/manifest"
	"github.com/okairos/deltarig/internal/rig"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply --rig <rig.yaml> --pose <pose.yaml>",
	Short: "Evaluate posed frames and report the resulting deltas",
	Long: `Run the deformer offline: load the rig's mesh buffers and manifest,
evaluate each pose frame through the configured inference runtime, and
report how far the corrective deltas moved the mesh.

With --watch, apply keeps running and re-evaluates every time the
manifest is rewritten — useful while a training job is exporting.

Example:
  deltarig apply --rig character.yaml --pose walk.yaml
  deltarig apply --rig character.yaml --pose walk.yaml --frame 3 --out frame3.f32`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

var (
	flagRig   string
	flagPose  string
	flagFrame int
	flagOut   string
	flagWatch bool
)

func init() {
	applyCmd.Flags().StringVar(&flagRig, "rig", "", "rig YAML naming the manifest and mesh buffers (required)")
	applyCmd.Flags().StringVar(&flagPose, "pose", "", "pose YAML with the frames to evaluate (required)")
	applyCmd.Flags().IntVar(&flagFrame, "frame", -1, "evaluate only this frame index")
	applyCmd.Flags().StringVar(&flagOut, "out", "", "write deformed positions to this .f32 buffer (needs a single frame)")
	applyCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-evaluate whenever the manifest changes (stop with Ctrl-C)")
	_ = applyCmd.MarkFlagRequired("rig")
	_ = applyCmd.MarkFlagRequired("pose")
	rootCmd.AddCommand(applyCmd)
}

// applyRun bundles everything one evaluation pass needs.
type applyRun struct {
	deformer  *deform.Deformer
	doc       *manifest.Document
	rig       *rig.Rig
	frames    []rig.Frame
	positions []float32
	weights   deform.Weights
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rigPath, err := config.ExpandPath(flagRig)
	if err != nil {
		return err
	}
	r, err := rig.LoadRig(rigPath)
	if err != nil {
		return err
	}

	posePath, err := config.ExpandPath(flagPose)
	if err != nil {
		return err
	}
	pose, err := rig.LoadPose(posePath)
	if err != nil {
		return err
	}

	frames := pose.Frames
	if flagFrame >= 0 {
		if flagFrame >= len(pose.Frames) {
			return fmt.Errorf("--frame %d out of range: pose has %d frame(s)", flagFrame, len(pose.Frames))
		}
		frames = pose.Frames[flagFrame : flagFrame+1]
	}
	if flagOut != "" && len(frames) != 1 {
		return fmt.Errorf("--out writes a single frame; use --frame to pick one of the %d", len(frames))
	}

	positions, err := rig.ReadBuffer(r.Positions)
	if err != nil {
		return err
	}
	if len(positions)%3 != 0 {
		return fmt.Errorf("positions buffer %s has %d values, not a multiple of 3", r.Positions, len(positions))
	}

	var weights deform.Weights
	if r.Weights != "" {
		vals, err := rig.ReadBuffer(r.Weights)
		if err != nil {
			return err
		}
		weights = deform.SliceWeights(vals)
	}

	// The manifest is loaded here only to resolve joint names in the pose;
	// the deformer reloads it through its own locked path.
	doc, err := manifest.Load(r.Manifest)
	if err != nil {
		return err
	}

	rt, _, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	lockTimeout, err := time.ParseDuration(cfg.LockTimeout)
	if err != nil {
		return fmt.Errorf("invalid lock_timeout %q in config: %w", cfg.LockTimeout, err)
	}
	d := deform.New(deform.Options{Runtime: rt, LockTimeout: lockTimeout})

	run := &applyRun{
		deformer:  d,
		doc:       doc,
		rig:       r,
		frames:    frames,
		positions: positions,
		weights:   weights,
	}

	printSection("deltarig apply")
	fmt.Printf("  Manifest: %s\n", r.Manifest)
	fmt.Printf("  Runtime:  %s\n", rt.Name())
	fmt.Printf("  Mesh:     %d vertices, envelope %g\n\n", len(positions)/3, r.EnvelopeValue())

	if err := run.evaluate(cmd.Context()); err != nil {
		return err
	}
	if d.Registry().BoundModels() == 0 {
		fmt.Println()
		printWarn("", "no models were loaded — run 'deltarig verify' against this manifest to diagnose")
	}

	if !flagWatch {
		return nil
	}
	return run.watch(cmd.Context())
}

// evaluate runs every selected frame once against a fresh copy of the rest
// positions.
func (run *applyRun) evaluate(ctx context.Context) error {
	for i, fr := range run.frames {
		label := fr.Name
		if label == "" {
			label = fmt.Sprintf("frame %d", i)
		}

		transforms, err := fr.Transforms(run.doc)
		if err != nil {
			return err
		}

		mesh := &deform.BufferMesh{Positions: append([]float32(nil), run.positions...)}
		if err := run.deformer.Evaluate(ctx, deform.Frame{
			ManifestPath: run.rig.Manifest,
			Transforms:   transforms,
			Envelope:     run.rig.EnvelopeValue(),
			Weights:      run.weights,
			Mesh:         mesh,
		}); err != nil {
			return err
		}

		moved, maxOff := frameStats(run.positions, mesh.Positions)
		printInfo(label, fmt.Sprintf("%d of %d vertices moved, max offset %.6g", moved, len(run.positions)/3, maxOff))

		if flagOut != "" {
			outPath, err := config.ExpandPath(flagOut)
			if err != nil {
				return err
			}
			if err := rig.WriteBuffer(outPath, mesh.Positions); err != nil {
				return err
			}
			printOK("", fmt.Sprintf("Deformed positions written: %s", outPath))
		}
	}
	return nil
}

// watch re-evaluates whenever the manifest is rewritten, until interrupted.
func (run *applyRun) watch(parent context.Context) error {
	// The kick channel coalesces bursts of filesystem events into one
	// re-evaluation.
	kick := make(chan struct{}, 1)
	w, err := deform.Watch(run.rig.Manifest, func() {
		run.deformer.MarkDirty()
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	fmt.Printf("\n  Watching %s — Ctrl-C to stop.\n", run.rig.Manifest)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-kick:
			fmt.Printf("\n  Manifest changed at %s:\n", time.Now().Format("15:04:05"))
			if err := run.evaluate(ctx); err != nil {
				return err
			}
		}
	}
}

// frameStats compares positions before and after one evaluation.
func frameStats(before, after []float32) (moved int, maxOff float32) {
	for v := 0; 3*v+2 < len(after); v++ {
		dx := after[3*v] - before[3*v]
		dy := after[3*v+1] - before[3*v+1]
		dz := after[3*v+2] - before[3*v+2]
		off := math32.Sqrt(dx*dx + dy*dy + dz*dz)
		if off > 0 {
			moved++
		}
		if off > maxOff {
			maxOff = off
		}
	}
	return moved, maxOff
}
