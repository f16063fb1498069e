package deform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/okairos/deltarig/internal/infer"
	"github.com/okairos/deltarig/internal/manifest"
)

// loadedModel is one resolved joint slot. A nil model is an empty slot.
// Entries are immutable once Load publishes them.
type loadedModel struct {
	model      infer.Model
	vertices   []int
	normalized bool
	bounds     Bounds
}

// Registry loads and caches the per-joint models described by a manifest.
//
// Load failures never propagate to the caller: the registry logs them and
// degrades to an empty model list that stays cached until the path changes
// or MarkDirty is called, so a broken manifest is reported once instead of
// once per frame.
type Registry struct {
	runtime     infer.Runtime
	log         *slog.Logger
	lockTimeout time.Duration

	mu     sync.Mutex
	path   string
	state  CacheState
	models []loadedModel
}

// NewRegistry constructs an empty, dirty registry.
func NewRegistry(rt infer.Runtime, log *slog.Logger, lockTimeout time.Duration) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Registry{runtime: rt, log: log, lockTimeout: lockTimeout}
}

// MarkDirty forces the next Load to perform a real reload even when the
// manifest path is unchanged. This is the single invalidation entry point
// for hosts and file watchers.
func (r *Registry) MarkDirty() {
	r.mu.Lock()
	r.state = StateDirty
	r.mu.Unlock()
}

// State reports the current cache state.
func (r *Registry) State() CacheState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Path reports the manifest path the cached state belongs to.
func (r *Registry) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Load makes the registry reflect the manifest at path.
//
// It is a no-op when path matches the cached path and the registry is clean.
// Otherwise every slot is reloaded eagerly and synchronously; on any failure
// the registry keeps an empty model list for path and stays clean, so
// repeated evaluations neither retry nor re-log until invalidated again.
func (r *Registry) Load(ctx context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path == r.path && r.state == StateClean {
		return
	}

	models, err := r.resolve(ctx, path)
	r.path = path
	r.state = StateClean
	if err != nil {
		r.models = nil
		switch {
		case errors.Is(err, manifest.ErrNotFound):
			r.log.Error("manifest not found", "path", path)
		case errors.Is(err, manifest.ErrMalformed):
			r.log.Error("manifest malformed", "path", path, "err", err)
		default:
			r.log.Error("cannot load models", "path", path, "err", err)
		}
		return
	}
	r.models = models
	bound := 0
	for i := range models {
		if models[i].model != nil {
			bound++
		}
	}
	r.log.Debug("models loaded", "path", path, "slots", len(models), "bound", bound)
}

// snapshot returns the current slot list. Entries are immutable; the slice
// must not be modified.
func (r *Registry) snapshot() []loadedModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.models
}

// BoundModels reports how many slots currently hold a resolved model.
func (r *Registry) BoundModels() int {
	n := 0
	for _, m := range r.snapshot() {
		if m.model != nil {
			n++
		}
	}
	return n
}

func (r *Registry) resolve(ctx context.Context, path string) ([]loadedModel, error) {
	// Stat before locking: taking the read lock would otherwise create a
	// stray lock file next to a manifest that does not exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest %s: %w", path, manifest.ErrNotFound)
	}
	unlock, err := r.lockManifest(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}

	models := make([]loadedModel, doc.NumSlots())
	for i, slot := range doc.Slots {
		if slot == nil {
			continue
		}
		m, err := r.runtime.Load(ctx, infer.ArtifactRef{
			Root:   slot.Root,
			Meta:   slot.Meta,
			Input:  slot.Input,
			Output: slot.Output,
		})
		if err != nil {
			return nil, fmt.Errorf("slot %d: cannot resolve model: %w", i, err)
		}
		models[i] = loadedModel{
			model:      m,
			vertices:   doc.JointMap[i],
			normalized: slot.Normalized,
			bounds: Bounds{
				TransMax: slot.TransMax,
				TransMin: slot.TransMin,
				VertsMax: slot.VertsMax,
				VertsMin: slot.VertsMin,
			},
		}
	}
	return models, nil
}

// lockManifest takes a shared lock next to the manifest so a trainer holding
// the exclusive lock mid-rewrite is never observed half-swapped.
func (r *Registry) lockManifest(path string) (func(), error) {
	l := flock.New(path + ".lock")
	deadline := time.Now().Add(r.lockTimeout)
	for {
		locked, err := l.TryRLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire manifest lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("manifest is locked for writing (lock: %s)", l.Path())
		}
		time.Sleep(50 * time.Millisecond)
	}
}
