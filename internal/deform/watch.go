package deform

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates a deformer when its manifest changes on disk.
//
// Hosts with their own dependency graph call MarkDirty themselves and do not
// need one; the watcher exists for file-backed hosts and the offline harness.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan bool
}

// Watch calls markDirty whenever the manifest at path is written, created,
// renamed, or removed. The parent directory is watched rather than the file
// itself so rename-into-place rewrites are still seen.
func Watch(path string, markDirty func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create manifest watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}

	w := &Watcher{watcher: fw, done: make(chan bool)}
	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Name != abs {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					markDirty()
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
