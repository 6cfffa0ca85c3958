package skills

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/novaflow/sciskills/pkg/logger"
)

// reloadDebounce coalesces bursts of filesystem events (editors typically
// emit several per save) into a single catalog reload.
const reloadDebounce = 500 * time.Millisecond

// Watch monitors the skills directory and reloads the catalog whenever its
// contents change. Each reload rebuilds the whole index and publishes it
// atomically, so concurrent readers always see a complete catalog. Watch
// blocks until the context is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer watcher.Close()

	if err := r.addWatches(watcher); err != nil {
		return err
	}

	log := logger.G(ctx).WithField("skills_dir", r.skillsDir)
	log.Info("Watching skills directory for changes")

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.WithFields(map[string]any{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Skills directory change detected")

			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
				fire = debounce.C
			} else {
				debounce.Reset(reloadDebounce)
			}

		case <-fire:
			debounce = nil
			fire = nil
			r.Load(ctx)
			// New skill directories need their own watches; inotify is
			// not recursive.
			if err := r.addWatches(watcher); err != nil {
				log.WithError(err).Warn("Failed to refresh directory watches")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("Filesystem watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

// addWatches registers the skills root and each immediate subdirectory.
// Already-watched paths are deduplicated by fsnotify itself.
func (r *Registry) addWatches(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(r.skillsDir); err != nil {
		return errors.Wrap(err, "failed to watch skills directory")
	}

	entries, err := os.ReadDir(r.skillsDir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		entryPath := filepath.Join(r.skillsDir, entry.Name())
		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}
		// A vanished directory between ReadDir and Add is harmless.
		_ = watcher.Add(entryPath)
	}

	return nil
}
