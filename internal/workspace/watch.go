package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the path of a source file that was written or
// created under the watched root.
type ChangeHandler func(path string)

// Watch starts a recursive fsnotify watcher on the workspace root and invokes
// onChange for every Write/Create event on a source file until ctx is
// cancelled. Watcher errors are non-fatal; the loop keeps running.
func (w *Workspace) Watch(ctx context.Context, onChange ChangeHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch every subdirectory that is not a dependency-manager directory.
	if err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.isIgnored(event.Name) {
				continue
			}

			// A new directory needs its own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skipDirs[filepath.Base(event.Name)] {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}

			if sourceExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				onChange(event.Name)
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
