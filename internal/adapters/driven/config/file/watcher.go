package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragnote/internal/logger"
)

// DefaultWatchDebounce is how long the settings files must be quiet before
// a change is reported. Editors often save in several writes.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watcher reports edits to config.toml and to the prompt templates.
// Like PromptStore it does no I/O until Run.
type Watcher struct {
	configPath string
	promptDir  string
	debounce   time.Duration
}

// NewWatcher creates a watcher for configPath and the templates in promptDir.
func NewWatcher(configPath, promptDir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		configPath: filepath.Clean(configPath),
		promptDir:  filepath.Clean(promptDir),
		debounce:   debounce,
	}
}

// open watches the directory holding config.toml and the prompt directory.
// Directories are watched rather than files so that editors which save by
// renaming a temporary file are still seen.
func (w *Watcher) open() (*fsnotify.Watcher, error) {
	if err := os.MkdirAll(w.promptDir, 0700); err != nil {
		return nil, fmt.Errorf("create prompt directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	for _, dir := range []string{filepath.Dir(w.configPath), w.promptDir} {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Run calls onChange with the sorted paths edited since the last call,
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	fw, err := w.open()
	if err != nil {
		return err
	}
	defer fw.Close()

	pending := make(map[string]struct{})
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				pending[filepath.Clean(ev.Name)] = struct{}{}
				flush = time.After(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Settings watcher error: %v", err)

		case <-flush:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			flush = nil
			onChange(paths)
		}
	}
}

// relevant reports whether ev touches config.toml or a prompt template.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == w.configPath {
		return true
	}
	return filepath.Dir(name) == w.promptDir && filepath.Ext(name) == ".txt"
}
