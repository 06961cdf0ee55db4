package orchestrator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the orchestrator when the skill tree, the configuration
// document, or the shared assets change on disk. Events are debounced so a
// burst of writes triggers a single reload.
type Watcher struct {
	orch     *Orchestrator
	notifier *fsnotify.Watcher
	debounce time.Duration

	// sharedOnly holds paths whose changes only invalidate shared assets.
	sharedOnly map[string]struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher over the orchestrator's paths. Start must be
// called to begin processing events.
func NewWatcher(o *Orchestrator, opts ...WatcherOption) (*Watcher, error) {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filesystem watcher")
	}

	w := &Watcher{
		orch:       o,
		notifier:   notifier,
		debounce:   defaultDebounce,
		sharedOnly: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	watch := func(path string) error {
		if path == "" {
			return nil
		}
		if err := notifier.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	}

	if err := watch(o.registry.Root()); err != nil {
		notifier.Close()
		return nil, err
	}
	if o.configPath != "" {
		if err := watch(filepath.Dir(o.configPath)); err != nil {
			notifier.Close()
			return nil, err
		}
	}
	if o.sharedPromptPath != "" {
		dir := filepath.Dir(o.sharedPromptPath)
		if err := watch(dir); err != nil {
			notifier.Close()
			return nil, err
		}
		w.sharedOnly[dir] = struct{}{}
	}
	if o.sharedToolsPath != "" {
		if err := watch(o.sharedToolsPath); err != nil {
			notifier.Close()
			return nil, err
		}
		w.sharedOnly[o.sharedToolsPath] = struct{}{}
	}
	return w, nil
}

// Start processes filesystem events until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close stops the underlying notifier.
func (w *Watcher) Close() error {
	return w.notifier.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	sharedOnly := true
	reset := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	var timerC <-chan time.Time
	for {
		if timer != nil {
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if _, ok := w.sharedOnly[filepath.Dir(event.Name)]; !ok {
				sharedOnly = false
			}
			reset()
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Warn("filesystem watcher error")
		case <-timerC:
			if sharedOnly {
				w.orch.ReloadSharedAssets()
				logger.G(ctx).Debug("reloaded shared assets after filesystem change")
			} else {
				if err := w.orch.ReloadConfig(); err != nil {
					logger.G(ctx).WithError(err).Error("failed to reload after filesystem change")
				} else {
					logger.G(ctx).Debug("reloaded configuration after filesystem change")
				}
			}
			timer = nil
			timerC = nil
			sharedOnly = true
		}
	}
}
