package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/stride/internal/entity"
	"github.com/felixgeelhaar/stride/internal/errors"
	"github.com/felixgeelhaar/stride/internal/log"
)

// debounceWindow coalesces the burst of write events most editors emit
// when saving a file.
const debounceWindow = 200 * time.Millisecond

// Watcher observes the config file and reports settings changes.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	onChange func(entity.UserSettings)
}

// NewWatcher creates a watcher for the config file at path. onChange is
// invoked with the new settings whenever the file is rewritten and the
// settings section differs from the previous load.
func NewWatcher(path string, logger *log.Logger, onChange func(entity.UserSettings)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "create file watcher", err)
	}
	// Watch the directory, not the file: editors that rename-and-replace
	// would otherwise drop the watch after the first save.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "watch config directory", err)
	}
	return &Watcher{path: path, watcher: fw, logger: logger, onChange: onChange}, nil
}

// Run blocks until ctx is cancelled, dispatching settings changes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	last, err := Load(w.path)
	if err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.WithError(err).Warn("reloading config after change")
				continue
			}
			if !settingsEqual(cfg.Settings, last.Settings) {
				w.logger.Info("settings changed, dispatching")
				w.onChange(cfg.Settings)
			}
			last = cfg

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("file watcher error")
		}
	}
}

func settingsEqual(a, b entity.UserSettings) bool {
	if a.WhatsappNumber != b.WhatsappNumber ||
		a.EnableWhatsappNotifications != b.EnableWhatsappNotifications ||
		a.ReminderFrequency != b.ReminderFrequency ||
		a.ReminderTime != b.ReminderTime ||
		len(a.DefaultNotificationChannels) != len(b.DefaultNotificationChannels) {
		return false
	}
	for i := range a.DefaultNotificationChannels {
		if a.DefaultNotificationChannels[i] != b.DefaultNotificationChannels[i] {
			return false
		}
	}
	return true
}
