package infra

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// ControlWatcher re-applies the control settings document whenever it changes
// on disk, so field technicians can push a corrected settings file without
// touching the kiosk.
type ControlWatcher struct {
	controlPath string
	store       domain.SettingsStore
	logger      *zap.Logger
}

// NewControlWatcher creates a watcher over the control settings file.
func NewControlWatcher(controlPath string, store domain.SettingsStore, logger *zap.Logger) *ControlWatcher {
	return &ControlWatcher{
		controlPath: controlPath,
		store:       store,
		logger:      logger,
	}
}

// Run blocks until the context is canceled, syncing the settings document
// after every write to the control file. Watch failures are logged and the
// watcher gives up; the startup sync has already run by then.
func (w *ControlWatcher) Run(ctx context.Context) error {
	if w.controlPath == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors and scp replace files by rename, which
	// drops a direct file watch.
	if err := watcher.Add(filepath.Dir(w.controlPath)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.controlPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			replaced, err := w.store.SyncFromControl()
			if err != nil {
				w.logger.Warn("control settings sync failed", zap.Error(err))
				continue
			}
			if replaced {
				w.logger.Info("client settings replaced from control file",
					zap.String("control", w.controlPath))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("control settings watch error", zap.Error(err))
		}
	}
}
