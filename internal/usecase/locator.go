// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// LocatorConfig holds window locator configuration.
type LocatorConfig struct {
	PollInterval time.Duration // How often to re-enumerate windows
}

// DefaultLocatorConfig returns default locator configuration.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		PollInterval: 1 * time.Second,
	}
}

// Locator finds the main window of a freshly launched process. Processes
// create their windows at their own pace, so the locator polls until a
// candidate appears or the deadline passes.
type Locator struct {
	config       LocatorConfig
	windowSystem domain.WindowSystem
	logger       *zap.Logger
}

// NewLocator creates a new window locator.
func NewLocator(config LocatorConfig, ws domain.WindowSystem, logger *zap.Logger) *Locator {
	return &Locator{
		config:       config,
		windowSystem: ws,
		logger:       logger,
	}
}

// Locate polls for visible top-level windows owned by pid and returns the
// largest one. Ties keep the earlier window in enumeration order. Returns
// domain.ErrWindowNotFound once timeout elapses without a candidate.
func (l *Locator) Locate(ctx context.Context, pid int, timeout time.Duration) (domain.WindowInfo, error) {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		win, found := l.probe(pid)
		if found {
			l.logger.Info("window located",
				zap.Int("pid", pid),
				zap.Uintptr("hwnd", uintptr(win.Handle)),
				zap.Int("width", win.Frame.Width),
				zap.Int("height", win.Frame.Height))
			return win, nil
		}

		if time.Now().After(deadline) {
			return domain.WindowInfo{}, fmt.Errorf("%w: pid %d after %s",
				domain.ErrWindowNotFound, pid, timeout)
		}

		select {
		case <-ctx.Done():
			return domain.WindowInfo{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// probe enumerates once and picks the largest window. A later window replaces
// the best candidate only when strictly larger.
func (l *Locator) probe(pid int) (domain.WindowInfo, bool) {
	windows, err := l.windowSystem.WindowsOwnedBy(pid)
	if err != nil {
		l.logger.Warn("window enumeration failed",
			zap.Int("pid", pid),
			zap.Error(err))
		return domain.WindowInfo{}, false
	}

	var best domain.WindowInfo
	found := false
	for _, w := range windows {
		if !found || w.Frame.Area() > best.Frame.Area() {
			best = w
			found = true
		}
	}
	return best, found
}
