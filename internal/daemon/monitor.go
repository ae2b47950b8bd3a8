package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// MonitorConfig holds process health monitor configuration.
type MonitorConfig struct {
	PollInterval time.Duration // Liveness poll cadence
	// StartupGrace ignores exit detection for the monitor's first moments,
	// so a deliberate kill-and-relaunch does not look like a crash.
	StartupGrace time.Duration
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval: 2 * time.Second,
		StartupGrace: 10 * time.Second,
	}
}

// Reloader relaunches every hosted app from scratch. The caller holds the
// transition gate; Reload releases it (and the loading flag) when the
// sequence finishes, including on error.
type Reloader interface {
	Reload(ctx context.Context, reason string) error
}

// HealthMonitor watches one launched process and triggers a full reload when
// it dies unexpectedly. One monitor runs per launch; a relaunch registers a
// new PID, which makes the old monitor stale.
type HealthMonitor struct {
	config    MonitorConfig
	appTitle  string
	pid       int
	state     *KioskState
	processes domain.ProcessManager
	reloader  Reloader
	logger    *zap.Logger
}

// NewHealthMonitor creates a monitor for one launch of the titled app.
func NewHealthMonitor(
	config MonitorConfig,
	appTitle string,
	pid int,
	state *KioskState,
	pm domain.ProcessManager,
	reloader Reloader,
	logger *zap.Logger,
) *HealthMonitor {
	return &HealthMonitor{
		config:    config,
		appTitle:  appTitle,
		pid:       pid,
		state:     state,
		processes: pm,
		reloader:  reloader,
		logger: logger.With(
			zap.String("app", appTitle),
			zap.Int("pid", pid)),
	}
}

// Run polls liveness until the context is canceled, the monitor goes stale,
// or it triggers a reload. Returns nil in the latter two cases.
func (m *HealthMonitor) Run(ctx context.Context) error {
	m.logger.Info("health monitor started")
	started := time.Now()

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if m.state.RegisteredPID(m.appTitle) != m.pid {
				// A relaunch replaced the tracked PID. Duplicate monitors
				// must not survive it.
				m.logger.Debug("monitor stale, exiting")
				return nil
			}
			if m.state.Loading() {
				continue
			}
			if m.processes.IsRunning(m.pid) {
				continue
			}
			if time.Since(started) < m.config.StartupGrace {
				// Death this early is a deliberate teardown during a reload
				// or calibration. The relaunch registers a fresh PID with
				// its own monitor, so this one retires instead of flagging
				// the same exit once the grace elapses.
				m.logger.Debug("exit within startup grace, retiring")
				return nil
			}

			m.handleExit(ctx)
			return nil
		}
	}
}

// handleExit races the other monitors for the transition gate. The first
// winner drives the reload; losers abort, since the reload relaunches their
// apps too.
func (m *HealthMonitor) handleExit(ctx context.Context) {
	if !m.state.BeginTransition() {
		m.logger.Debug("reload already in flight, aborting")
		return
	}

	m.logger.Warn("hosted process exited unexpectedly, reloading")
	if err := m.reloader.Reload(ctx, "process "+m.appTitle+" exited"); err != nil {
		m.logger.Error("reload failed", zap.Error(err))
	}
}
