package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
	"github.com/liftops/kioskd/internal/usecase"
)

// ControllerConfig holds mode controller configuration.
type ControllerConfig struct {
	LocateTimeout      time.Duration // Window locator deadline per launch
	LayoutWait         time.Duration // How long to wait for region layout
	LayoutPollInterval time.Duration // Layout readiness poll cadence
	RestartDelay       time.Duration // Pause before terminating children on reload
	ReloadCooldown     time.Duration // Pause before monitoring resumes after reload
	FocusAttempts      int           // Focus re-assertions for fill-region apps
	FocusInterval      time.Duration // Delay between focus re-assertions

	// Calibration layout fallbacks when the client settings carry no
	// mini-indicator size.
	CalibrationTopHeight    int
	CalibrationBottomHeight int
}

// DefaultControllerConfig returns default controller configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		LocateTimeout:           60 * time.Second,
		LayoutWait:              5 * time.Second,
		LayoutPollInterval:      100 * time.Millisecond,
		RestartDelay:            3 * time.Second,
		ReloadCooldown:          30 * time.Second,
		FocusAttempts:           5,
		FocusInterval:           time.Second,
		CalibrationTopHeight:    900,
		CalibrationBottomHeight: 300,
	}
}

// ControllerDeps bundles the controller's collaborators.
type ControllerDeps struct {
	State        *KioskState
	Locator      *usecase.Locator
	Embedder     *usecase.Embedder
	WindowSystem domain.WindowSystem
	Regions      domain.RegionProvider
	Launcher     domain.Launcher
	Processes    domain.ProcessManager
	Settings     domain.SettingsStore
	Status       domain.StatusSink
	Overlays     []*OverlayBlocker
}

// Controller sequences the kiosk's modes: the startup launch pipeline,
// reloads, and calibration enter/exit. At most one transition runs at a
// time; the shared state's transition gate rejects the rest.
type Controller struct {
	config         ControllerConfig
	guardianConfig GuardianConfig
	monitorConfig  MonitorConfig
	apps           []domain.HostedApp
	deps           ControllerDeps
	logger         *zap.Logger

	wg sync.WaitGroup
}

// NewController creates the controller for the configured apps.
func NewController(
	config ControllerConfig,
	guardianConfig GuardianConfig,
	monitorConfig MonitorConfig,
	apps []domain.HostedApp,
	deps ControllerDeps,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		config:         config,
		guardianConfig: guardianConfig,
		monitorConfig:  monitorConfig,
		apps:           apps,
		deps:           deps,
		logger:         logger,
	}
}

// Ensure Controller satisfies the monitor's reload hook.
var _ Reloader = (*Controller)(nil)

// Start runs the startup pipeline: sync settings, launch and embed every
// configured app, then activate the overlays. Guardians and overlay loops
// are spawned here and run until ctx is canceled.
func (c *Controller) Start(ctx context.Context) error {
	if changed, err := c.deps.Settings.SyncFromControl(); err != nil {
		c.logger.Warn("control settings sync failed", zap.Error(err))
	} else if changed {
		c.logger.Info("client settings replaced from control file")
	}
	if changed, err := c.deps.Settings.EnsureLaunchMinified(); err != nil {
		c.logger.Warn("launch flag check failed", zap.Error(err))
	} else if changed {
		c.logger.Info("launch-minified flag set on settings modes")
	}

	if err := c.deps.WindowSystem.SetTaskbarVisible(false); err != nil {
		c.logger.Warn("taskbar hide failed", zap.Error(err))
	}

	c.deps.State.SetLoading(true)
	c.deps.Status.SetStatus("Starting applications...")

	for _, blocker := range c.deps.Overlays {
		c.runLoop(ctx, blocker.Run)
	}
	for _, app := range c.apps {
		cfg := c.guardianConfig
		// The top app is killed and relaunched with its full UI during
		// calibration; its guardian stands down for the duration. Apps in
		// other regions stay guarded through the layout change.
		cfg.SuspendOnCalibration = app.Region == domain.RegionTop
		guardian := NewGuardian(cfg, app.Title, c.deps.State,
			c.deps.WindowSystem, c.deps.Regions, c.deps.Embedder, c.logger)
		c.runLoop(ctx, guardian.Run)
	}

	var firstErr error
	for _, app := range c.apps {
		if err := c.launchApp(ctx, app); err != nil {
			c.logger.Error("launch pipeline failed",
				zap.String("app", app.Title),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for _, blocker := range c.deps.Overlays {
		blocker.Show()
	}

	c.deps.State.SetLoading(false)
	c.deps.Status.SetStatus("Ready")
	return firstErr
}

// Wait blocks until every spawned loop has stopped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) runLoop(ctx context.Context, run func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = run(ctx)
	}()
}

// launchApp drives one app through launch, locate, embed and registration,
// then starts its per-launch health monitor. Locator timeout is fatal for
// this launch and surfaces through the status sink.
func (c *Controller) launchApp(ctx context.Context, app domain.HostedApp) error {
	pid, err := c.deps.Launcher.Launch(app.Path)
	if err != nil {
		c.deps.Status.Alert("Launch failed",
			fmt.Sprintf("%s could not be started: %v", app.Title, err))
		return fmt.Errorf("launch %s: %w", app.Title, err)
	}
	c.logger.Info("launched hosted app",
		zap.String("app", app.Title),
		zap.Int("pid", pid))

	win, err := c.deps.Locator.Locate(ctx, pid, c.config.LocateTimeout)
	if err != nil {
		c.deps.Status.Alert("Window not found",
			fmt.Sprintf("%s started but no window appeared.", app.Title))
		return fmt.Errorf("locate %s: %w", app.Title, err)
	}

	if err := c.deps.WindowSystem.SetTitle(win.Handle, app.Title); err != nil {
		c.logger.Warn("title override failed",
			zap.String("app", app.Title),
			zap.Error(err))
	}

	region, err := c.waitForLayout(ctx, app.Region)
	if err != nil {
		return fmt.Errorf("region %s: %w", app.Region, err)
	}

	bounds := usecase.TargetBounds(region, win.Frame, app.Fill)
	if err := c.deps.Embedder.Embed(ctx, win.Handle, region, bounds); err != nil {
		c.logger.Warn("embed failed",
			zap.String("app", app.Title),
			zap.Error(err))
	}

	app.PID = pid
	app.Window = win.Handle
	c.deps.State.Register(app)

	monitor := NewHealthMonitor(c.monitorConfig, app.Title, pid,
		c.deps.State, c.deps.Processes, c, c.logger)
	c.runLoop(ctx, monitor.Run)

	if app.Fill == domain.FillRegion {
		c.keepFocused(ctx, win.Handle)
	}
	return nil
}

// waitForLayout polls the region until its live geometry is usable or the
// wait elapses. A still-degenerate region is returned as-is; sizing then
// falls back to the region's default rectangle.
func (c *Controller) waitForLayout(ctx context.Context, name string) (domain.HostRegion, error) {
	deadline := time.Now().Add(c.config.LayoutWait)
	for {
		region, err := c.deps.Regions.Region(name)
		if err != nil {
			return domain.HostRegion{}, err
		}
		if !region.Frame.Degenerate() || time.Now().After(deadline) {
			return region, nil
		}
		select {
		case <-ctx.Done():
			return region, ctx.Err()
		case <-time.After(c.config.LayoutPollInterval):
		}
	}
}

// keepFocused hands keyboard focus to the window a few times after launch
// without raising it. Scanner-driven apps need focus to receive input but
// must not climb the Z-order.
func (c *Controller) keepFocused(ctx context.Context, window domain.Handle) {
	ws := c.deps.WindowSystem
	go usecase.Retain(ctx, c.config.FocusInterval, c.config.FocusAttempts, func() bool {
		if !ws.IsWindow(window) {
			return false
		}
		if err := ws.FocusWithoutRaise(window); err != nil {
			c.logger.Debug("focus without raise failed", zap.Error(err))
		}
		return true
	})
}

// RequestReload acquires the transition gate and runs the reload sequence.
// Returns domain.ErrTransitionInFlight when another transition holds it.
func (c *Controller) RequestReload(ctx context.Context, reason string) error {
	if !c.deps.State.BeginTransition() {
		return domain.ErrTransitionInFlight
	}
	return c.Reload(ctx, reason)
}

// Reload terminates every tracked process and re-runs the full launch
// pipeline. The caller holds the transition gate; Reload clears the loading
// flag and releases the gate on every path, otherwise the kiosk would stay
// suspended forever.
func (c *Controller) Reload(ctx context.Context, reason string) error {
	defer c.deps.State.EndTransition()
	defer c.deps.State.SetLoading(false)

	c.deps.State.SetLoading(true)
	c.logger.Info("reload starting", zap.String("reason", reason))
	c.deps.Status.SetStatus("Reloading applications...")

	for _, blocker := range c.deps.Overlays {
		blocker.Hide()
	}

	if !c.sleep(ctx, c.config.RestartDelay) {
		return ctx.Err()
	}

	c.terminateTracked()
	c.deps.State.ClearTracking()

	if err := c.deps.Settings.SetLaunchMinified(true); err != nil {
		c.logger.Warn("launch flag reset failed", zap.Error(err))
	}
	if err := c.deps.Regions.RestoreLayout(); err != nil {
		c.logger.Warn("layout restore failed", zap.Error(err))
	}

	var firstErr error
	for _, app := range c.apps {
		if err := c.launchApp(ctx, app); err != nil {
			c.logger.Error("relaunch failed",
				zap.String("app", app.Title),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for _, blocker := range c.deps.Overlays {
		blocker.Show()
	}
	c.deps.Status.SetStatus("Ready")

	// Monitoring resumes only after the cooldown; fresh processes get time
	// to settle before exits count again.
	c.sleep(ctx, c.config.ReloadCooldown)
	return firstErr
}

// EnterCalibration unlocks the layout for settings use: guardians and
// overlays suspend, the top region grows to the indicator's full UI size and
// the top app relaunches un-minified.
func (c *Controller) EnterCalibration(ctx context.Context) error {
	if !c.deps.State.BeginTransition() {
		return domain.ErrTransitionInFlight
	}
	defer c.deps.State.EndTransition()

	c.deps.State.SetCalibration(true)
	c.deps.Status.SetStatus("Calibration mode")

	if err := c.deps.Settings.SetLaunchMinified(false); err != nil {
		c.logger.Warn("launch flag clear failed", zap.Error(err))
	}

	topHeight := c.config.CalibrationTopHeight
	if h, _, err := c.deps.Settings.MiniIndicatorSize(); err == nil && h > 0 {
		topHeight = h
	}
	if err := c.deps.Regions.ApplyCalibrationLayout(topHeight, c.config.CalibrationBottomHeight); err != nil {
		c.logger.Warn("calibration layout failed", zap.Error(err))
	}

	if err := c.deps.WindowSystem.SetTaskbarVisible(true); err != nil {
		c.logger.Warn("taskbar show failed", zap.Error(err))
	}

	return c.relaunchRegionApp(ctx, domain.RegionTop)
}

// ExitCalibration restores the normal layout and relaunches the top app
// minified. The calibration flag clears only after the relaunch, so
// guardians stay suspended for the whole transition.
func (c *Controller) ExitCalibration(ctx context.Context) error {
	if !c.deps.State.BeginTransition() {
		return domain.ErrTransitionInFlight
	}
	defer c.deps.State.EndTransition()
	defer c.deps.State.SetCalibration(false)

	c.deps.Status.SetStatus("Leaving calibration...")

	if err := c.deps.Settings.SetLaunchMinified(true); err != nil {
		c.logger.Warn("launch flag reset failed", zap.Error(err))
	}
	if err := c.deps.Regions.RestoreLayout(); err != nil {
		c.logger.Warn("layout restore failed", zap.Error(err))
	}
	if err := c.deps.WindowSystem.SetTaskbarVisible(false); err != nil {
		c.logger.Warn("taskbar hide failed", zap.Error(err))
	}

	err := c.relaunchRegionApp(ctx, domain.RegionTop)
	c.deps.Status.SetStatus("Ready")
	return err
}

// SetPasswordDialogOpen is the hook the password UI flow calls around its
// dialog lifetime.
func (c *Controller) SetPasswordDialogOpen(open bool) {
	c.deps.State.SetPasswordDialogOpen(open)
}

// relaunchRegionApp kills and relaunches the configured app for the region.
func (c *Controller) relaunchRegionApp(ctx context.Context, regionName string) error {
	for _, app := range c.apps {
		if app.Region != regionName {
			continue
		}
		if current, ok := c.deps.State.App(app.Title); ok && current.PID > 0 {
			if err := c.deps.Processes.Kill(current.PID); err != nil {
				c.logger.Warn("terminate failed",
					zap.Int("pid", current.PID),
					zap.Error(err))
			}
		}
		return c.launchApp(ctx, app)
	}
	return fmt.Errorf("%w: %s", domain.ErrRegionUnknown, regionName)
}

func (c *Controller) terminateTracked() {
	for _, pid := range c.deps.State.TrackedPIDs() {
		if !c.deps.Processes.IsRunning(pid) {
			continue
		}
		if err := c.deps.Processes.Kill(pid); err != nil {
			c.logger.Warn("terminate failed",
				zap.Int("pid", pid),
				zap.Error(err))
		} else {
			c.logger.Info("terminated tracked process", zap.Int("pid", pid))
		}
	}
}

// sleep waits for d unless ctx ends first, reporting whether the full wait
// completed.
func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
