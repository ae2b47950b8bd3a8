package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
	"github.com/liftops/kioskd/internal/usecase"
)

// GuardianConfig holds embedding guardian configuration.
type GuardianConfig struct {
	TickInterval    time.Duration // How often to revalidate the embedding
	RecheckDelay    time.Duration // Delay before the post-correction re-check
	OriginTolerance int           // Pixels of origin drift absorbed as jitter
	// SuspendOnPasswordDialog makes the password-dialog flag an additional
	// suspension cause for this guardian.
	SuspendOnPasswordDialog bool
	// SuspendOnCalibration pauses the guardian while the layout is unlocked.
	// Set for the app that gets relaunched with its full UI during
	// calibration; apps that stay in place keep their guardian running so
	// they follow the reshaped layout.
	SuspendOnCalibration bool
}

// DefaultGuardianConfig returns default guardian configuration.
func DefaultGuardianConfig() GuardianConfig {
	return GuardianConfig{
		TickInterval:         300 * time.Millisecond,
		RecheckDelay:         100 * time.Millisecond,
		OriginTolerance:      20,
		SuspendOnCalibration: true,
	}
}

// GuardianPhase is the guardian's lifecycle state.
type GuardianPhase int32

const (
	GuardianIdle GuardianPhase = iota
	GuardianActive
	GuardianSuspended
	GuardianStopped
)

func (p GuardianPhase) String() string {
	switch p {
	case GuardianIdle:
		return "idle"
	case GuardianActive:
		return "active"
	case GuardianSuspended:
		return "suspended"
	case GuardianStopped:
		return "stopped"
	}
	return "unknown"
}

// Guardian keeps one hosted app's window embedded. Hosted apps restore their
// own parent, style or position at arbitrary times, so the guardian
// revalidates the embedding every tick and replays the embed sequence on any
// violation. It never terminates on window loss; teardown is external.
type Guardian struct {
	config       GuardianConfig
	appTitle     string
	state        *KioskState
	windowSystem domain.WindowSystem
	regions      domain.RegionProvider
	embedder     *usecase.Embedder
	logger       *zap.Logger

	phase atomic.Int32
}

// NewGuardian creates a guardian for the titled app.
func NewGuardian(
	config GuardianConfig,
	appTitle string,
	state *KioskState,
	ws domain.WindowSystem,
	regions domain.RegionProvider,
	embedder *usecase.Embedder,
	logger *zap.Logger,
) *Guardian {
	g := &Guardian{
		config:       config,
		appTitle:     appTitle,
		state:        state,
		windowSystem: ws,
		regions:      regions,
		embedder:     embedder,
		logger:       logger.With(zap.String("app", appTitle)),
	}
	g.phase.Store(int32(GuardianIdle))
	return g
}

// Phase returns the guardian's current lifecycle state.
func (g *Guardian) Phase() GuardianPhase {
	return GuardianPhase(g.phase.Load())
}

// Run drives the guardian loop until the context is canceled.
func (g *Guardian) Run(ctx context.Context) error {
	g.phase.Store(int32(GuardianActive))
	g.logger.Info("embedding guardian started")

	ticker := time.NewTicker(g.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.phase.Store(int32(GuardianStopped))
			g.logger.Info("embedding guardian stopping")
			return ctx.Err()

		case <-ticker.C:
			if g.suspended() {
				g.phase.Store(int32(GuardianSuspended))
				continue
			}
			g.phase.Store(int32(GuardianActive))
			g.tick(ctx)
		}
	}
}

func (g *Guardian) suspended() bool {
	if g.state.Loading() {
		return true
	}
	if g.config.SuspendOnCalibration && g.state.Calibration() {
		return true
	}
	return g.config.SuspendOnPasswordDialog && g.state.PasswordDialogOpen()
}

// tick revalidates the registry entry and the OS window state, correcting at
// most twice. Errors never escape the tick.
func (g *Guardian) tick(ctx context.Context) {
	app, ok := g.state.App(g.appTitle)
	if !ok || app.Window == 0 {
		return
	}
	if !g.windowSystem.IsWindow(app.Window) {
		// Process exited or window destroyed. Exit handling belongs to the
		// health monitor; keep polling.
		g.logger.Debug("tracked window gone, waiting")
		return
	}

	region, err := g.regions.Region(app.Region)
	if err != nil {
		g.logger.Warn("region lookup failed", zap.Error(err))
		return
	}

	violation, ok2 := g.detect(app.Window, region)
	if !ok2 || violation == "" {
		return
	}

	g.logger.Info("embedding violation",
		zap.String("violation", violation),
		zap.String("region", region.Name))
	g.correct(ctx, app, region)

	select {
	case <-ctx.Done():
		return
	case <-time.After(g.config.RecheckDelay):
	}

	violation, ok2 = g.detect(app.Window, region)
	if ok2 && violation != "" {
		g.logger.Info("embedding violation persists, re-correcting",
			zap.String("violation", violation))
		g.correct(ctx, app, region)
	}
}

// detect derives the window's embedding state and names the first violation,
// or returns "" when the embedding holds. ok is false when the state could
// not be read this tick.
func (g *Guardian) detect(window domain.Handle, region domain.HostRegion) (string, bool) {
	parent, err := g.windowSystem.Parent(window)
	if err != nil {
		g.logger.Debug("parent read failed", zap.Error(err))
		return "", false
	}
	style, err := g.windowSystem.Style(window)
	if err != nil {
		g.logger.Debug("style read failed", zap.Error(err))
		return "", false
	}

	if parent != region.Handle {
		return "parent mismatch", true
	}
	if style&domain.StyleChild == 0 {
		return "child style missing", true
	}

	if g.windowSystem.IsVisible(window) {
		frame, err := g.windowSystem.Frame(window)
		if err != nil {
			g.logger.Debug("frame read failed", zap.Error(err))
			return "", false
		}
		if abs(frame.X-region.Frame.X) > g.config.OriginTolerance ||
			abs(frame.Y-region.Frame.Y) > g.config.OriginTolerance {
			return "origin drift", true
		}
	}
	return "", true
}

func (g *Guardian) correct(ctx context.Context, app domain.HostedApp, region domain.HostRegion) {
	frame, err := g.windowSystem.Frame(app.Window)
	if err != nil {
		frame = domain.Rect{}
	}
	bounds := usecase.TargetBounds(region, frame, app.Fill)
	if err := g.embedder.Embed(ctx, app.Window, region, bounds); err != nil {
		g.logger.Warn("re-embed failed", zap.Error(err))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
