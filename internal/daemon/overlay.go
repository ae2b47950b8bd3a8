package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// OverlayConfig holds overlay blocker configuration.
type OverlayConfig struct {
	TickInterval time.Duration // Enforcement cadence
	// ForceTopmostEvery issues the OS-level topmost call once per this many
	// enforcement ticks. Window managers sometimes ignore the surface's own
	// topmost attribute.
	ForceTopmostEvery int
}

// DefaultOverlayConfig returns default overlay configuration.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		TickInterval:      300 * time.Millisecond,
		ForceTopmostEvery: 3,
	}
}

// OverlayBlocker keeps an input-absorbing surface positioned over a host
// region so kiosk users cannot reach the embedded app's own controls. The
// window manager silently drops topmost status when other topmost windows
// come and go, so the blocker re-asserts geometry and Z-order every tick.
type OverlayBlocker struct {
	config       OverlayConfig
	regionName   string
	surface      domain.OverlaySurface
	windowSystem domain.WindowSystem
	regions      domain.RegionProvider
	state        *KioskState
	logger       *zap.Logger

	mu     sync.Mutex
	region domain.OverlayRegion
	shown  bool

	ticks int
}

// NewOverlayBlocker creates a blocker tracking the named host region in Auto
// mode, initially hidden.
func NewOverlayBlocker(
	config OverlayConfig,
	regionName string,
	surface domain.OverlaySurface,
	ws domain.WindowSystem,
	regions domain.RegionProvider,
	state *KioskState,
	logger *zap.Logger,
) *OverlayBlocker {
	return &OverlayBlocker{
		config:       config,
		regionName:   regionName,
		surface:      surface,
		windowSystem: ws,
		regions:      regions,
		state:        state,
		region:       domain.AutoOverlay(),
		logger:       logger.With(zap.String("region", regionName)),
	}
}

// SetRegion replaces the overlay's geometry mode.
func (b *OverlayBlocker) SetRegion(r domain.OverlayRegion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.region = r
}

// ResetAuto returns the overlay to tracking the live region geometry.
func (b *OverlayBlocker) ResetAuto() {
	b.SetRegion(domain.AutoOverlay())
}

// Show marks the overlay as wanted. The enforcement tick applies it.
func (b *OverlayBlocker) Show() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = true
}

// Hide marks the overlay as unwanted.
func (b *OverlayBlocker) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = false
}

// IsShown reports the requested visibility, not the surface's actual state.
func (b *OverlayBlocker) IsShown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}

// Run drives the enforcement loop until the context is canceled.
func (b *OverlayBlocker) Run(ctx context.Context) error {
	b.logger.Info("overlay blocker started")

	ticker := time.NewTicker(b.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("overlay blocker stopping")
			if err := b.surface.SetVisible(false); err != nil {
				b.logger.Warn("hide on stop failed", zap.Error(err))
			}
			return ctx.Err()

		case <-ticker.C:
			b.enforce()
		}
	}
}

// enforce applies the desired visibility and, when visible, re-resolves the
// geometry and re-asserts Z-order. Errors are logged and the loop keeps
// running.
func (b *OverlayBlocker) enforce() {
	if !b.desiredVisible() {
		if b.surface.Visible() {
			if err := b.surface.SetVisible(false); err != nil {
				b.logger.Warn("overlay hide failed", zap.Error(err))
			}
		}
		return
	}

	region, err := b.regions.Region(b.regionName)
	if err != nil {
		b.logger.Warn("region lookup failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	mode := b.region
	b.mu.Unlock()

	rect := ResolveOverlayRect(mode, region)
	if err := b.surface.SetFrame(rect); err != nil {
		b.logger.Warn("overlay position failed", zap.Error(err))
	}
	if err := b.surface.SetVisible(true); err != nil {
		b.logger.Warn("overlay show failed", zap.Error(err))
	}
	if err := b.surface.RaiseTopmost(); err != nil {
		b.logger.Warn("overlay raise failed", zap.Error(err))
	}

	b.ticks++
	if b.config.ForceTopmostEvery > 0 && b.ticks%b.config.ForceTopmostEvery == 0 {
		if err := b.windowSystem.ForceTopmost(b.surface.Handle()); err != nil {
			b.logger.Warn("overlay force topmost failed", zap.Error(err))
		}
	}
}

// desiredVisible folds the requested visibility with the mode flags. The
// password dialog is not parented under the overlay, so the overlay hides
// entirely while it is open.
func (b *OverlayBlocker) desiredVisible() bool {
	if b.state.PasswordDialogOpen() || b.state.Loading() || b.state.Calibration() {
		return false
	}
	return b.IsShown()
}

// ResolveOverlayRect computes the overlay's geometry from the mode and the
// live region. Auto tracks the region; override fields replace the region's
// corresponding values one by one. Degenerate live geometry falls back to
// the region's default rectangle.
func ResolveOverlayRect(mode domain.OverlayRegion, region domain.HostRegion) domain.Rect {
	frame := region.Frame
	if frame.Degenerate() {
		frame = region.Fallback
	}
	if mode.Auto {
		return frame
	}

	r := frame
	if mode.X != nil {
		r.X = *mode.X
	}
	if mode.Y != nil {
		r.Y = *mode.Y
	}
	if mode.Width != nil {
		r.Width = *mode.Width
	}
	if mode.Height != nil {
		r.Height = *mode.Height
	}
	return r
}
