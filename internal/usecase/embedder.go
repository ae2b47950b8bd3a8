package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// EmbedderConfig holds window embedder configuration.
type EmbedderConfig struct {
	TopmostClearAttempts int           // Watchdog re-clear attempts after embedding
	TopmostClearInterval time.Duration // Delay between watchdog attempts
}

// DefaultEmbedderConfig returns default embedder configuration.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		TopmostClearAttempts: 20,
		TopmostClearInterval: 250 * time.Millisecond,
	}
}

// Embedder reparents foreign windows into host regions and reshapes them to
// look like native children. Hosted apps fight back (restoring styles,
// re-asserting topmost), so every step is best-effort: a failed step is
// logged and the rest still run. Embed is idempotent and is what the
// guardian replays on every violation.
type Embedder struct {
	config       EmbedderConfig
	windowSystem domain.WindowSystem
	logger       *zap.Logger
}

// NewEmbedder creates a new window embedder.
func NewEmbedder(config EmbedderConfig, ws domain.WindowSystem, logger *zap.Logger) *Embedder {
	return &Embedder{
		config:       config,
		windowSystem: ws,
		logger:       logger,
	}
}

// TargetBounds decides the embedded window's requested size inside the
// region. Fill apps stretch to the region; preserve apps keep their native
// size when they are taller than the region. Embed caps the request to the
// host rectangle either way.
func TargetBounds(region domain.HostRegion, child domain.Rect, policy domain.FillPolicy) domain.Rect {
	frame := region.Frame
	if frame.Degenerate() {
		frame = region.Fallback
	}

	if policy == domain.PreserveNativeSize && child.Height > frame.Height {
		return domain.Rect{Width: child.Width, Height: child.Height}
	}
	return domain.Rect{Width: frame.Width, Height: frame.Height}
}

// Embed runs the full capture sequence against the window: reparent into the
// region, strip the frame decorations, drop topmost, size to bounds, force a
// frame recompute and show. The steps always run in this order; errors are
// logged and the sequence continues.
func (e *Embedder) Embed(ctx context.Context, window domain.Handle, region domain.HostRegion, bounds domain.Rect) error {
	if !e.windowSystem.IsWindow(window) {
		return fmt.Errorf("embed %s: window %#x is gone", region.Name, uintptr(window))
	}

	if err := e.windowSystem.SetParent(window, region.Handle); err != nil {
		e.logger.Warn("reparent failed",
			zap.String("region", region.Name),
			zap.Error(err))
	}

	e.stripDecorations(window, region.Name)

	if err := e.windowSystem.ClearTopmost(window); err != nil {
		e.logger.Warn("clear topmost failed",
			zap.String("region", region.Name),
			zap.Error(err))
	}

	host := region.Frame
	if host.Degenerate() {
		host = region.Fallback
	}
	frame := clampToRegion(bounds, host)
	if err := e.windowSystem.SetFrame(window, frame); err != nil {
		e.logger.Warn("resize failed",
			zap.String("region", region.Name),
			zap.Error(err))
	}

	if err := e.windowSystem.ApplyFrameChange(window); err != nil {
		e.logger.Warn("frame change failed",
			zap.String("region", region.Name),
			zap.Error(err))
	}

	if err := e.windowSystem.Show(window); err != nil {
		e.logger.Warn("show failed",
			zap.String("region", region.Name),
			zap.Error(err))
	}

	e.watchTopmost(ctx, window)
	return nil
}

// stripDecorations removes the caption, sizing frame and popup bits and marks
// the window as a child of its new parent.
func (e *Embedder) stripDecorations(window domain.Handle, regionName string) {
	style, err := e.windowSystem.Style(window)
	if err != nil {
		e.logger.Warn("read style failed",
			zap.String("region", regionName),
			zap.Error(err))
		return
	}

	style &^= domain.StyleCaption | domain.StyleThickFrame | domain.StylePopup
	style |= domain.StyleChild

	if err := e.windowSystem.SetStyle(window, style); err != nil {
		e.logger.Warn("set style failed",
			zap.String("region", regionName),
			zap.Error(err))
	}
}

// watchTopmost re-clears the topmost flag for a bounded period after
// embedding. Apps that re-assert topmost do so within their first seconds.
func (e *Embedder) watchTopmost(ctx context.Context, window domain.Handle) {
	go Retain(ctx, e.config.TopmostClearInterval, e.config.TopmostClearAttempts, func() bool {
		if !e.windowSystem.IsWindow(window) {
			return false
		}
		_ = e.windowSystem.ClearTopmost(window)
		return true
	})
}

// clampToRegion pins the frame inside the host rectangle: origin floored at
// zero (coordinates are parent-relative after reparenting), size capped to
// the host's own size.
func clampToRegion(bounds, host domain.Rect) domain.Rect {
	r := bounds
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if host.Width > 0 && r.Width > host.Width {
		r.Width = host.Width
	}
	if host.Height > 0 && r.Height > host.Height {
		r.Height = host.Height
	}
	return r
}

// Retain keeps some invariant asserted for a bounded duration: it calls fn
// every interval up to count times, stopping early when fn returns false or
// the context is canceled.
func Retain(ctx context.Context, interval time.Duration, count int, fn func() bool) {
	if count <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn() {
				return
			}
		}
	}
}
