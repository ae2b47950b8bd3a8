// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "errors"

// Handle is a native top-level window handle (HWND on Windows).
type Handle uintptr

// WindowStyle holds the GWL_STYLE bits of a window.
type WindowStyle uint32

// Win32 style bits the embedder manipulates. Values match winuser.h.
const (
	StyleCaption    WindowStyle = 0x00C00000 // WS_CAPTION
	StyleThickFrame WindowStyle = 0x00040000 // WS_THICKFRAME
	StylePopup      WindowStyle = 0x80000000 // WS_POPUP
	StyleChild      WindowStyle = 0x40000000 // WS_CHILD
)

// Rect is a rectangle in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Area returns the rectangle's area, treating negative extents as zero.
func (r Rect) Area() int {
	w, h := r.Width, r.Height
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w * h
}

// Degenerate reports whether the rectangle is too small to host anything,
// which happens before layout has settled.
func (r Rect) Degenerate() bool {
	return r.Width <= 1 || r.Height <= 1
}

// Host regions the standard layout provides.
const (
	RegionTop    = "top"
	RegionBottom = "bottom"
)

// HostRegion is a rectangle owned by the kiosk shell into which exactly one
// hosted application's window is embedded. Geometry is live; Fallback is used
// when the live geometry is degenerate.
type HostRegion struct {
	Name     string
	Handle   Handle
	Frame    Rect
	Fallback Rect
}

// FillPolicy decides how a hosted window is sized inside its region.
type FillPolicy string

const (
	// FillRegion stretches the window to the region's full size.
	FillRegion FillPolicy = "fill"
	// PreserveNativeSize keeps the window's own size when it is taller than
	// the region, letting the region clip it instead of distorting it.
	PreserveNativeSize FillPolicy = "preserve"
)

// HostedApp describes one application the kiosk launches and embeds.
// PID and Window are replaced whenever the process is (re)launched; the
// record itself persists across reloads.
type HostedApp struct {
	Title  string
	Path   string
	Region string
	Fill   FillPolicy
	PID    int
	Window Handle
}

// EmbeddingState is the window's actual OS state, derived each guardian tick
// and never persisted.
type EmbeddingState struct {
	Parent  Handle
	Style   WindowStyle
	Frame   Rect
	Visible bool
}

// WindowInfo is one enumerated top-level window.
type WindowInfo struct {
	Handle Handle
	Frame  Rect
}

// OverlayRegion selects how an overlay blocker resolves its geometry.
// With Auto set it tracks the host region's live geometry; otherwise any nil
// override field falls back to the region's corresponding value.
type OverlayRegion struct {
	Auto   bool
	Width  *int
	Height *int
	X      *int
	Y      *int
}

// AutoOverlay tracks the host region's live geometry.
func AutoOverlay() OverlayRegion {
	return OverlayRegion{Auto: true}
}

var (
	// ErrWindowNotFound is returned when the locator times out without
	// finding a window for the target process.
	ErrWindowNotFound = errors.New("no window found for process")

	// ErrUnsupported is returned by window-system operations on platforms
	// without a native implementation.
	ErrUnsupported = errors.New("window system not supported on this platform")

	// ErrRegionUnknown is returned for host region names outside the layout.
	ErrRegionUnknown = errors.New("unknown host region")

	// ErrTransitionInFlight is returned when a reload or calibration switch
	// is requested while another top-level transition is running.
	ErrTransitionInFlight = errors.New("another transition is in flight")
)
