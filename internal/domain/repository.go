package domain

// WindowSystem handles coarse OS window operations against foreign top-level
// windows. Implementation: user32 via golang.org/x/sys/windows.
// All mutating calls are best-effort from the caller's point of view: a
// failure is logged and the remaining steps still run.
type WindowSystem interface {
	// WindowsOwnedBy enumerates visible, enabled top-level windows owned by
	// the process, in OS enumeration order.
	WindowsOwnedBy(pid int) ([]WindowInfo, error)

	// IsWindow reports whether the handle still identifies a live window.
	IsWindow(h Handle) bool

	// IsVisible reports whether the window is currently shown.
	IsVisible(h Handle) bool

	// Parent returns the window's current OS-level parent.
	Parent(h Handle) (Handle, error)

	// SetParent reassigns the window's OS-level parent.
	SetParent(child, parent Handle) error

	// Style returns the window's current style bits.
	Style(h Handle) (WindowStyle, error)

	// SetStyle replaces the window's style bits.
	SetStyle(h Handle, s WindowStyle) error

	// Frame returns the window's outer rectangle in screen coordinates.
	Frame(h Handle) (Rect, error)

	// SetFrame moves and resizes the window without changing its Z-order.
	SetFrame(h Handle, r Rect) error

	// ApplyFrameChange forces the window manager to recompute the frame
	// after a style change (SWP_FRAMECHANGED).
	ApplyFrameChange(h Handle) error

	// ClearTopmost removes the window's topmost Z-order flag. The
	// implementation falls back to plain top-of-stack if refused.
	ClearTopmost(h Handle) error

	// ForceTopmost asserts the topmost Z-order flag at the OS level,
	// distinct from any toolkit-level attribute.
	ForceTopmost(h Handle) error

	// Show makes the window visible.
	Show(h Handle) error

	// SetTitle replaces the window's title text. Best-effort; some windows
	// refuse title changes.
	SetTitle(h Handle, title string) error

	// FocusWithoutRaise gives the window keyboard focus without changing
	// its Z-order (thread-input attach on Windows).
	FocusWithoutRaise(h Handle) error

	// SetTaskbarVisible hides or shows the system taskbar.
	SetTaskbarVisible(visible bool) error
}

// OverlaySurface is a transparent, undecorated, input-absorbing native
// window the blocker positions over a host region. It consumes pointer
// button presses and leaves pointer-move events alone.
type OverlaySurface interface {
	// Handle returns the surface's native handle for OS-level enforcement.
	Handle() Handle

	// SetFrame moves and resizes the surface.
	SetFrame(r Rect) error

	// SetVisible shows or hides the surface.
	SetVisible(visible bool) error

	// Visible reports the surface's current visibility.
	Visible() bool

	// RaiseTopmost re-asserts the surface's topmost attribute.
	RaiseTopmost() error

	// Close destroys the surface.
	Close() error
}

// RegionProvider supplies host regions (handle plus live geometry) from the
// kiosk shell, and applies layout changes during mode transitions. The core
// treats regions as read-only geometry sources.
type RegionProvider interface {
	// Region returns the named region with fresh geometry.
	Region(name string) (HostRegion, error)

	// ApplyCalibrationLayout enlarges the top region and shrinks the bottom
	// one so the top application can run with its full UI.
	ApplyCalibrationLayout(topHeight, bottomHeight int) error

	// RestoreLayout returns the regions to the normal kiosk layout.
	RestoreLayout() error
}

// Launcher starts hosted application processes.
type Launcher interface {
	// Launch starts the executable with its working directory set to the
	// executable's directory and returns the new PID.
	Launch(path string) (int, error)
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// Kill terminates a process by PID.
	Kill(pid int) error

	// CurrentPID returns the current process PID.
	CurrentPID() int
}

// SettingsStore is the narrow accessor over the hosted client's JSON
// settings document. The core only flips the launch-minified boolean per
// configured mode entry; it never interprets other fields.
type SettingsStore interface {
	// SetLaunchMinified sets the launch-minified flag on the current mode
	// entry, falling back to all entries, and persists the document.
	SetLaunchMinified(value bool) error

	// EnsureLaunchMinified sets the flag true on every entry where it is
	// unset, reporting whether anything changed.
	EnsureLaunchMinified() (bool, error)

	// MiniIndicatorSize returns the current mode's indicator window height
	// and width, or zeros when absent.
	MiniIndicatorSize() (height, width int, err error)

	// SyncFromControl replaces the settings document with the control copy
	// when the two differ, backing up the old document first. Reports
	// whether a replacement happened.
	SyncFromControl() (bool, error)
}

// StatusSink receives user-visible status updates from the core. The kiosk's
// taskbar UI implements it; tests use a recording fake.
type StatusSink interface {
	// SetStatus updates the status-bar text.
	SetStatus(text string)

	// Alert surfaces a blocking notice for fatal-per-launch conditions.
	Alert(title, message string)
}
