//go:build windows

package infra

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/liftops/kioskd/internal/domain"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsWindowEnabled          = user32.NewProc("IsWindowEnabled")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetParent                = user32.NewProc("GetParent")
	procSetParent                = user32.NewProc("SetParent")
	procGetWindowLongPtr         = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtr         = user32.NewProc("SetWindowLongPtrW")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procShowWindow               = user32.NewProc("ShowWindow")
	procSetWindowText            = user32.NewProc("SetWindowTextW")
	procFindWindow               = user32.NewProc("FindWindowW")
	procAttachThreadInput        = user32.NewProc("AttachThreadInput")
	procSetFocus                 = user32.NewProc("SetFocus")
	procSetActiveWindow          = user32.NewProc("SetActiveWindow")

	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
)

const (
	gwlStyle = ^uintptr(15) // GWL_STYLE (-16) as uintptr

	swpNoSize       = 0x0001
	swpNoMove       = 0x0002
	swpNoZOrder     = 0x0004
	swpNoActivate   = 0x0010
	swpFrameChanged = 0x0020

	swHide = 0
	swShow = 5
)

// Z-order pseudo-handles for SetWindowPos.
var (
	hwndTop       = uintptr(0)
	hwndTopmost   = ^uintptr(0)     // (HWND)-1
	hwndNoTopmost = ^uintptr(0) - 1 // (HWND)-2
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

func (r winRect) toRect() domain.Rect {
	return domain.Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}

// Win32WindowSystem implements domain.WindowSystem against user32.
type Win32WindowSystem struct{}

// NewWindowSystem returns the native window system.
func NewWindowSystem() (domain.WindowSystem, error) {
	return &Win32WindowSystem{}, nil
}

// enumOwnedWindows carries one enumeration pass's filter and results through
// the EnumWindows lParam.
type enumOwnedWindows struct {
	pid   uint32
	found []domain.WindowInfo
}

// enumOwnedCallback is created once at init. Callback slots are a finite
// process-wide resource and are never released, so they must not be
// allocated per call.
var enumOwnedCallback = syscall.NewCallback(func(hwnd, lParam uintptr) uintptr {
	visible, _, _ := procIsWindowVisible.Call(hwnd)
	enabled, _, _ := procIsWindowEnabled.Call(hwnd)
	if visible == 0 || enabled == 0 {
		return 1 // continue enumeration
	}

	var owner uint32
	procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&owner)))

	enum := (*enumOwnedWindows)(unsafe.Pointer(lParam))
	if owner != enum.pid {
		return 1
	}

	var r winRect
	procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	enum.found = append(enum.found, domain.WindowInfo{
		Handle: domain.Handle(hwnd),
		Frame:  r.toRect(),
	})
	return 1
})

// WindowsOwnedBy enumerates visible, enabled top-level windows for the PID.
func (ws *Win32WindowSystem) WindowsOwnedBy(pid int) ([]domain.WindowInfo, error) {
	enum := enumOwnedWindows{pid: uint32(pid)}

	ret, _, err := procEnumWindows.Call(enumOwnedCallback, uintptr(unsafe.Pointer(&enum)))
	if ret == 0 {
		return enum.found, fmt.Errorf("EnumWindows: %w", err)
	}
	return enum.found, nil
}

// IsWindow reports whether the handle still identifies a live window.
func (ws *Win32WindowSystem) IsWindow(h domain.Handle) bool {
	ret, _, _ := procIsWindow.Call(uintptr(h))
	return ret != 0
}

// IsVisible reports whether the window is currently shown.
func (ws *Win32WindowSystem) IsVisible(h domain.Handle) bool {
	ret, _, _ := procIsWindowVisible.Call(uintptr(h))
	return ret != 0
}

// Parent returns the window's current OS-level parent.
func (ws *Win32WindowSystem) Parent(h domain.Handle) (domain.Handle, error) {
	ret, _, _ := procGetParent.Call(uintptr(h))
	return domain.Handle(ret), nil
}

// SetParent reassigns the window's OS-level parent.
func (ws *Win32WindowSystem) SetParent(child, parent domain.Handle) error {
	ret, _, err := procSetParent.Call(uintptr(child), uintptr(parent))
	if ret == 0 {
		return fmt.Errorf("SetParent: %w", err)
	}
	return nil
}

// Style returns the window's current style bits.
func (ws *Win32WindowSystem) Style(h domain.Handle) (domain.WindowStyle, error) {
	ret, _, err := procGetWindowLongPtr.Call(uintptr(h), gwlStyle)
	if ret == 0 {
		return 0, fmt.Errorf("GetWindowLongPtr: %w", err)
	}
	return domain.WindowStyle(uint32(ret)), nil
}

// SetStyle replaces the window's style bits.
func (ws *Win32WindowSystem) SetStyle(h domain.Handle, s domain.WindowStyle) error {
	// A zero return is ambiguous (the previous style may have been zero),
	// so the errno is the only failure signal here.
	_, _, err := procSetWindowLongPtr.Call(uintptr(h), gwlStyle, uintptr(s))
	if errno, ok := err.(syscall.Errno); ok && errno != 0 {
		return fmt.Errorf("SetWindowLongPtr: %w", err)
	}
	return nil
}

// Frame returns the window's outer rectangle in screen coordinates.
func (ws *Win32WindowSystem) Frame(h domain.Handle) (domain.Rect, error) {
	var r winRect
	ret, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return domain.Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return r.toRect(), nil
}

// SetFrame moves and resizes the window without changing its Z-order.
func (ws *Win32WindowSystem) SetFrame(h domain.Handle, r domain.Rect) error {
	ret, _, err := procSetWindowPos.Call(uintptr(h), hwndTop,
		uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height),
		swpNoZOrder|swpNoActivate)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

// ApplyFrameChange tells the window manager the frame changed so the new
// style takes effect.
func (ws *Win32WindowSystem) ApplyFrameChange(h domain.Handle) error {
	ret, _, err := procSetWindowPos.Call(uintptr(h), hwndTop, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoZOrder|swpNoActivate|swpFrameChanged)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos(FRAMECHANGED): %w", err)
	}
	return nil
}

// ClearTopmost removes the topmost flag, falling back to plain top-of-stack
// when the window manager refuses.
func (ws *Win32WindowSystem) ClearTopmost(h domain.Handle) error {
	flags := uintptr(swpNoMove | swpNoSize | swpNoActivate | swpFrameChanged)
	ret, _, _ := procSetWindowPos.Call(uintptr(h), hwndNoTopmost, 0, 0, 0, 0, flags)
	if ret != 0 {
		return nil
	}
	ret, _, err := procSetWindowPos.Call(uintptr(h), hwndTop, 0, 0, 0, 0, flags)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos(NOTOPMOST): %w", err)
	}
	return nil
}

// ForceTopmost asserts the topmost flag at the OS level.
func (ws *Win32WindowSystem) ForceTopmost(h domain.Handle) error {
	ret, _, err := procSetWindowPos.Call(uintptr(h), hwndTopmost, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoActivate)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos(TOPMOST): %w", err)
	}
	return nil
}

// Show makes the window visible.
func (ws *Win32WindowSystem) Show(h domain.Handle) error {
	procShowWindow.Call(uintptr(h), swShow)
	return nil
}

// SetTitle replaces the window's title text.
func (ws *Win32WindowSystem) SetTitle(h domain.Handle, title string) error {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	ret, _, callErr := procSetWindowText.Call(uintptr(h), uintptr(unsafe.Pointer(p)))
	if ret == 0 {
		return fmt.Errorf("SetWindowText: %w", callErr)
	}
	return nil
}

// FocusWithoutRaise attaches our input queue to the target window's thread
// and sets focus there, which grants keyboard focus without a Z-order change.
func (ws *Win32WindowSystem) FocusWithoutRaise(h domain.Handle) error {
	target, _, _ := procGetWindowThreadProcessID.Call(uintptr(h), 0)
	current, _, _ := procGetCurrentThreadID.Call()

	attached, _, _ := procAttachThreadInput.Call(current, target, 1)
	procSetActiveWindow.Call(uintptr(h))
	ret, _, err := procSetFocus.Call(uintptr(h))
	if attached != 0 {
		procAttachThreadInput.Call(current, target, 0)
	}
	if ret == 0 {
		return fmt.Errorf("SetFocus: %w", err)
	}
	return nil
}

// SetTaskbarVisible hides or shows the system taskbar during calibration.
func (ws *Win32WindowSystem) SetTaskbarVisible(visible bool) error {
	class, _ := windows.UTF16PtrFromString("Shell_TrayWnd")
	hwnd, _, _ := procFindWindow.Call(uintptr(unsafe.Pointer(class)), 0)
	if hwnd == 0 {
		return fmt.Errorf("taskbar window not found")
	}
	cmd := uintptr(swHide)
	if visible {
		cmd = 1 // SW_SHOWNORMAL
	}
	procShowWindow.Call(hwnd, cmd)
	return nil
}

var _ domain.WindowSystem = (*Win32WindowSystem)(nil)
