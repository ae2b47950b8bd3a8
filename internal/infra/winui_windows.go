//go:build windows

package infra

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Native window plumbing shared by the kiosk shell and the overlay surface.
// Win32 ties a window to the thread that created it, so each surface runs its
// own locked OS thread: creation happens there and the thread then pumps
// messages until WM_DESTROY. Geometry and visibility calls are safe from any
// goroutine.

var (
	gdi32 = windows.NewLazySystemDLL("gdi32.dll")

	procRegisterClassEx           = user32.NewProc("RegisterClassExW")
	procCreateWindowEx            = user32.NewProc("CreateWindowExW")
	procDefWindowProc             = user32.NewProc("DefWindowProcW")
	procGetMessage                = user32.NewProc("GetMessageW")
	procTranslateMessage          = user32.NewProc("TranslateMessage")
	procDispatchMessage           = user32.NewProc("DispatchMessageW")
	procDestroyWindow             = user32.NewProc("DestroyWindow")
	procPostMessage               = user32.NewProc("PostMessageW")
	procPostQuitMessage           = user32.NewProc("PostQuitMessage")
	procSetLayeredWindowAttrs     = user32.NewProc("SetLayeredWindowAttributes")
	procGetSystemMetrics          = user32.NewProc("GetSystemMetrics")
	procLoadCursor                = user32.NewProc("LoadCursorW")
	procCreateSolidBrush          = gdi32.NewProc("CreateSolidBrush")
	procGetModuleHandle           = kernel32.NewProc("GetModuleHandleW")
)

const (
	wsPopup   = 0x80000000
	wsChild   = 0x40000000
	wsVisible = 0x10000000

	wsExLayered    = 0x00080000
	wsExTopmost    = 0x00000008
	wsExToolWindow = 0x00000080

	wmDestroy       = 0x0002
	wmClose         = 0x0010
	wmLButtonDown   = 0x0201
	wmLButtonDblClk = 0x0203
	wmRButtonDown   = 0x0204
	wmMButtonDown   = 0x0207

	lwaAlpha = 0x0002

	smCxScreen = 0
	smCyScreen = 1

	swShowNoActivate = 4

	idcArrow = 32512
)

// newWndProcCallback wraps a window procedure for RegisterClassEx. The
// returned pointer is never released, as Win32 window classes live for the
// process lifetime.
func newWndProcCallback(fn func(hwnd, message, wParam, lParam uintptr) uintptr) uintptr {
	return syscall.NewCallback(fn)
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type point struct {
	X, Y int32
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

func moduleHandle() windows.Handle {
	h, _, _ := procGetModuleHandle.Call(0)
	return windows.Handle(h)
}

func registerClass(name string, wndProc uintptr, background windows.Handle) error {
	className, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)

	wc := wndClassEx{
		WndProc:    wndProc,
		Instance:   moduleHandle(),
		Cursor:     windows.Handle(cursor),
		Background: background,
		ClassName:  className,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))

	atom, _, callErr := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 {
		return fmt.Errorf("RegisterClassEx %s: %w", name, callErr)
	}
	return nil
}

type createSpec struct {
	className string
	title     string
	exStyle   uintptr
	style     uintptr
	x, y      int
	w, h      int
	parent    uintptr
}

func createWindow(spec createSpec) (uintptr, error) {
	className, err := windows.UTF16PtrFromString(spec.className)
	if err != nil {
		return 0, err
	}
	title, err := windows.UTF16PtrFromString(spec.title)
	if err != nil {
		return 0, err
	}

	hwnd, _, callErr := procCreateWindowEx.Call(
		spec.exStyle,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		spec.style,
		uintptr(spec.x), uintptr(spec.y), uintptr(spec.w), uintptr(spec.h),
		spec.parent, 0, uintptr(moduleHandle()), 0)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx %s: %w", spec.className, callErr)
	}
	return hwnd, nil
}

// runWindowThread executes create on a locked OS thread and pumps messages
// there until the window is destroyed.
func runWindowThread(create func() (uintptr, error)) (uintptr, error) {
	type result struct {
		hwnd uintptr
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hwnd, err := create()
		ch <- result{hwnd, err}
		if err != nil {
			return
		}
		pumpMessages()
	}()

	r := <-ch
	return r.hwnd, r.err
}

func pumpMessages() {
	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 = WM_QUIT, -1 = failure; stop either way.
		if ret == 0 || int(ret) == -1 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func screenSize() (int, int) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	return int(w), int(h)
}

func solidBrush(colorRef uintptr) windows.Handle {
	b, _, _ := procCreateSolidBrush.Call(colorRef)
	return windows.Handle(b)
}
